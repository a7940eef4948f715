package core

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedBar struct {
	name     string
	total    int64
	position int
	incs     []int
	finished bool
	aborted  bool
}

type recordingProgress struct {
	mu   sync.Mutex
	bars []*recordedBar
}

func (p *recordingProgress) Track(name string, total int64, position int) ProgressBar {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := &recordedBar{name: name, total: total, position: position}
	p.bars = append(p.bars, b)
	return b
}

func (b *recordedBar) IncrBy(n int) { b.incs = append(b.incs, n) }
func (b *recordedBar) Finish()      { b.finished = true }
func (b *recordedBar) Abort()       { b.aborted = true }

func (b *recordedBar) sum() (total int) {
	for _, n := range b.incs {
		total += n
	}
	return
}

// fileServer serves content, counting the requests whose body was fully sent.
type fileServer struct {
	*httptest.Server
	content       []byte
	disposition   string
	chunked       bool
	bodiesWritten int
	mu            sync.Mutex
}

func newFileServer(t *testing.T, content []byte, disposition string) *fileServer {
	fs := &fileServer{content: content, disposition: disposition}
	mux := http.NewServeMux()
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		if fs.disposition != "" {
			w.Header().Set("Content-Disposition", fs.disposition)
		}
		if fs.chunked {
			// Flushing before the first write drops Content-Length.
			w.WriteHeader(http.StatusOK)
			w.(http.Flusher).Flush()
		} else {
			w.Header().Set("Content-Length", strconv.Itoa(len(fs.content)))
		}
		if r.Method == http.MethodHead {
			return
		}
		if _, err := w.Write(fs.content); err == nil {
			fs.mu.Lock()
			fs.bodiesWritten++
			fs.mu.Unlock()
		}
	})
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/files/redirected.bin?token=1", http.StatusFound)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func newTestDownloader(p Progress) (*HTTPDownload, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return NewDownloader(WithProgress(p), WithOutput(out)), out
}

func TestDownload_WritesFileInChunks(t *testing.T) {
	content := bytes.Repeat([]byte("0123456789"), 300)
	srv := newFileServer(t, content, "")
	dir := createEmptyDir(t)
	progress := &recordingProgress{}
	d, out := newTestDownloader(progress)

	result := d.Download(context.Background(), Request{URL: srv.URL + "/files/data.bin", Directory: dir, Position: 3})

	require.NoError(t, result.Err)
	assert.False(t, result.Skipped)
	assert.Equal(t, int64(len(content)), result.Written)
	assert.Equal(t, Target{Filename: "data.bin", Path: filepath.Join(dir, "data.bin")}, result.Target)
	assert.Empty(t, out.String())

	written, err := os.ReadFile(result.Target.Path)
	require.NoError(t, err)
	assert.Equal(t, content, written)

	require.Len(t, progress.bars, 1)
	bar := progress.bars[0]
	assert.Equal(t, "data.bin", bar.name)
	assert.Equal(t, int64(len(content)), bar.total)
	assert.Equal(t, 3, bar.position)
	assert.Equal(t, len(content), bar.sum())
	assert.True(t, bar.finished)
	assert.False(t, bar.aborted)
	for _, n := range bar.incs {
		assert.LessOrEqual(t, n, ChunkSize)
	}
}

func TestDownload_SecondRunSkips(t *testing.T) {
	srv := newFileServer(t, []byte(strings.Repeat("x", 5000)), `attachment; filename="stable.txt"`)
	dir := createEmptyDir(t)
	progress := &recordingProgress{}
	d, out := newTestDownloader(progress)
	req := Request{URL: srv.URL + "/files/whatever", Directory: dir}

	first := d.Download(context.Background(), req)
	require.NoError(t, first.Err)
	assert.False(t, first.Skipped)

	second := d.Download(context.Background(), req)
	require.NoError(t, second.Err)
	assert.True(t, second.Skipped)
	assert.Equal(t, int64(0), second.Written)
	assert.Equal(t, "stable.txt", second.Target.Filename)
	assert.Contains(t, out.String(), "File already exists and has the same size. Skipping: stable.txt")
	assert.Len(t, progress.bars, 1, "no progress bar for a skipped file")
}

func TestDownload_DifferentSizeIsOverwritten(t *testing.T) {
	content := []byte("fresh content")
	srv := newFileServer(t, content, "")
	dir := createEmptyDir(t)
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))
	d, _ := newTestDownloader(nil)

	result := d.Download(context.Background(), Request{URL: srv.URL + "/files/f.txt", Directory: dir})

	require.NoError(t, result.Err)
	assert.False(t, result.Skipped)
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, written)
}

func TestDownload_UnknownLengthNeverSkips(t *testing.T) {
	content := []byte(strings.Repeat("chunk", 1000))
	srv := newFileServer(t, content, "")
	srv.chunked = true
	dir := createEmptyDir(t)
	progress := &recordingProgress{}
	d, out := newTestDownloader(progress)
	req := Request{URL: srv.URL + "/files/stream.txt", Directory: dir}

	for i := 0; i < 2; i++ {
		result := d.Download(context.Background(), req)
		require.NoError(t, result.Err)
		assert.False(t, result.Skipped)
		assert.Equal(t, int64(len(content)), result.Written)
	}

	assert.NotContains(t, out.String(), "already exists")
	require.Len(t, progress.bars, 2)
	assert.Equal(t, int64(0), progress.bars[0].total)
	assert.True(t, progress.bars[1].finished)
	assert.Equal(t, 2, srv.bodiesWritten)
}

func TestDownload_EmptyBodyIsNotSkipped(t *testing.T) {
	srv := newFileServer(t, []byte{}, "")
	dir := createEmptyDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.txt"), nil, 0644))
	d, out := newTestDownloader(nil)

	result := d.Download(context.Background(), Request{URL: srv.URL + "/files/empty.txt", Directory: dir})

	require.NoError(t, result.Err)
	assert.False(t, result.Skipped)
	assert.NotContains(t, out.String(), "already exists")
}

func TestDownload_FollowsRedirects(t *testing.T) {
	srv := newFileServer(t, []byte("redirected"), "")
	dir := createEmptyDir(t)
	d, _ := newTestDownloader(nil)

	result := d.Download(context.Background(), Request{URL: srv.URL + "/redirect", Directory: dir})

	require.NoError(t, result.Err)
	assert.Equal(t, "redirected.bin", result.Target.Filename)
}

func TestDownload_HTTPErrorIsReported(t *testing.T) {
	srv := newFileServer(t, nil, "")
	dir := createEmptyDir(t)
	d, out := newTestDownloader(nil)
	url := srv.URL + "/missing"

	result := d.Download(context.Background(), Request{URL: url, Directory: dir})

	require.Error(t, result.Err)
	assert.True(t, result.Failed())
	assert.Equal(t, ErrHTTPStatus, errors.Cause(result.Err))
	assert.Contains(t, out.String(), "Error downloading file: "+url+". Error: 404")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "error page is not saved")
}

func TestDownload_ConnectionErrorIsReported(t *testing.T) {
	srv := newFileServer(t, nil, "")
	url := srv.URL + "/files/gone.bin"
	srv.Close()
	d, out := newTestDownloader(nil)

	result := d.Download(context.Background(), Request{URL: url, Directory: createEmptyDir(t)})

	require.Error(t, result.Err)
	assert.Equal(t, url, result.URL)
	assert.Contains(t, out.String(), "Error downloading file: "+url)
}

func TestDownload_TruncatedBodyAbortsProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "4096")
		_, _ = w.Write([]byte("only a part"))
		// Returning early makes the client see an unexpected EOF.
	}))
	t.Cleanup(srv.Close)
	progress := &recordingProgress{}
	d, out := newTestDownloader(progress)

	result := d.Download(context.Background(), Request{URL: srv.URL + "/part.bin", Directory: createEmptyDir(t)})

	require.Error(t, result.Err)
	require.Len(t, progress.bars, 1)
	assert.True(t, progress.bars[0].aborted)
	assert.False(t, progress.bars[0].finished)
	assert.Contains(t, out.String(), "Error downloading file:")
}

func TestDownload_CancelledContext(t *testing.T) {
	srv := newFileServer(t, []byte("never"), "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d, _ := newTestDownloader(nil)

	result := d.Download(ctx, Request{URL: srv.URL + "/files/never.bin", Directory: createEmptyDir(t)})

	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, context.Canceled)
}

func createEmptyDir(t *testing.T) string {
	dir, err := os.MkdirTemp("", "fetch")
	assert.NoError(t, err)
	t.Cleanup(func() {
		_ = os.RemoveAll(dir)
	})
	return dir
}
