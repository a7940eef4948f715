package core

import (
	"context"
	"fmt"
	"github.com/edward-yakop/go-fetch/internal/misc"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
)

// ChunkSize is the number of bytes read from the response body per write.
const ChunkSize = 1024

// ErrHTTPStatus is the cause of a download answered with a 4xx or 5xx status.
var ErrHTTPStatus = errors.New("unexpected http status")

type HTTPDownload struct {
	client   *resty.Client
	progress Progress
	out      io.Writer
	debug    bool
}

type Option func(h *HTTPDownload)

// WithClient replaces the default resty client.
func WithClient(client *resty.Client) Option {
	return func(h *HTTPDownload) {
		h.client = client
	}
}

// WithProgress renders a progress bar per download.
func WithProgress(p Progress) Option {
	return func(h *HTTPDownload) {
		if p != nil {
			h.progress = p
		}
	}
}

// WithOutput sets where user facing status lines are printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(h *HTTPDownload) {
		h.out = w
	}
}

// WithDebug traces requests and responses through the HTTP logger.
func WithDebug(debug bool) Option {
	return func(h *HTTPDownload) {
		h.debug = debug
	}
}

// NewDownloader returns a Downloader without timeout, following redirects.
func NewDownloader(opts ...Option) *HTTPDownload {
	h := &HTTPDownload{
		client:   resty.New().SetLogger(misc.NewLogger("HTTP")),
		progress: nopProgress{},
		out:      os.Stdout,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.client.SetDebug(h.debug)
	return h
}

// Download streams req.URL into the directory of req.
// It skips the transfer when a file of the advertised size is already there.
func (h *HTTPDownload) Download(ctx context.Context, req Request) (result Result) {
	result.URL = req.URL
	defer func() {
		if result.Err != nil {
			slog.Debug("Download failed", slog.String("url", req.URL), slog.Any("error", result.Err))
			_, _ = fmt.Fprintf(h.out, "Error downloading file: %s. Error: %v\n", req.URL, result.Err)
		}
	}()

	resp, err := h.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(req.URL)
	if resp != nil && resp.RawBody() != nil {
		defer func(body io.ReadCloser) {
			_ = body.Close()
		}(resp.RawBody())
	}
	if err != nil {
		result.Err = errors.Wrap(err, "Request ["+req.URL+"] failed")
		return
	}

	if resp.IsError() {
		result.Err = errors.Wrap(ErrHTTPStatus, resp.Status())
		return
	}

	total := contentLength(resp.RawResponse)
	result.Target = ResolveTarget(req.Directory, resp.Header().Get("Content-Disposition"), finalURL(resp.RawResponse, req.URL))

	if total > 0 {
		if size, ok := misc.FileSize(result.Target.Path); ok && size == total {
			result.Skipped = true
			_, _ = fmt.Fprintf(h.out, "File already exists and has the same size. Skipping: %s\n", result.Target.Filename)
			return
		}
	}

	slog.Debug("Downloading",
		slog.String("url", req.URL),
		slog.String("path", result.Target.Path),
		slog.Int64("total", total),
	)
	result.Written, result.Err = h.saveBodyToDisk(resp.RawBody(), result.Target, total, req.Position)
	return
}

func (h *HTTPDownload) saveBodyToDisk(body io.Reader, target Target, total int64, position int) (written int64, err error) {
	// Create dir if not exists
	dir := filepath.Dir(target.Path)
	if err = os.MkdirAll(dir, 0755); err != nil {
		err = errors.Wrap(err, "Create folder ["+dir+"] failed")
		return
	}

	f, err := os.OpenFile(target.Path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
	if err != nil {
		err = errors.Wrap(err, "Create file ["+target.Path+"] failed")
		return
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(closeErr, "Close file ["+target.Path+"] failed")
		}
	}()

	bar := h.progress.Track(target.Filename, total, position)
	defer func() {
		if err != nil {
			bar.Abort()
		} else {
			bar.Finish()
		}
	}()

	chunk := make([]byte, ChunkSize)
	for {
		n, readErr := body.Read(chunk)
		if n > 0 {
			w, writeErr := f.Write(chunk[:n])
			written += int64(w)
			bar.IncrBy(w)
			if writeErr != nil {
				err = errors.Wrap(writeErr, "Write file ["+target.Path+"] failed")
				return
			}
		}
		if readErr == io.EOF {
			return
		}
		if readErr != nil {
			err = errors.Wrap(readErr, "Read response body failed")
			return
		}
	}
}

// contentLength is the advertised body size, 0 when unknown.
func contentLength(resp *http.Response) int64 {
	if resp.ContentLength > 0 {
		return resp.ContentLength
	}
	n, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// finalURL is the URL of the last request after redirects.
func finalURL(resp *http.Response, fallback string) string {
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return fallback
}
