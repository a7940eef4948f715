package core

import "context"

// Downloader fetches one URL to disk. Failures are reported in the Result,
// never returned, so a batch can carry on with the next URL.
type Downloader interface {
	Download(ctx context.Context, req Request) Result
}

// Request is a single download. Directory defaults to "." when empty.
// Position is the display row of the progress bar.
type Request struct {
	URL       string
	Directory string
	Position  int
}

// Target is the local file a response is written to.
type Target struct {
	Filename string
	Path     string
}

// Result of one download.
type Result struct {
	URL     string
	Target  Target
	Written int64
	Skipped bool
	Err     error
}

func (r Result) Failed() bool {
	return r.Err != nil
}

// Progress creates a progress bar per download.
type Progress interface {
	Track(name string, total int64, position int) ProgressBar
}

// ProgressBar follows the bytes written for a single file.
// Exactly one of Finish or Abort is called when the transfer ends.
type ProgressBar interface {
	IncrBy(n int)
	Finish()
	Abort()
}

type nopProgress struct{}

func (nopProgress) Track(string, int64, int) ProgressBar { return nopProgress{} }
func (nopProgress) IncrBy(int)                         {}
func (nopProgress) Finish()                            {}
func (nopProgress) Abort()                             {}
