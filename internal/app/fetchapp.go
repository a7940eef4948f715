package app

import (
	"context"
	"github.com/edward-yakop/go-fetch/internal/core"
	"github.com/edward-yakop/go-fetch/internal/misc"
	"github.com/pkg/errors"
	"log/slog"
	"os"
	"time"
)

type ArgsList struct {
	Verbose bool
	Output  string
	Input   string
}

// Mode tells how the input argument is processed.
type Mode int

const (
	// ModeURL downloads the input itself.
	ModeURL Mode = iota
	// ModeList downloads every URL listed in the input file.
	ModeList
)

func (m Mode) String() string {
	if m == ModeList {
		return "list"
	}
	return "url"
}

// UsageError is returned for a missing or unusable input argument.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// IsUsageError reports whether err was caused by a bad command line.
func IsUsageError(err error) bool {
	var usageErr *UsageError
	return errors.As(err, &usageErr)
}

// AppOption download options
//
type AppOption struct {
	Input  string
	Mode   Mode
	Folder string
}

// ParseOption classifies the input argument as an URL or an URL list file.
//
func ParseOption(args ArgsList) (*AppOption, error) {
	opt := AppOption{
		Input:  args.Input,
		Folder: args.Output,
	}
	if opt.Folder == "" {
		opt.Folder = "."
	}

	switch {
	case args.Input == "":
		return nil, &UsageError{Message: "No input provided. Please provide a URL or a file path."}
	case misc.IsURL(args.Input):
		opt.Mode = ModeURL
	case misc.IsRegularFile(args.Input):
		opt.Mode = ModeList
	default:
		return nil, &UsageError{Message: "Input is neither a valid URL nor an existing file: " + args.Input}
	}

	return &opt, nil
}

// FetchApp downloads the URL or URL list of its options
//
type FetchApp struct {
	option     AppOption
	downloader core.Downloader
}

// NewApp create an application instance by input arguments
//
func NewApp(opt *AppOption, downloader core.Downloader) *FetchApp {
	return &FetchApp{
		option:     *opt,
		downloader: downloader,
	}
}

// Summary aggregates the results of a run.
type Summary struct {
	Results    []core.Result
	Downloaded int
	Skipped    int
	Failed     int
}

func (s *Summary) add(r core.Result) {
	s.Results = append(s.Results, r)
	switch {
	case r.Failed():
		s.Failed++
	case r.Skipped:
		s.Skipped++
	default:
		s.Downloaded++
	}
}

// Execute downloads the input URL, or each URL of the input list one after the other.
// Download failures are part of the Summary; the returned error is only set
// when the output folder or the URL list is unusable.
func (app *FetchApp) Execute(ctx context.Context) (Summary, error) {
	var (
		opt       = app.option
		startTime = time.Now()
		summary   Summary
	)

	// Create an output directory
	if _, err := os.Stat(opt.Folder); os.IsNotExist(err) {
		if err = os.MkdirAll(opt.Folder, 0770); err != nil {
			slog.Error("Create folder failed", slog.String("folder", opt.Folder), slog.Any("error", err))
			return summary, errors.Wrap(err, "Create folder ["+opt.Folder+"] failed")
		}
	}

	urls := []string{opt.Input}
	if opt.Mode == ModeList {
		var err error
		if urls, err = ReadURLList(opt.Input); err != nil {
			return summary, err
		}
		slog.Debug("URL list loaded", slog.String("path", opt.Input), slog.Int("count", len(urls)))
	}

	for _, url := range urls {
		if ctx.Err() != nil {
			break
		}
		summary.add(app.downloader.Download(ctx, core.Request{
			URL:       url,
			Directory: opt.Folder,
			Position:  0,
		}))
	}

	slog.Info("Done",
		slog.Int("downloaded", summary.Downloaded),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failed", summary.Failed),
		slog.Duration("elapsed", time.Since(startTime)),
	)
	return summary, nil
}
