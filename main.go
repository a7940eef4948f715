package main

import (
	"context"
	"fmt"
	"github.com/edward-yakop/go-fetch/internal/app"
	"github.com/edward-yakop/go-fetch/internal/core"
	"github.com/edward-yakop/go-fetch/internal/misc"
	"github.com/edward-yakop/go-fetch/internal/progress"
	"github.com/spf13/pflag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

const usageLine = "Usage: go-fetch [flags] <URL | FILENAME_WITH_URL_LIST>"

func main() {
	args := app.ArgsList{}
	pflag.StringVarP(&args.Output,
		"output", "o", ".",
		"destination directory to save the downloaded files")
	pflag.BoolVarP(&args.Verbose,
		"verbose", "v", false,
		"verbose output debug log")
	pflag.Usage = func() {
		_, _ = fmt.Fprintln(os.Stderr, usageLine)
		_, _ = fmt.Fprintln(os.Stderr, "Download files from URLs.")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() != 1 {
		usageError("expected exactly one input, got " + fmt.Sprint(pflag.NArg()))
	}
	args.Input = pflag.Arg(0)

	if args.Verbose {
		misc.SetDefaultLog(slog.LevelDebug)
	} else {
		misc.SetDefaultLog(slog.LevelWarn)
	}

	opt, err := app.ParseOption(args)
	if err != nil {
		usageError(err.Error())
	}

	slog.Debug("Options",
		slog.String("input", opt.Input),
		slog.String("mode", opt.Mode.String()),
		slog.String("output", opt.Folder),
	)

	os.Exit(run(opt, args.Verbose))
}

func run(opt *app.AppOption, verbose bool) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	downloader := core.NewDownloader(
		core.WithProgress(progress.New(os.Stdout)),
		core.WithDebug(verbose),
	)
	summary, err := app.NewApp(opt, downloader).Execute(ctx)
	if err != nil {
		fmt.Printf("Error processing file: %s. Error: %v\n", opt.Input, err)
		return 1
	}

	if opt.Mode == app.ModeList {
		fmt.Printf("Downloaded: %d, Skipped: %d, Failed: %d\n", summary.Downloaded, summary.Skipped, summary.Failed)
	}
	return 0
}

func usageError(msg string) {
	_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	pflag.Usage()
	os.Exit(2)
}
