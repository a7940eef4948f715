package misc

import (
	"io"
	"log/slog"
	"os"
)

func SetDefaultLog(level slog.Leveler) {
	SetDefaultLogTo(os.Stderr, level)
}

// SetDefaultLogTo is SetDefaultLog with an explicit destination. Stdout is
// left to the progress bars and status lines.
func SetDefaultLogTo(w io.Writer, level slog.Leveler) {
	slog.SetDefault(
		slog.New(
			slog.NewTextHandler(
				w,
				&slog.HandlerOptions{
					Level: level,
				},
			),
		),
	)
}
