// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Init installs a text slog handler on stderr. Verbose enables debug level.
func Init(verbose bool) {
	InitWithWriter(os.Stderr, verbose)
}

// InitWithWriter installs a text slog handler writing to w.
func InitWithWriter(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
