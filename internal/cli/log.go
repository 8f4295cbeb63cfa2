// Package cli implements the mindmapper command-line interface.
//
// Commands render Markdown to mind-map images, list stored images, serve
// the HTTP API, and manage the render cache. The CLI is built using cobra
// and logs through charmbracelet/log.
//
// # Commands
//
//   - generate: Render a Markdown file (or stdin) and store the image
//   - list: Show images stored for a day, optionally in an interactive picker
//   - serve: Run the HTTP API and serve the output directory
//   - history: Show recent generations from the history store
//   - cache: Clear or locate the render cache
//   - doctor: Check that the render engine and storage are usable
//
// # Logging
//
// --verbose (-v) lowers the level to debug. The root command stores its
// logger on the command context; the coordinator, renderer and server take
// it from there instead of building their own.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger that timestamps lines as "HH:MM:SS.ms".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a copy of ctx carrying l.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger stored by withLogger, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
