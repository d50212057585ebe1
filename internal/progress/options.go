package progress

import (
	"io"
	"time"

	"github.com/danielesteban/nyc/pkg/logger"
)

// Option applies a configuration option to the Reporter.
type Option func(*Reporter)

// WithWriter sets the status line destination. Terminal detection follows
// the writer.
func WithWriter(w io.Writer) Option {
	return func(r *Reporter) {
		if w != nil {
			r.w = w
			r.terminal = isTerminal(w)
		}
	}
}

// WithTerminal forces in-place rendering on or off.
func WithTerminal(terminal bool) Option {
	return func(r *Reporter) {
		r.terminal = terminal
	}
}

// WithInterval sets the redraw interval on a terminal.
func WithInterval(interval time.Duration) Option {
	return func(r *Reporter) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

// WithLogInterval sets the logging interval when not on a terminal.
func WithLogInterval(interval time.Duration) Option {
	return func(r *Reporter) {
		if interval > 0 {
			r.logInterval = interval
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger logger.Logger) Option {
	return func(r *Reporter) {
		if logger != nil {
			r.logger = logger
		}
	}
}
