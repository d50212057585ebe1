// Package progress reports pipeline counters while a run is in flight.
//
// On a terminal the counters are redrawn in place on a single line. When
// output is redirected they are logged at a slower cadence instead.
package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/danielesteban/nyc/pkg/logger"
	"github.com/mattn/go-isatty"
)

const (
	defaultInterval    = 100 * time.Millisecond
	defaultLogInterval = 5 * time.Second
)

// Snapshot is a point-in-time view of the pipeline counters.
type Snapshot struct {
	Parsed     int64
	Queued     int64
	Processed  int64
	Filtered   int64
	Degenerate int64
	InFlight   int64
}

// Line formats the three headline counters.
func (s Snapshot) Line() string {
	return fmt.Sprintf("%d parsed - %d queued - %d processed", s.Parsed, s.Queued, s.Processed)
}

// Reporter periodically renders snapshots.
type Reporter struct {
	w           io.Writer
	terminal    bool
	interval    time.Duration
	logInterval time.Duration
	logger      logger.Logger
}

// New creates a Reporter writing to stdout.
func New(opts ...Option) *Reporter {
	r := &Reporter{
		w:           os.Stdout,
		terminal:    isTerminal(os.Stdout),
		interval:    defaultInterval,
		logInterval: defaultLogInterval,
		logger:      logger.Get().Named("progress"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Terminal reports whether the status line is drawn in place.
func (r *Reporter) Terminal() bool {
	return r.terminal
}

// Run renders snapshot() until ctx is done.
func (r *Reporter) Run(ctx context.Context, snapshot func() Snapshot) {
	interval := r.interval
	if !r.terminal {
		interval = r.logInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.render(ctx, snapshot())
		}
	}
}

// Finish renders the final counters and ends the status line.
func (r *Reporter) Finish(ctx context.Context, s Snapshot) {
	if r.terminal {
		_, _ = fmt.Fprintf(r.w, "%s\ndone!\n", s.Line())
		return
	}
	r.logger.Info(ctx, "done",
		logger.Int64("parsed", s.Parsed),
		logger.Int64("processed", s.Processed),
		logger.Int64("filtered", s.Filtered),
		logger.Int64("degenerate", s.Degenerate),
	)
}

func (r *Reporter) render(ctx context.Context, s Snapshot) {
	if r.terminal {
		_, _ = fmt.Fprintf(r.w, "%s\r", s.Line())
		return
	}
	r.logger.Info(ctx, "progress",
		logger.Int64("parsed", s.Parsed),
		logger.Int64("queued", s.Queued),
		logger.Int64("processed", s.Processed),
		logger.Int64("in_flight", s.InFlight),
	)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
