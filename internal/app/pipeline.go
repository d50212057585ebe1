// Package app wires the footprint source, the compute pool and the output
// writer into a single batch run.
//
// A run has three roles. The source goroutine pushes records onto a bounded
// channel. The orchestrator goroutine filters them, hands footprints to idle
// units and parks the rest in the pending queue, and collects completions.
// The finalizer recenters the collected buildings and writes them out once
// the source is exhausted, the queue is empty and every unit is idle.
package app

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/danielesteban/nyc/internal/adapters/codec"
	"github.com/danielesteban/nyc/internal/adapters/mq/queue"
	"github.com/danielesteban/nyc/internal/adapters/mq/worker"
	"github.com/danielesteban/nyc/internal/adapters/repository"
	"github.com/danielesteban/nyc/internal/adapters/source"
	"github.com/danielesteban/nyc/internal/adapters/storage"
	"github.com/danielesteban/nyc/internal/domain/filter"
	"github.com/danielesteban/nyc/internal/domain/geometry"
	"github.com/danielesteban/nyc/internal/domain/model"
	"github.com/danielesteban/nyc/internal/progress"
	"github.com/danielesteban/nyc/pkg/logger"
	"github.com/danielesteban/nyc/pkg/metrics"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"
)

// Default pipeline configuration constants.
const (
	DefaultOutput       = "public/buildings.bin"
	defaultSourceBuffer = 1024
	shutdownTimeout     = 5 * time.Second
)

// Result summarizes a finished run.
type Result struct {
	RunID      string
	Parsed     int64
	Filtered   int64
	Degenerate int64
	Processed  int64
	Written    int
	Centroid   orb.Point
	Bytes      int
	Duration   time.Duration
}

// Pipeline converts a footprint source into an encoded buildings file.
type Pipeline struct {
	source  source.Source
	storage *storage.Storage

	// configuration
	workerCount  int
	engine       worker.Engine
	projection   geometry.Projection
	filter       *filter.Filter
	output       string
	sourceBuffer int

	// run state, written by the orchestrator only
	store   repository.Store
	pending queue.Queue
	seq     uint64

	// counters, readable from any goroutine
	parsed     atomic.Int64
	filtered   atomic.Int64
	processed  atomic.Int64
	degenerate atomic.Int64
	inFlight   atomic.Int64

	started atomic.Bool
	logger  logger.Logger
}

// New creates a Pipeline reading src and writing through st.
func New(src source.Source, st *storage.Storage, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:       src,
		storage:      st,
		workerCount:  runtime.NumCPU(),
		engine:       worker.EngineFunc(geometry.MinimumBoundingRectangle),
		projection:   geometry.ProjectionNone,
		filter:       filter.New(),
		output:       DefaultOutput,
		sourceBuffer: defaultSourceBuffer,
		logger:       logger.Get().Named("pipeline"),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.storage == nil {
		p.storage = storage.New()
	}
	if p.store == nil {
		p.store = repository.NewMemoryStore()
	}
	if p.pending == nil {
		p.pending = queue.NewInMemoryQueue()
	}

	return p
}

// Progress returns the current counters. It is safe to call concurrently
// with Run.
func (p *Pipeline) Progress() progress.Snapshot {
	return progress.Snapshot{
		Parsed:     p.parsed.Load(),
		Queued:     int64(p.pending.Len()),
		Processed:  p.processed.Load(),
		Filtered:   p.filtered.Load(),
		Degenerate: p.degenerate.Load(),
		InFlight:   p.inFlight.Load(),
	}
}

// Run processes the whole source and writes the output file. A Pipeline runs
// once. Cancelling ctx stops the run without writing output and returns
// ctx.Err().
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	if !p.started.CompareAndSwap(false, true) {
		return Result{}, ErrAlreadyStarted
	}

	start := time.Now()
	runID := uuid.NewString()
	log := p.logger.With(logger.String("run_id", runID))

	log.Info(ctx, "starting pipeline",
		logger.Int("worker_count", p.workerCount),
		logger.String("projection", string(p.projection)),
		logger.String("output", p.output),
	)

	pool := worker.NewPool(
		worker.WithSize(p.workerCount),
		worker.WithEngine(p.engine),
		worker.WithProjection(p.projection),
		worker.WithLogger(log.Named("pool")),
	)
	if err := pool.Start(ctx); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrDispatch, err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := pool.Shutdown(shutdownCtx); err != nil {
			log.Warn(ctx, "pool shutdown failed", logger.Error(err))
		}
	}()

	records := make(chan model.Record, p.sourceBuffer)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(records)
		err := p.source.Stream(gctx, func(rec model.Record) error {
			select {
			case records <- rec:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
		if err != nil && gctx.Err() == nil {
			metrics.RecordErrorByComponent("source", "read")
			return fmt.Errorf("%w: %w", ErrSource, err)
		}
		return err
	})

	g.Go(func() error {
		return p.orchestrate(gctx, pool, records)
	})

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			log.Warn(ctx, "pipeline cancelled", logger.Error(ctxErr))
			return Result{}, ctxErr
		}
		log.Error(ctx, "pipeline failed", logger.Error(err))
		return Result{}, err
	}

	res, err := p.finalize(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("output", "write")
		log.Error(ctx, "writing output failed", logger.Error(err))
		return Result{}, err
	}
	res.RunID = runID
	res.Duration = time.Since(start)
	metrics.UpdateRunDuration(res.Duration.Seconds())

	log.Info(ctx, "pipeline finished",
		logger.Int64("parsed", res.Parsed),
		logger.Int64("filtered", res.Filtered),
		logger.Int64("processed", res.Processed),
		logger.Int64("degenerate", res.Degenerate),
		logger.Int("written", res.Written),
		logger.Int("bytes", res.Bytes),
		logger.Duration("duration", res.Duration),
	)
	return res, nil
}

// orchestrate owns the pool, the pending queue and the store until the
// source is exhausted and no work is left.
func (p *Pipeline) orchestrate(ctx context.Context, pool *worker.Pool, records <-chan model.Record) error {
	completions := pool.Completions()

	for {
		// completions always go before new input
		for drained := false; !drained; {
			select {
			case c := <-completions:
				if err := p.complete(ctx, pool, c); err != nil {
					return err
				}
			default:
				drained = true
			}
		}

		if records == nil && p.pending.Len() == 0 && pool.Idle() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-completions:
			if err := p.complete(ctx, pool, c); err != nil {
				return err
			}
		case rec, ok := <-records:
			if !ok {
				records = nil
				continue
			}
			if err := p.admit(ctx, pool, rec); err != nil {
				return err
			}
		}
	}
}

// admit filters a record and either dispatches it or parks it.
func (p *Pipeline) admit(ctx context.Context, pool *worker.Pool, rec model.Record) error {
	p.parsed.Add(1)
	metrics.RecordParsed()

	fp, reason := p.filter.Apply(rec)
	if reason != filter.ReasonNone {
		p.filtered.Add(1)
		metrics.RecordFiltered(string(reason))
		return nil
	}

	u, ok := pool.TryAcquire()
	if !ok {
		p.pending.Enqueue(fp)
		return nil
	}
	return p.dispatch(ctx, pool, u, fp)
}

// complete records a completion, frees its unit and refills idle units from
// the pending queue.
func (p *Pipeline) complete(ctx context.Context, pool *worker.Pool, c worker.Completion) error {
	pool.Release(c.Unit)
	p.inFlight.Add(-1)
	p.processed.Add(1)
	metrics.RecordProcessed()

	p.collect(ctx, c)

	for p.pending.Len() > 0 {
		u, ok := pool.TryAcquire()
		if !ok {
			break
		}
		fp, ok := p.pending.Dequeue()
		if !ok {
			pool.Release(u)
			break
		}
		if err := p.dispatch(ctx, pool, u, fp); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) collect(ctx context.Context, c worker.Completion) {
	if !c.OK {
		p.degenerate.Add(1)
		metrics.RecordDegenerate()
		p.logger.Debug(ctx, "degenerate footprint",
			logger.String("footprint", c.Task.Footprint.ID),
			logger.Int("vertices", len(c.Task.Footprint.Ring)),
			logger.Float64("area", geometry.Area(c.Task.Footprint.Ring)),
		)
		return
	}

	b := model.NewBuilding(c.Rectangle, c.Task.Footprint.Height)
	if err := p.store.Append(ctx, b); err != nil {
		p.degenerate.Add(1)
		metrics.RecordDegenerate()
		p.logger.Debug(ctx, "dropping building",
			logger.String("footprint", c.Task.Footprint.ID),
			logger.Error(err),
		)
	}
}

func (p *Pipeline) dispatch(ctx context.Context, pool *worker.Pool, u *worker.Unit, fp model.Footprint) error {
	if err := ctx.Err(); err != nil {
		pool.Release(u)
		return err
	}

	p.seq++
	if err := pool.Dispatch(u, worker.Task{Seq: p.seq, Footprint: fp}); err != nil {
		pool.Release(u)
		return fmt.Errorf("%w: %s: %w", ErrDispatch, u.Name(), err)
	}
	p.inFlight.Add(1)
	return nil
}

// finalize recenters the buildings on the midpoint of their extent and
// writes the encoded file.
func (p *Pipeline) finalize(ctx context.Context) (Result, error) {
	var centroid orb.Point
	if b, ok := p.store.Bound(ctx); ok {
		centroid = b.Center()
	}
	p.store.Translate(ctx, -centroid[0], -centroid[1])

	buildings := p.store.Buildings(ctx)
	data := codec.Encode(buildings)
	if err := p.storage.WriteFileAtomic(ctx, p.output, data); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrOutput, err)
	}

	metrics.UpdateBuildingsWritten(len(buildings))
	metrics.UpdateOutputBytes(len(data))

	return Result{
		Parsed:     p.parsed.Load(),
		Filtered:   p.filtered.Load(),
		Degenerate: p.degenerate.Load(),
		Processed:  p.processed.Load(),
		Written:    len(buildings),
		Centroid:   centroid,
		Bytes:      len(data),
	}, nil
}
