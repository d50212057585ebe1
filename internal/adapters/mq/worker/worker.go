// Package worker runs rectangle computations on a fixed pool of compute units.
//
// The pool is driven by a single orchestrator goroutine: TryAcquire, Dispatch
// and Release must be called from that goroutine only. Units report back on
// Completions and never share mutable state with each other.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/danielesteban/nyc/internal/domain/geometry"
	"github.com/danielesteban/nyc/internal/domain/model"
	"github.com/danielesteban/nyc/pkg/logger"
	"github.com/danielesteban/nyc/pkg/metrics"
	"github.com/paulmach/orb"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

// Engine computes the minimum-area enclosing rectangle of a ring.
type Engine interface {
	MinimumBoundingRectangle(ring orb.Ring) (model.Rectangle, bool)
}

// EngineFunc adapts a plain function to Engine.
type EngineFunc func(ring orb.Ring) (model.Rectangle, bool)

// MinimumBoundingRectangle calls f(ring).
func (f EngineFunc) MinimumBoundingRectangle(ring orb.Ring) (model.Rectangle, bool) {
	return f(ring)
}

// Task is one footprint handed to a unit.
type Task struct {
	Seq       uint64
	Footprint model.Footprint
}

// Completion reports the outcome of a Task. OK is false for degenerate
// footprints and for failed computations; Err is set only for the latter.
type Completion struct {
	Unit      *Unit
	Task      Task
	Rectangle model.Rectangle
	OK        bool
	Elapsed   time.Duration
	Err       error
}

// Unit is a single compute unit. It processes at most one task at a time.
type Unit struct {
	id    int
	name  string
	tasks chan Task
	pool  *Pool

	// orchestrator-owned
	busy       bool
	dispatched bool

	logger logger.Logger
}

// ID returns the unit index within its pool.
func (u *Unit) ID() int {
	return u.id
}

// Name returns the unit name used in logs.
func (u *Unit) Name() string {
	return u.name
}

// run processes tasks until the inbox is closed by Shutdown.
func (u *Unit) run(ctx context.Context) {
	u.logger.Debug(ctx, "unit started")
	for task := range u.tasks {
		u.pool.completions <- u.process(ctx, task)
	}
	u.logger.Debug(ctx, "unit stopped")
}

func (u *Unit) process(ctx context.Context, task Task) Completion {
	start := time.Now()
	c := Completion{Unit: u, Task: task}

	var pc panics.Catcher
	pc.Try(func() {
		ring := u.pool.projection.Ring(task.Footprint.Ring)
		c.Rectangle, c.OK = u.pool.engine.MinimumBoundingRectangle(ring)
	})
	if r := pc.Recovered(); r != nil {
		c.Rectangle, c.OK = model.Rectangle{}, false
		c.Err = fmt.Errorf("%w: %w", ErrEngine, r.AsError())
		metrics.RecordEngineError()
		metrics.RecordErrorByComponent("engine", "panic")
		u.logger.Error(ctx, "rectangle computation failed",
			logger.String("footprint", task.Footprint.ID),
			logger.Error(c.Err),
		)
	}

	c.Elapsed = time.Since(start)
	metrics.RecordEngineLatency(float64(c.Elapsed.Microseconds()) / 1000)
	return c
}

// Pool manages a fixed set of compute units.
type Pool struct {
	size       int
	engine     Engine
	projection geometry.Projection

	units       []*Unit
	completions chan Completion
	wg          conc.WaitGroup

	// orchestrator-owned
	busy    int
	started bool
	stopped bool

	logger logger.Logger
}

// NewPool creates a pool. The size defaults to the number of CPUs.
func NewPool(opts ...Option) *Pool {
	p := &Pool{
		size:       runtime.NumCPU(),
		engine:     EngineFunc(geometry.MinimumBoundingRectangle),
		projection: geometry.ProjectionNone,
		logger:     logger.Get().Named("pool"),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.size < 1 {
		p.size = 1
	}

	// one slot per unit: a unit never blocks on reporting
	p.completions = make(chan Completion, p.size)
	p.units = make([]*Unit, p.size)
	for i := range p.units {
		name := "unit-" + strconv.Itoa(i)
		p.units[i] = &Unit{
			id:     i,
			name:   name,
			tasks:  make(chan Task, 1),
			pool:   p,
			logger: p.logger.Named(name),
		}
	}

	metrics.UpdateUnitsTotal(p.size)
	metrics.UpdateUnitsBusy(0)

	return p
}

// Start launches one goroutine per unit.
func (p *Pool) Start(ctx context.Context) error {
	if p.stopped {
		return ErrStopped
	}
	if p.started {
		return ErrAlreadyStarted
	}
	p.started = true

	for _, u := range p.units {
		p.wg.Go(func() { u.run(ctx) })
	}

	p.logger.Info(ctx, "pool started", logger.Int("units", p.size))
	return nil
}

// TryAcquire marks the first idle unit busy and returns it.
func (p *Pool) TryAcquire() (*Unit, bool) {
	if p.stopped {
		return nil, false
	}
	for _, u := range p.units {
		if !u.busy {
			u.busy = true
			p.busy++
			metrics.UpdateUnitsBusy(p.busy)
			return u, true
		}
	}
	return nil, false
}

// Dispatch hands task to an acquired unit. It never blocks.
func (p *Pool) Dispatch(u *Unit, task Task) error {
	switch {
	case p.stopped:
		return ErrStopped
	case !p.started:
		return ErrNotStarted
	case u == nil || u.pool != p || !u.busy:
		return ErrNotAcquired
	case u.dispatched:
		return ErrUnitBusy
	}

	select {
	case u.tasks <- task:
		u.dispatched = true
		return nil
	default:
		return ErrUnitBusy
	}
}

// Release returns a unit to the idle set. Call it after receiving the unit's
// completion, or after a failed Dispatch.
func (p *Pool) Release(u *Unit) {
	if u == nil || u.pool != p || !u.busy {
		return
	}
	u.busy = false
	u.dispatched = false
	p.busy--
	metrics.UpdateUnitsBusy(p.busy)
}

// Completions delivers one Completion per dispatched task. It is closed once
// Shutdown has stopped every unit.
func (p *Pool) Completions() <-chan Completion {
	return p.completions
}

// Busy returns the number of acquired units.
func (p *Pool) Busy() int {
	return p.busy
}

// Size returns the number of units.
func (p *Pool) Size() int {
	return p.size
}

// Idle reports whether no unit is acquired.
func (p *Pool) Idle() bool {
	return p.busy == 0
}

// Shutdown stops accepting tasks and waits for running units to finish.
func (p *Pool) Shutdown(ctx context.Context) error {
	if p.stopped {
		return nil
	}
	p.stopped = true

	if !p.started {
		close(p.completions)
		return nil
	}

	for _, u := range p.units {
		close(u.tasks)
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		close(p.completions)
		p.logger.Debug(ctx, "pool stopped")
		return nil
	case <-ctx.Done():
		p.logger.Warn(ctx, "pool shutdown timed out", logger.Int("busy", p.busy))
		return fmt.Errorf("pool shutdown timed out: %w", ctx.Err())
	}
}
