package app

import (
	"github.com/danielesteban/nyc/internal/adapters/mq/queue"
	"github.com/danielesteban/nyc/internal/adapters/mq/worker"
	"github.com/danielesteban/nyc/internal/adapters/repository"
	"github.com/danielesteban/nyc/internal/domain/filter"
	"github.com/danielesteban/nyc/internal/domain/geometry"
	"github.com/danielesteban/nyc/pkg/logger"
)

// Option configures the Pipeline.
type Option func(*Pipeline)

// WithWorkerCount sets the number of compute units.
func WithWorkerCount(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workerCount = n
		}
	}
}

// WithEngine replaces the rectangle engine run by the units.
func WithEngine(engine worker.Engine) Option {
	return func(p *Pipeline) {
		if engine != nil {
			p.engine = engine
		}
	}
}

// WithProjection sets the projection applied to rings before the engine.
func WithProjection(projection geometry.Projection) Option {
	return func(p *Pipeline) {
		p.projection = projection
	}
}

// WithFilter sets the eligibility filter.
func WithFilter(f *filter.Filter) Option {
	return func(p *Pipeline) {
		if f != nil {
			p.filter = f
		}
	}
}

// WithOutput sets the path of the encoded buildings file.
func WithOutput(path string) Option {
	return func(p *Pipeline) {
		if path != "" {
			p.output = path
		}
	}
}

// WithSourceBuffer bounds the records read ahead of the orchestrator.
func WithSourceBuffer(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.sourceBuffer = n
		}
	}
}

// WithStore sets the building store.
func WithStore(store repository.Store) Option {
	return func(p *Pipeline) {
		if store != nil {
			p.store = store
		}
	}
}

// WithQueue sets the pending queue.
func WithQueue(q queue.Queue) Option {
	return func(p *Pipeline) {
		if q != nil {
			p.pending = q
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}
