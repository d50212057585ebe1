package worker

import (
	"github.com/danielesteban/nyc/internal/domain/geometry"
	"github.com/danielesteban/nyc/pkg/logger"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithSize sets the number of compute units. Non-positive values keep the
// default.
func WithSize(size int) Option {
	return func(p *Pool) {
		if size > 0 {
			p.size = size
		}
	}
}

// WithEngine replaces the rectangle engine.
func WithEngine(engine Engine) Option {
	return func(p *Pool) {
		if engine != nil {
			p.engine = engine
		}
	}
}

// WithProjection sets the projection applied to each ring before computing.
func WithProjection(projection geometry.Projection) Option {
	return func(p *Pool) {
		if projection != "" {
			p.projection = projection
		}
	}
}

// WithLogger sets a custom logger for the pool and its units.
func WithLogger(logger logger.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}
