package source

import (
	"github.com/danielesteban/nyc/pkg/logger"
)

type settings struct {
	format         Format
	heightProperty string
	levelHeight    float64
	bufferSize     int
	decoderProcs   int
	logger         logger.Logger
}

// Option applies a configuration option to a Source.
type Option func(*settings)

// WithFormat forces the dataset format instead of guessing it.
func WithFormat(format Format) Option {
	return func(s *settings) {
		s.format = format
	}
}

// WithHeightProperty sets the GeoJSON property holding the roof height.
func WithHeightProperty(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.heightProperty = name
		}
	}
}

// WithLevelHeight sets the storey height used when OSM ways only carry
// building:levels.
func WithLevelHeight(height float64) Option {
	return func(s *settings) {
		if height > 0 {
			s.levelHeight = height
		}
	}
}

// WithBufferSize sets the GeoJSON read buffer size in bytes.
func WithBufferSize(size int) Option {
	return func(s *settings) {
		if size > 0 {
			s.bufferSize = size
		}
	}
}

// WithDecoderProcs sets the number of PBF blob decoders. Zero uses GOMAXPROCS.
func WithDecoderProcs(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.decoderProcs = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger logger.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}
