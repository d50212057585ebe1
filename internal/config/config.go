// Package config defines pipeline configuration and its loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"fmt"
	"runtime"

	"github.com/danielesteban/nyc/internal/adapters/source"
	"github.com/danielesteban/nyc/internal/domain/geometry"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Input is the footprint dataset path.
	Input string `koanf:"input"`

	// InputFormat forces geojson or osmpbf. Empty picks by extension.
	InputFormat string `koanf:"input_format"`

	// Output is the path of the encoded buildings file.
	Output string `koanf:"output"`

	// WorkerCount sets the number of compute units.
	WorkerCount int `koanf:"worker_count"`

	// SourceBuffer bounds the records read ahead of the orchestrator.
	SourceBuffer int `koanf:"source_buffer"`

	// StoreCapacity preallocates the building store, typically the expected
	// footprint count. Zero keeps the store default.
	StoreCapacity int `koanf:"store_capacity"`

	// PendingCapacity preallocates the pending queue. Zero keeps the queue default.
	PendingCapacity int `koanf:"pending_capacity"`

	// HeightProperty names the GeoJSON property holding the roof height.
	HeightProperty string `koanf:"height_property"`

	// LevelHeight converts OSM building:levels to metres.
	LevelHeight float64 `koanf:"level_height"`

	// Projection is applied to rings before computing rectangles: none or mercator.
	Projection string `koanf:"projection"`

	// FilterOriginLat, FilterOriginLon and FilterRadiusKm keep only
	// footprints near a point. A zero radius disables the filter.
	FilterOriginLat float64 `koanf:"filter_origin_lat"`
	FilterOriginLon float64 `koanf:"filter_origin_lon"`
	FilterRadiusKm  float64 `koanf:"filter_radius_km"`

	// ProgressIntervalMS is the status line redraw interval.
	ProgressIntervalMS int `koanf:"progress_interval_ms"`

	// MetricsTextfile, when set, receives a Prometheus textfile after the run.
	MetricsTextfile string `koanf:"metrics_textfile"`
}

// New creates a Config with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		Input:              "data/data.geojson",
		Output:             "public/buildings.bin",
		WorkerCount:        runtime.NumCPU(),
		SourceBuffer:       1024,
		HeightProperty:     source.DefaultHeightProperty,
		LevelHeight:        source.DefaultLevelHeight,
		Projection:         string(geometry.ProjectionNone),
		ProgressIntervalMS: 100,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Input == "":
		return fmt.Errorf("%w: input must not be empty", ErrInvalidConfig)
	case c.Output == "":
		return fmt.Errorf("%w: output must not be empty", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.SourceBuffer < 1:
		return fmt.Errorf("%w: source_buffer must be positive, got %d", ErrInvalidConfig, c.SourceBuffer)
	case c.StoreCapacity < 0:
		return fmt.Errorf("%w: store_capacity must not be negative, got %d", ErrInvalidConfig, c.StoreCapacity)
	case c.PendingCapacity < 0:
		return fmt.Errorf("%w: pending_capacity must not be negative, got %d", ErrInvalidConfig, c.PendingCapacity)
	case !(c.LevelHeight > 0):
		return fmt.Errorf("%w: level_height must be positive, got %v", ErrInvalidConfig, c.LevelHeight)
	case c.FilterRadiusKm < 0:
		return fmt.Errorf("%w: filter_radius_km must not be negative, got %v", ErrInvalidConfig, c.FilterRadiusKm)
	case c.FilterOriginLat < -90 || c.FilterOriginLat > 90:
		return fmt.Errorf("%w: filter_origin_lat out of range, got %v", ErrInvalidConfig, c.FilterOriginLat)
	case c.FilterOriginLon < -180 || c.FilterOriginLon > 180:
		return fmt.Errorf("%w: filter_origin_lon out of range, got %v", ErrInvalidConfig, c.FilterOriginLon)
	case c.ProgressIntervalMS < 1:
		return fmt.Errorf("%w: progress_interval_ms must be positive, got %d", ErrInvalidConfig, c.ProgressIntervalMS)
	}
	if _, err := geometry.ParseProjection(c.Projection); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := source.ParseFormat(c.InputFormat); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
