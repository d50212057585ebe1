// Package source streams footprint records out of building datasets.
//
// Two formats are supported: GeoJSON feature collections, such as the NYC
// building footprints export, and OpenStreetMap PBF extracts. Both stream
// records one at a time; neither holds the decoded feature list in memory.
package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/danielesteban/nyc/internal/adapters/storage"
	"github.com/danielesteban/nyc/internal/domain/model"
	"github.com/danielesteban/nyc/pkg/logger"
)

// Default source configuration constants.
const (
	DefaultHeightProperty = "HEIGHT_ROOF"
	DefaultLevelHeight    = 3.0
	defaultBufferSize     = 64 * 1024
)

// Format names a dataset encoding.
type Format string

// Supported formats. FormatAuto picks one from the file extension.
const (
	FormatAuto    Format = ""
	FormatGeoJSON Format = "geojson"
	FormatOSMPBF  Format = "osmpbf"
)

// EmitFunc receives each record in source order. Returning an error stops
// the stream and the error is returned from Stream unchanged.
type EmitFunc func(rec model.Record) error

// Source produces footprint records.
type Source interface {
	// Stream reads the whole dataset, calling emit once per record. It
	// returns nil at end of input.
	Stream(ctx context.Context, emit EmitFunc) error
}

// ParseFormat returns the Format named s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatAuto, FormatGeoJSON, FormatOSMPBF:
		return f, nil
	case "json":
		return FormatGeoJSON, nil
	case "pbf", "osm":
		return FormatOSMPBF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// DetectFormat resolves FormatAuto from the path extension. Anything that is
// not a .pbf file is read as GeoJSON.
func DetectFormat(path string, format Format) Format {
	if format != FormatAuto {
		return format
	}
	if strings.EqualFold(filepath.Ext(path), ".pbf") {
		return FormatOSMPBF
	}
	return FormatGeoJSON
}

// New returns the Source for path.
func New(st *storage.Storage, path string, opts ...Option) (Source, error) {
	s := settings{
		heightProperty: DefaultHeightProperty,
		levelHeight:    DefaultLevelHeight,
		bufferSize:     defaultBufferSize,
		logger:         logger.Get().Named("source"),
	}
	for _, opt := range opts {
		opt(&s)
	}

	switch DetectFormat(path, s.format) {
	case FormatGeoJSON:
		return &GeoJSON{storage: st, path: path, settings: s}, nil
	case FormatOSMPBF:
		return &OSMPBF{storage: st, path: path, settings: s}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, s.format)
	}
}
