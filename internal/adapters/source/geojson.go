package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/danielesteban/nyc/internal/adapters/storage"
	"github.com/danielesteban/nyc/internal/domain/model"
	"github.com/danielesteban/nyc/pkg/logger"
	jsoniter "github.com/json-iterator/go"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// kindInvalid marks features whose geometry could not be decoded.
const kindInvalid = "Invalid"

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // shared frozen config

func init() { //nolint:gochecknoinits // route orb's feature decoding through jsoniter
	geojson.CustomJSONUnmarshaler = json
}

// GeoJSON streams the features array of a FeatureCollection.
type GeoJSON struct {
	storage  *storage.Storage
	path     string
	settings settings
}

// Stream implements Source.
func (s *GeoJSON) Stream(ctx context.Context, emit EmitFunc) error {
	f, err := s.storage.Open(s.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpen, err)
	}
	defer func() { _ = f.Close() }()

	s.settings.logger.Info(ctx, "reading geojson", logger.String("path", s.path))
	return s.decode(ctx, f, emit)
}

// decode walks the top-level object and hands each element of "features"
// to emit. Other keys are skipped without being materialized.
func (s *GeoJSON) decode(ctx context.Context, r io.Reader, emit EmitFunc) error {
	iter := jsoniter.Parse(json, r, s.settings.bufferSize)

	var stop error
	complete := iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
		if key != "features" {
			it.Skip()
			return it.Error == nil
		}
		it.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			raw := it.SkipAndReturnBytes()
			if it.Error != nil {
				return false
			}
			if err := ctx.Err(); err != nil {
				stop = err
				return false
			}
			if err := emit(s.record(ctx, raw)); err != nil {
				stop = err
				return false
			}
			return true
		})
		return stop == nil && it.Error == nil
	})

	if stop != nil {
		return stop
	}
	if iter.Error != nil && !(complete && errors.Is(iter.Error, io.EOF)) {
		return fmt.Errorf("%w: %s: %w", ErrRead, s.path, iter.Error)
	}
	return nil
}

// record converts one raw feature. Undecodable features become records of
// an invalid kind so they are counted and then filtered.
func (s *GeoJSON) record(ctx context.Context, raw []byte) model.Record {
	f, err := geojson.UnmarshalFeature(raw)
	if err != nil {
		s.settings.logger.Debug(ctx, "skipping undecodable feature", logger.Error(err))
		return model.Record{Kind: kindInvalid}
	}
	return featureRecord(f, s.settings.heightProperty)
}

func featureRecord(f *geojson.Feature, heightProperty string) model.Record {
	rec := model.Record{Height: numericProperty(f.Properties, heightProperty)}
	if f.ID != nil {
		rec.ID = fmt.Sprint(f.ID)
	}
	if f.Geometry == nil {
		return rec
	}
	rec.Kind = f.Geometry.GeoJSONType()
	if poly, ok := f.Geometry.(orb.Polygon); ok && len(poly) > 0 {
		rec.Ring = poly[0]
	}
	return rec
}

// numericProperty reads a number that some exports encode as a string.
// Missing or unparsable values read as zero.
func numericProperty(props geojson.Properties, key string) float64 {
	switch v := props[key].(type) {
	case float64:
		return v
	case string:
		h, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return h
	default:
		return 0
	}
}
