package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"

	"github.com/danielesteban/nyc/internal/adapters/storage"
	"github.com/danielesteban/nyc/internal/domain/model"
	"github.com/danielesteban/nyc/pkg/logger"
	"github.com/paulmach/orb"
	"github.com/qedus/osmpbf"
)

const nodeLogInterval = 1_000_000

// OSMPBF streams building ways out of an OpenStreetMap PBF extract. The
// file is read twice: once to index node coordinates, once for the ways.
type OSMPBF struct {
	storage  *storage.Storage
	path     string
	settings settings
}

// Stream implements Source.
func (s *OSMPBF) Stream(ctx context.Context, emit EmitFunc) error {
	f, err := s.storage.Open(s.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpen, err)
	}
	defer func() { _ = f.Close() }()

	s.settings.logger.Info(ctx, "collecting nodes", logger.String("path", s.path))
	nodes, err := s.collectNodes(ctx, f)
	if err != nil {
		return err
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: rewind %s: %w", ErrRead, s.path, err)
	}

	s.settings.logger.Info(ctx, "streaming building ways", logger.Int("nodes", len(nodes)))
	return s.streamWays(ctx, f, nodes, emit)
}

func (s *OSMPBF) decoder(r io.Reader) (*osmpbf.Decoder, error) {
	procs := s.settings.decoderProcs
	if procs < 1 {
		procs = runtime.GOMAXPROCS(-1)
	}
	d := osmpbf.NewDecoder(r)
	d.SetBufferSize(osmpbf.MaxBlobSize)
	if err := d.Start(procs); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRead, s.path, err)
	}
	return d, nil
}

func (s *OSMPBF) collectNodes(ctx context.Context, r io.Reader) (map[int64]orb.Point, error) {
	d, err := s.decoder(r)
	if err != nil {
		return nil, err
	}

	nodes := make(map[int64]orb.Point)
	for {
		obj, err := d.Decode()
		if errors.Is(err, io.EOF) {
			return nodes, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrRead, s.path, err)
		}
		if node, ok := obj.(*osmpbf.Node); ok {
			nodes[node.ID] = orb.Point{node.Lon, node.Lat}
			if len(nodes)%nodeLogInterval == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				s.settings.logger.Debug(ctx, "collected nodes", logger.Int("nodes", len(nodes)))
			}
		}
	}
}

func (s *OSMPBF) streamWays(ctx context.Context, r io.Reader, nodes map[int64]orb.Point, emit EmitFunc) error {
	d, err := s.decoder(r)
	if err != nil {
		return err
	}

	for {
		obj, err := d.Decode()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrRead, s.path, err)
		}
		way, ok := obj.(*osmpbf.Way)
		if !ok {
			continue
		}
		rec, ok := wayRecord(way, nodes, s.settings.levelHeight)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(rec); err != nil {
			return err
		}
	}
}

// wayRecord converts a building way. ok is false for ways that are not
// buildings at all. Ways with unresolved nodes yield an empty ring.
func wayRecord(way *osmpbf.Way, nodes map[int64]orb.Point, levelHeight float64) (model.Record, bool) {
	if tag, ok := way.Tags["building"]; !ok || tag == "no" {
		return model.Record{}, false
	}

	rec := model.Record{
		ID:     "way/" + strconv.FormatInt(way.ID, 10),
		Kind:   "LineString",
		Height: wayHeight(way.Tags, levelHeight),
	}
	ids := way.NodeIDs
	if len(ids) >= 4 && ids[0] == ids[len(ids)-1] {
		rec.Kind = model.GeometryPolygon
	}

	ring := make(orb.Ring, 0, len(ids))
	for _, id := range ids {
		p, ok := nodes[id]
		if !ok {
			return rec, true
		}
		ring = append(ring, p)
	}
	rec.Ring = ring
	return rec, true
}

// wayHeight prefers an explicit height and falls back to storeys.
func wayHeight(tags map[string]string, levelHeight float64) float64 {
	if h, ok := parseMetres(tags["height"]); ok {
		return h
	}
	if l, ok := parseMetres(tags["building:levels"]); ok {
		return l * levelHeight
	}
	return 0
}

// parseMetres reads values like "12", "12.5" or "12 m".
func parseMetres(v string) (float64, bool) {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "m"))
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}
