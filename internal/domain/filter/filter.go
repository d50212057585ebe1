// Package filter decides which source records are eligible footprints.
//
// Rejections are routine data cleaning, not faults: Apply reports a Reason
// instead of an error.
package filter

import (
	"math"

	"github.com/danielesteban/nyc/internal/domain/model"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// earthRadiusKm is the mean Earth radius used for great-circle distances.
const earthRadiusKm = 6371.0

// minDistinctVertices is the smallest vertex count that can enclose an area.
const minDistinctVertices = 3

// Reason names why a record was rejected. The empty Reason means accepted.
type Reason string

// Rejection reasons, also used as metric labels.
const (
	ReasonNone     Reason = ""
	ReasonKind     Reason = "geometry_kind"
	ReasonEmpty    Reason = "empty_ring"
	ReasonVertices Reason = "too_few_vertices"
	ReasonHeight   Reason = "height"
	ReasonDistance Reason = "distance"
)

// Filter applies the eligibility rules and the optional distance predicate.
type Filter struct {
	origin s2.LatLng
	radius s1.Angle
	within bool
}

// New creates a Filter. Without options only the eligibility rules apply.
func New(opts ...Option) *Filter {
	f := &Filter{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Apply returns the footprint for an eligible record, or the reason it was
// rejected.
func (f *Filter) Apply(rec model.Record) (model.Footprint, Reason) {
	if rec.Kind != model.GeometryPolygon {
		return model.Footprint{}, ReasonKind
	}
	if len(rec.Ring) == 0 {
		return model.Footprint{}, ReasonEmpty
	}
	if !hasDistinctVertices(rec.Ring, minDistinctVertices) {
		return model.Footprint{}, ReasonVertices
	}
	if !(rec.Height > 0) || math.IsInf(rec.Height, 1) {
		return model.Footprint{}, ReasonHeight
	}
	if f.within && !f.near(rec.Ring) {
		return model.Footprint{}, ReasonDistance
	}
	return model.Footprint{ID: rec.ID, Ring: rec.Ring, Height: rec.Height}, ReasonNone
}

// near reports whether any vertex lies within the radius of the origin.
// Ring coordinates are lon/lat degrees.
func (f *Filter) near(ring orb.Ring) bool {
	for _, p := range ring {
		if f.origin.Distance(s2.LatLngFromDegrees(p[1], p[0])) < f.radius {
			return true
		}
	}
	return false
}

func hasDistinctVertices(ring orb.Ring, n int) bool {
	seen := make(map[orb.Point]struct{}, n)
	for _, p := range ring {
		seen[p] = struct{}{}
		if len(seen) >= n {
			return true
		}
	}
	return false
}
