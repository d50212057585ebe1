package geometry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// ErrUnknownProjection is returned for projection names that are not supported.
var ErrUnknownProjection = errors.New("unknown projection")

// Projection maps footprint coordinates before the rectangle is computed.
type Projection string

const (
	// ProjectionNone keeps source coordinates, e.g. NY State Plane feet.
	ProjectionNone Projection = "none"
	// ProjectionMercator maps lon/lat degrees to spherical Mercator metres.
	ProjectionMercator Projection = "mercator"
)

// ParseProjection returns the Projection named s. The empty string means none.
func ParseProjection(s string) (Projection, error) {
	switch Projection(strings.ToLower(strings.TrimSpace(s))) {
	case "", ProjectionNone:
		return ProjectionNone, nil
	case ProjectionMercator:
		return ProjectionMercator, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProjection, s)
	}
}

// Ring returns ring in the projected space. The input is never modified.
func (p Projection) Ring(ring orb.Ring) orb.Ring {
	if p != ProjectionMercator {
		return ring
	}
	out := make(orb.Ring, len(ring))
	for i, pt := range ring {
		out[i] = project.WGS84.ToMercator(pt)
	}
	return out
}
