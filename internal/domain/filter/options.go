package filter

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// Option applies a configuration option to the Filter.
type Option func(*Filter)

// WithinRadius keeps only footprints with a vertex closer than radiusKm to
// the origin. A non-positive radius leaves the predicate disabled.
func WithinRadius(originLat, originLon, radiusKm float64) Option {
	return func(f *Filter) {
		if radiusKm <= 0 {
			return
		}
		f.origin = s2.LatLngFromDegrees(originLat, originLon)
		f.radius = s1.Angle(radiusKm / earthRadiusKm)
		f.within = true
	}
}
