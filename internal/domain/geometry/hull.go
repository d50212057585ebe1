// Package geometry computes minimum-area enclosing rectangles of building
// footprints using rotating calipers over the convex hull.
//
// All functions are pure and safe for concurrent use.
package geometry

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// relEpsilon scales the collinearity tolerance with the squared extent of the
// input, so feet, metres and projected coordinates behave alike.
const relEpsilon = 1e-12

// noiseUlps bounds the rounding error of a cross product, in ulps of the
// largest coordinate magnitude times the extent. Small footprints far from
// the origin, such as lon/lat rings, are dominated by this term.
const noiseUlps = 16

// ConvexHull returns the counter-clockwise convex hull of ring, without a
// closing point and without collinear vertices. The result starts at the
// lowest-x (then lowest-y) vertex. Fewer than three points are returned when
// the input is degenerate.
func ConvexHull(ring orb.Ring) orb.Ring {
	if !finite(ring) {
		return nil
	}
	pts := distinctPoints(ring)
	if len(pts) < 3 {
		return pts
	}
	return convexHull(pts, collinearTolerance(pts))
}

// Area returns the unsigned area enclosed by ring, open or closed.
func Area(ring orb.Ring) float64 {
	if len(ring) < 3 {
		return 0
	}
	if !ring.Closed() {
		ring = append(ring.Clone(), ring[0])
	}
	return math.Abs(planar.Area(ring))
}

// distinctPoints copies ring dropping consecutive duplicates and a duplicated
// closing point.
func distinctPoints(ring orb.Ring) orb.Ring {
	pts := make(orb.Ring, 0, len(ring))
	for _, p := range ring {
		if len(pts) > 0 && pts[len(pts)-1] == p {
			continue
		}
		pts = append(pts, p)
	}
	for len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	return pts
}

// collinearTolerance returns the cross-product magnitude under which three
// points count as collinear. It also bounds the smallest rectangle area that
// is not rounding noise.
func collinearTolerance(pts orb.Ring) float64 {
	b := orb.MultiPoint(pts).Bound()
	w, h := b.Max[0]-b.Min[0], b.Max[1]-b.Min[1]
	diag2 := w*w + h*h

	m := math.Max(
		math.Max(math.Abs(b.Min[0]), math.Abs(b.Max[0])),
		math.Max(math.Abs(b.Min[1]), math.Abs(b.Max[1])),
	)
	ulp := math.Nextafter(m, math.Inf(1)) - m

	return relEpsilon*diag2 + noiseUlps*ulp*math.Sqrt(diag2)
}

// convexHull is Andrew's monotone chain over a sorted copy of pts.
func convexHull(pts orb.Ring, eps float64) orb.Ring {
	sorted := make(orb.Ring, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i][0] != sorted[j][0] {
			return sorted[i][0] < sorted[j][0]
		}
		return sorted[i][1] < sorted[j][1]
	})

	hull := make(orb.Ring, 0, 2*len(sorted))
	// lower chain
	for _, p := range sorted {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= eps {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	// upper chain
	lower := len(hull) + 1
	for i := len(sorted) - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= eps {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	// last point repeats the first
	return hull[:len(hull)-1]
}

// cross returns the z component of (a-o) x (b-o); positive for a left turn.
func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

func finite(ring orb.Ring) bool {
	for _, p := range ring {
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
			return false
		}
	}
	return true
}
