package geometry

import (
	"math"

	"github.com/danielesteban/nyc/internal/domain/model"
	"github.com/paulmach/orb"
)

// tieEpsilon is the relative area difference under which two candidate
// rectangles count as equal; the earlier hull edge wins.
const tieEpsilon = 1e-9

// candidate is a rectangle aligned to one hull edge, expressed in the edge
// frame: origin o, unit axis u, left normal v.
type candidate struct {
	o, u, v                orb.Point
	minU, maxU, minV, maxV float64
}

func (c candidate) area() float64 {
	return (c.maxU - c.minU) * (c.maxV - c.minV)
}

func (c candidate) world(s, t float64) orb.Point {
	return orb.Point{
		c.o[0] + s*c.u[0] + t*c.v[0],
		c.o[1] + s*c.u[1] + t*c.v[1],
	}
}

// corners returns the rectangle counter-clockwise, starting at the corner on
// the edge line nearest the edge's start vertex.
func (c candidate) corners() model.Rectangle {
	return model.Rectangle{
		c.world(c.minU, c.minV),
		c.world(c.maxU, c.minV),
		c.world(c.maxU, c.maxV),
		c.world(c.minU, c.maxV),
	}
}

// MinimumBoundingRectangle returns the minimum-area rectangle enclosing every
// point of ring. The ring may be open or closed. ok is false when the input
// cannot yield a positive-area rectangle: fewer than three distinct points,
// collinear points, or non-finite coordinates.
func MinimumBoundingRectangle(ring orb.Ring) (rect model.Rectangle, ok bool) {
	if !finite(ring) {
		return model.Rectangle{}, false
	}
	pts := distinctPoints(ring)
	if len(pts) < 3 {
		return model.Rectangle{}, false
	}
	eps := collinearTolerance(pts)
	if eps == 0 {
		return model.Rectangle{}, false
	}
	hull := convexHull(pts, eps)
	if len(hull) < 3 {
		return model.Rectangle{}, false
	}

	var (
		best     candidate
		bestArea = math.Inf(1)
	)
	for i := range hull {
		c, valid := edgeCandidate(hull, i)
		if !valid {
			continue
		}
		if a := c.area(); a < bestArea*(1-tieEpsilon) {
			best, bestArea = c, a
		}
	}
	if bestArea <= eps || math.IsInf(bestArea, 1) {
		return model.Rectangle{}, false
	}
	return best.corners(), true
}

// edgeCandidate projects the hull onto the frame of edge i.
func edgeCandidate(hull orb.Ring, i int) (candidate, bool) {
	a, b := hull[i], hull[(i+1)%len(hull)]
	dx, dy := b[0]-a[0], b[1]-a[1]
	l := math.Hypot(dx, dy)
	if l == 0 {
		return candidate{}, false
	}
	c := candidate{
		o:    a,
		u:    orb.Point{dx / l, dy / l},
		v:    orb.Point{-dy / l, dx / l},
		minU: math.Inf(1), maxU: math.Inf(-1),
		minV: math.Inf(1), maxV: math.Inf(-1),
	}
	for _, p := range hull {
		px, py := p[0]-a[0], p[1]-a[1]
		s := px*c.u[0] + py*c.u[1]
		t := px*c.v[0] + py*c.v[1]
		c.minU, c.maxU = math.Min(c.minU, s), math.Max(c.maxU, s)
		c.minV, c.maxV = math.Min(c.minV, t), math.Max(c.maxV, t)
	}
	return c, true
}
