package model

import (
	"math"

	"github.com/paulmach/orb"
)

// Rectangle is a minimum-area enclosing rectangle: four corners in
// counter-clockwise order, corner i adjacent to corner i+1.
type Rectangle [4]orb.Point

// Bound returns the axis-aligned extent of the corners.
func (r Rectangle) Bound() orb.Bound {
	return orb.MultiPoint(r[:]).Bound()
}

// Area returns the rectangle area computed from two adjacent edges.
func (r Rectangle) Area() float64 {
	return edgeLength(r[0], r[1]) * edgeLength(r[1], r[2])
}

// Vec2 is a planar position.
type Vec2 struct {
	X, Y float64
}

// Vec3 is a box scale: X width, Y height, Z depth.
type Vec3 struct {
	X, Y, Z float64
}

// Building is the instanced-box transform for one footprint.
type Building struct {
	Position Vec2
	Scale    Vec3
	Rotation float64 // radians
}

// NewBuilding derives the box transform for a rectangle and rooftop height.
//
// Position is the midpoint of the rectangle's axis-aligned extent. Width is
// edge 0-1, depth is edge 1-2. Rotation is the negated angle of edge 0->1
// against +x, so the renderer's rotateY maps the box's local x axis onto
// that edge.
func NewBuilding(r Rectangle, height float64) Building {
	b := r.Bound()
	return Building{
		Position: Vec2{
			X: (b.Min[0] + b.Max[0]) / 2,
			Y: (b.Min[1] + b.Max[1]) / 2,
		},
		Scale: Vec3{
			X: edgeLength(r[0], r[1]),
			Y: height,
			Z: edgeLength(r[1], r[2]),
		},
		Rotation: -math.Atan2(r[1][1]-r[0][1], r[1][0]-r[0][0]),
	}
}

func edgeLength(a, b orb.Point) float64 {
	return math.Hypot(b[0]-a[0], b[1]-a[1])
}
