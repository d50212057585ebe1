// Package model contains domain models passed between layers.
package model

import "github.com/paulmach/orb"

// GeometryPolygon is the only geometry kind the pipeline accepts.
const GeometryPolygon = "Polygon"

// Record is a raw feature as produced by a footprint source, before any
// eligibility checks. Ring may be nil or empty.
type Record struct {
	ID     string   // source identifier, informational only
	Kind   string   // geometry kind, e.g. "Polygon"
	Ring   orb.Ring // outer ring, open or closed
	Height float64  // rooftop height
}

// Footprint is an eligible record: a polygon ring with at least three
// distinct vertices and a positive rooftop height.
type Footprint struct {
	ID     string
	Ring   orb.Ring
	Height float64
}
