// Package repository holds the building records produced by a run.
package repository

import (
	"context"

	"github.com/danielesteban/nyc/internal/domain/model"
	"github.com/paulmach/orb"
)

// Store accumulates buildings in completion order.
type Store interface {
	// Append adds a building. Non-finite buildings are rejected.
	Append(ctx context.Context, b model.Building) error

	// Len returns the number of buildings.
	Len(ctx context.Context) int

	// Bound returns the bounding box of all positions. ok is false when the
	// store is empty.
	Bound(ctx context.Context) (b orb.Bound, ok bool)

	// Translate shifts every position by (dx, dy).
	Translate(ctx context.Context, dx, dy float64)

	// Buildings returns a copy of all buildings in append order.
	Buildings(ctx context.Context) []model.Building
}
