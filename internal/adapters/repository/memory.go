package repository

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/danielesteban/nyc/internal/domain/model"
	"github.com/paulmach/orb"
)

const defaultInitialCapacity = 1024

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu              sync.RWMutex
	buildings       []model.Building
	initialCapacity int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{initialCapacity: defaultInitialCapacity}
	for _, opt := range opts {
		opt(s)
	}
	s.buildings = make([]model.Building, 0, s.initialCapacity)
	return s
}

// Append adds b at the end.
func (s *MemoryStore) Append(_ context.Context, b model.Building) error {
	if !finite(b) {
		return fmt.Errorf("%w: %+v", ErrInvalidBuilding, b)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buildings = append(s.buildings, b)
	return nil
}

// Len returns the number of buildings.
func (s *MemoryStore) Len(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buildings)
}

// Bound returns the bounding box of all positions.
func (s *MemoryStore) Bound(_ context.Context) (orb.Bound, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.buildings) == 0 {
		return orb.Bound{}, false
	}
	first := s.buildings[0].Position
	b := orb.Bound{Min: orb.Point{first.X, first.Y}, Max: orb.Point{first.X, first.Y}}
	for _, bl := range s.buildings[1:] {
		b = b.Extend(orb.Point{bl.Position.X, bl.Position.Y})
	}
	return b, true
}

// Translate shifts every position by (dx, dy).
func (s *MemoryStore) Translate(_ context.Context, dx, dy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.buildings {
		s.buildings[i].Position.X += dx
		s.buildings[i].Position.Y += dy
	}
}

// Buildings returns a copy of all buildings in append order.
func (s *MemoryStore) Buildings(_ context.Context) []model.Building {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Building, len(s.buildings))
	copy(out, s.buildings)
	return out
}

func finite(b model.Building) bool {
	for _, v := range []float64{b.Position.X, b.Position.Y, b.Scale.X, b.Scale.Y, b.Scale.Z, b.Rotation} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
