package queue

import (
	"fmt"
	"sync"
	"testing"

	"github.com/danielesteban/nyc/internal/domain/model"
)

func footprint(i int) model.Footprint {
	return model.Footprint{ID: fmt.Sprintf("b%d", i), Height: float64(i + 1)}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithInitialCapacity(2))

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if _, ok := q.Dequeue(); ok {
		t.Error("expected dequeue on empty queue to fail")
	}

	q.Enqueue(footprint(1))
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	item, ok := q.Dequeue()
	if !ok {
		t.Fatal("expected dequeue to succeed")
	}
	if item.ID != "b1" {
		t.Errorf("expected b1, got %v", item.ID)
	}

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_GrowsPastInitialCapacity(t *testing.T) {
	q := NewInMemoryQueue(WithInitialCapacity(2))

	for i := 0; i < 10; i++ {
		q.Enqueue(footprint(i))
	}

	if l := q.Len(); l != 10 {
		t.Errorf("expected length 10, got %d", l)
	}
}

func TestInMemoryQueue_FIFOOrder(t *testing.T) {
	q := NewInMemoryQueue()
	const total = 3*compactThreshold + 17

	// interleave so the head crosses the compaction threshold several times
	next := 0
	for i := 0; i < total; i++ {
		q.Enqueue(footprint(i))
		if i%3 == 2 {
			item, ok := q.Dequeue()
			if !ok || item.ID != fmt.Sprintf("b%d", next) {
				t.Fatalf("expected b%d, got %v (ok=%v)", next, item.ID, ok)
			}
			next++
		}
	}
	for {
		item, ok := q.Dequeue()
		if !ok {
			break
		}
		if item.ID != fmt.Sprintf("b%d", next) {
			t.Fatalf("expected b%d, got %v", next, item.ID)
		}
		next++
	}

	if next != total {
		t.Errorf("expected %d items, got %d", total, next)
	}
	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue()
	numGoroutines := 10
	numItems := 100

	var wg sync.WaitGroup
	for g := 0; g < numGoroutines; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numItems; j++ {
				q.Enqueue(footprint(id*numItems + j))
			}
		}(g)
	}
	wg.Wait()

	if l := q.Len(); l != numGoroutines*numItems {
		t.Errorf("expected length %d, got %d", numGoroutines*numItems, l)
	}

	seen := make(map[string]bool)
	for {
		item, ok := q.Dequeue()
		if !ok {
			break
		}
		if seen[item.ID] {
			t.Errorf("item %s dequeued twice", item.ID)
		}
		seen[item.ID] = true
	}
	if len(seen) != numGoroutines*numItems {
		t.Errorf("expected %d distinct items, got %d", numGoroutines*numItems, len(seen))
	}
}
