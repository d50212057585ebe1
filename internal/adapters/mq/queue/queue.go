// Package queue holds footprints waiting for an idle compute unit.
//
// The pending queue is unbounded and strictly first-in first-out: the pool
// size bounds concurrency, the queue absorbs the difference between the
// source rate and the compute rate.
package queue

import (
	"sync"

	"github.com/danielesteban/nyc/internal/domain/model"
	"github.com/danielesteban/nyc/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultInitialCapacity = 1024
	// compactThreshold is the number of consumed slots after which the
	// backing slice is compacted.
	compactThreshold = 4096
)

// Item is the payload type waiting in the queue.
type Item = model.Footprint

// Queue provides FIFO storage for footprints that could not be dispatched.
type Queue interface {
	// Enqueue appends an item at the tail.
	Enqueue(item Item)

	// Dequeue removes the head item. ok is false when the queue is empty.
	Dequeue() (item Item, ok bool)

	// Len returns the current number of queued items.
	Len() int
}

// InMemoryQueue implements Queue on a slice with a moving head.
type InMemoryQueue struct {
	mu              sync.Mutex
	items           []Item
	head            int
	initialCapacity int
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		initialCapacity: defaultInitialCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.items = make([]Item, 0, q.initialCapacity)
	metrics.UpdatePendingSize(0)

	return q
}

// Enqueue appends an item at the tail. It never blocks and never drops.
func (q *InMemoryQueue) Enqueue(item Item) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, item)
	metrics.RecordPendingEnqueue()
	metrics.UpdatePendingSize(len(q.items) - q.head)
}

// Dequeue removes and returns the oldest item.
func (q *InMemoryQueue) Dequeue() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head == len(q.items) {
		return Item{}, false
	}

	item := q.items[q.head]
	q.items[q.head] = Item{}
	q.head++

	switch {
	case q.head == len(q.items):
		q.items = q.items[:0]
		q.head = 0
	case q.head >= compactThreshold && q.head*2 >= len(q.items):
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}

	metrics.RecordPendingDequeue()
	metrics.UpdatePendingSize(len(q.items) - q.head)
	return item, true
}

// Len returns the current number of queued items.
func (q *InMemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}
