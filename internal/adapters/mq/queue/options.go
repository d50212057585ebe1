package queue

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithInitialCapacity preallocates room for capacity items. The queue still
// grows past it.
func WithInitialCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.initialCapacity = capacity
		}
	}
}
