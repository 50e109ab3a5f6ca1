package stream

import "sync"

// Queue is a bounded in-memory event buffer. When full, the oldest event is
// dropped so recent metrics always survive. Safe for concurrent use.
type Queue struct {
	mu      sync.Mutex
	events  []Event
	limit   int
	dropped int
}

// NewQueue creates a queue holding at most limit events.
func NewQueue(limit int) *Queue {
	if limit <= 0 {
		limit = 1024
	}
	return &Queue{limit: limit}
}

// Append adds an event, evicting the oldest when at capacity.
func (q *Queue) Append(e Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) >= q.limit {
		copy(q.events, q.events[1:])
		q.events = q.events[:len(q.events)-1]
		q.dropped++
	}
	q.events = append(q.events, e)
}

// Snapshot returns a copy of the buffered events, oldest first.
func (q *Queue) Snapshot() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Event, len(q.events))
	copy(out, q.events)
	return out
}

// Drain returns and clears the buffered events.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.events
	q.events = nil
	return out
}

// Len returns the number of buffered events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Dropped returns how many events were evicted due to capacity.
func (q *Queue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
