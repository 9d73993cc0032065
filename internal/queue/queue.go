// Package queue provides the in-process webhook event queue
package queue

import (
	"context"
	"sync"
	"time"
)

// Event is a webhook delivery accepted for asynchronous processing. The
// dispatcher owns an event for the duration of a processing attempt and
// records attempt state on it.
type Event struct {
	ID           string
	AccountID    string
	Payload      []byte
	EnqueuedAt   time.Time
	AttemptCount int
	LastError    string
}

// Queue is a bounded FIFO shared by the webhook receiver (producer) and the
// dispatcher (consumer). Enqueue wakes a blocked consumer immediately, so
// dispatch latency is not tied to a poll interval. Queue contents live only
// for the process lifetime; the scheduled sync loop is the convergence
// backstop if events are lost on restart.
type Queue struct {
	mu       sync.Mutex
	items    []*Event
	capacity int
	notify   chan struct{}
}

// New creates a queue holding at most capacity events
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Queue{
		capacity: capacity,
		notify:   make(chan struct{}, 1),
	}
}

// TryEnqueue appends an event, reporting false when the queue is full
func (q *Queue) TryEnqueue(ev *Event) bool {
	if ev == nil {
		return false
	}

	q.mu.Lock()
	if len(q.items) >= q.capacity {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, ev)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// Dequeue removes the oldest event, blocking until one is available or the
// context is done.
func (q *Queue) Dequeue(ctx context.Context) (*Event, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			ev := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return ev, true
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, false
		case <-q.notify:
		}
	}
}

// Depth returns the number of queued events
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Capacity returns the maximum number of queued events
func (q *Queue) Capacity() int {
	return q.capacity
}

// Snapshot returns a copy of the queued events, oldest first
func (q *Queue) Snapshot() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Event, 0, len(q.items))
	for _, ev := range q.items {
		out = append(out, *ev)
	}
	return out
}
