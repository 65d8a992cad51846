// Package admission implements the bounded run-admission semaphore: a
// ticket of capacity C that every orchestration run holds for its entire
// lifetime, providing the only backpressure knob in the system.
package admission

import (
	"context"
	"errors"
	"time"

	"github.com/dparitosh/recipe-organizer-sub000/pkg/metrics"
)

// ErrTooManyRequests is returned when acquire times out waiting for a free
// ticket.
var ErrTooManyRequests = errors.New("too many requests")

// Queue is a ticket semaphore, grounded on pkg/resilience.Limiter's
// lock-protected-state style but gating concurrent run count rather than
// request rate.
type Queue struct {
	tickets chan struct{}
	length  *metrics.Gauge
}

// New constructs a queue of capacity C, registering its length gauge on reg.
func New(reg *metrics.Registry, capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	q := &Queue{tickets: make(chan struct{}, capacity)}
	if reg != nil {
		q.length = reg.Gauge("admission_queue_length", "number of runs currently holding an admission ticket")
	}
	return q
}

// Acquire blocks until a ticket is free or timeout elapses, returning a
// release function on success or ErrTooManyRequests on timeout.
func (q *Queue) Acquire(ctx context.Context, timeout time.Duration) (release func(), err error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case q.tickets <- struct{}{}:
		if q.length != nil {
			q.length.Inc()
		}
		released := false
		return func() {
			if released {
				return
			}
			released = true
			<-q.tickets
			if q.length != nil {
				q.length.Dec()
			}
		}, nil
	case <-ctx.Done():
		return nil, ErrTooManyRequests
	}
}

// Len returns the number of tickets currently held.
func (q *Queue) Len() int { return len(q.tickets) }

// Cap returns the queue's total capacity.
func (q *Queue) Cap() int { return cap(q.tickets) }
