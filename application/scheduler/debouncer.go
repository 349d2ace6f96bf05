// Package scheduler coalesces bursts of requests into single batches.
package scheduler

import (
	"time"
)

// Debouncer is an explicit queue drained by a loop. Each Push moves the
// deadline to now+window; Drain hands back the whole batch once the queue
// has been quiet for a full window. It holds no timers and is not safe for
// concurrent use.
type Debouncer[T any] struct {
	window   time.Duration
	pending  []T
	deadline time.Time
}

// NewDebouncer creates a debouncer with the given quiet window
func NewDebouncer[T any](window time.Duration) *Debouncer[T] {
	if window < 0 {
		window = 0
	}
	return &Debouncer[T]{window: window}
}

// Push enqueues item and postpones the deadline
func (d *Debouncer[T]) Push(item T, now time.Time) {
	d.pending = append(d.pending, item)
	d.deadline = now.Add(d.window)
}

// Drain returns the coalesced batch when the deadline has passed, else nil
func (d *Debouncer[T]) Drain(now time.Time) []T {
	if len(d.pending) == 0 || now.Before(d.deadline) {
		return nil
	}
	batch := d.pending
	d.pending = nil
	return batch
}

// Pending reports whether items are waiting
func (d *Debouncer[T]) Pending() bool {
	return len(d.pending) > 0
}

// Deadline returns when the current batch becomes due
func (d *Debouncer[T]) Deadline() time.Time {
	return d.deadline
}

// Cancel drops everything pending
func (d *Debouncer[T]) Cancel() {
	d.pending = nil
}

// Window returns the quiet window
func (d *Debouncer[T]) Window() time.Duration {
	return d.window
}
