package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// FlushFunc receives a coalesced batch
type FlushFunc[T any] func(batch []T)

// TimerDebouncer is the wall-clock variant of Debouncer. Every Push stops
// the pending timer before scheduling a new one, so a burst produces exactly
// one flush after the last item.
type TimerDebouncer[T any] struct {
	window  time.Duration
	flushFn FlushFunc[T]

	mu      sync.Mutex
	pending []T
	timer   *time.Timer
	stopped bool

	flushes int64
	logger  *zap.Logger
}

// NewTimerDebouncer creates a timer-backed debouncer
func NewTimerDebouncer[T any](window time.Duration, flushFn FlushFunc[T], logger *zap.Logger) *TimerDebouncer[T] {
	if window <= 0 {
		window = 100 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimerDebouncer[T]{
		window:  window,
		flushFn: flushFn,
		logger:  logger,
	}
}

// Push enqueues item and restarts the quiet window
func (d *TimerDebouncer[T]) Push(item T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.pending = append(d.pending, item)
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// Flush runs the pending batch immediately
func (d *TimerDebouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	d.flush()
}

// Stop cancels the pending timer and drops queued items
func (d *TimerDebouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
}

// Flushes returns how many batches have been delivered
func (d *TimerDebouncer[T]) Flushes() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flushes
}

func (d *TimerDebouncer[T]) flush() {
	d.mu.Lock()
	if d.stopped || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	batch := d.pending
	d.pending = nil
	d.timer = nil
	d.flushes++
	d.mu.Unlock()

	d.logger.Debug("Flushing debounced batch", zap.Int("batchSize", len(batch)))
	d.flushFn(batch)
}
