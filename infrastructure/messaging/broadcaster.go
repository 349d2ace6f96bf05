// Package messaging delivers session events to in-process subscribers and
// external buses.
package messaging

import (
	"context"
	"sync"
	"sync/atomic"

	"kgview/domain/events"

	"go.uber.org/zap"
)

const defaultBuffer = 64

type subscription struct {
	ch     chan events.DomainEvent
	closed bool
}

// Broadcaster fans session events out to subscribers of that session.
// Delivery never blocks the publisher; a full subscriber drops the event.
type Broadcaster struct {
	mu      sync.RWMutex
	subs    map[string]map[*subscription]struct{}
	buffer  int
	dropped atomic.Int64
	logger  *zap.Logger
}

// NewBroadcaster creates a broadcaster with per-subscriber buffers of size buffer
func NewBroadcaster(buffer int, logger *zap.Logger) *Broadcaster {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{
		subs:   make(map[string]map[*subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe follows the events of one session. The returned func
// unsubscribes and closes the channel; calling it twice is safe.
func (b *Broadcaster) Subscribe(aggregateID string) (<-chan events.DomainEvent, func()) {
	sub := &subscription{ch: make(chan events.DomainEvent, b.buffer)}

	b.mu.Lock()
	if b.subs[aggregateID] == nil {
		b.subs[aggregateID] = make(map[*subscription]struct{})
	}
	b.subs[aggregateID][sub] = struct{}{}
	b.mu.Unlock()

	b.logger.Debug("Event subscriber added", zap.String("aggregate_id", aggregateID))

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub.closed {
			return
		}
		sub.closed = true
		delete(b.subs[aggregateID], sub)
		if len(b.subs[aggregateID]) == 0 {
			delete(b.subs, aggregateID)
		}
		close(sub.ch)
	}
	return sub.ch, cancel
}

// Publish delivers event to every subscriber of its session
func (b *Broadcaster) Publish(ctx context.Context, event events.DomainEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs[event.GetAggregateID()] {
		select {
		case sub.ch <- event:
		default:
			b.dropped.Add(1)
			b.logger.Warn("Dropping event for slow subscriber",
				zap.String("event_type", event.GetEventType()),
				zap.String("aggregate_id", event.GetAggregateID()),
			)
		}
	}
	return nil
}

// PublishBatch delivers events in order
func (b *Broadcaster) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	for _, event := range batch {
		if err := b.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// Dropped returns the number of events dropped for slow subscribers
func (b *Broadcaster) Dropped() int64 {
	return b.dropped.Load()
}

// SubscriberCount returns the number of subscribers for aggregateID
func (b *Broadcaster) SubscriberCount(aggregateID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[aggregateID])
}

// Close closes every subscription of aggregateID. Cancel funcs handed out
// earlier become no-ops.
func (b *Broadcaster) Close(aggregateID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs[aggregateID] {
		sub.closed = true
		close(sub.ch)
	}
	delete(b.subs, aggregateID)
	b.logger.Debug("Event subscribers closed", zap.String("aggregate_id", aggregateID))
}
