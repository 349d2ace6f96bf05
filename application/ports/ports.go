package ports

import (
	"context"
	"time"

	"kgview/domain/events"
	"kgview/domain/snapshot"
)

// SnapshotSource is the knowledge store boundary. Implementations return a
// validation error when the store answered with an undecodable body, and any
// other error when the store could not be reached.
type SnapshotSource interface {
	// Fetch returns the full snapshot
	Fetch(ctx context.Context) (*snapshot.Snapshot, error)

	// Query returns the snapshot restricted by a free text query
	Query(ctx context.Context, text string) (*snapshot.Snapshot, error)
}

// SnapshotCache stores encoded snapshots keyed by query
type SnapshotCache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value in cache with a TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// EventStream lets the HTTP layer follow the events of one session
type EventStream interface {
	// Subscribe returns a channel of events for aggregateID and a cancel func
	Subscribe(aggregateID string) (<-chan events.DomainEvent, func())

	// Close ends every subscription of aggregateID
	Close(aggregateID string)
}

// Metrics records engine activity
type Metrics interface {
	ObserveTick(d time.Duration)
	IncLayoutSteps()
	IncRebuilds(reason string)
	AddInferencePairs(n int)
	AddGeneratedEdges(n int)
	IncSnapshotLoads(outcome string)
	SetLiveSessions(n int)
}

// NoopMetrics discards every observation
type NoopMetrics struct{}

func (NoopMetrics) ObserveTick(time.Duration) {}
func (NoopMetrics) IncLayoutSteps()           {}
func (NoopMetrics) IncRebuilds(string)        {}
func (NoopMetrics) AddInferencePairs(int)     {}
func (NoopMetrics) AddGeneratedEdges(int)     {}
func (NoopMetrics) IncSnapshotLoads(string)   {}
func (NoopMetrics) SetLiveSessions(int)       {}
