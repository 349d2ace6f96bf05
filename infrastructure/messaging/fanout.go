package messaging

import (
	"context"
	"errors"

	"kgview/application/ports"
	"kgview/domain/events"
)

// FanOut publishes every event to each of its publishers. All publishers are
// tried; their errors are joined.
type FanOut []ports.EventPublisher

// Publish sends event to every publisher
func (f FanOut) Publish(ctx context.Context, event events.DomainEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishBatch sends batch to every publisher
func (f FanOut) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishBatch(ctx, batch); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
