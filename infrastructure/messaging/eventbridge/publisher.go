// Package eventbridge forwards session events to an AWS EventBridge bus.
package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"kgview/domain/events"
	pkgerrors "kgview/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"
)

// EventBridge limits PutEvents to 10 entries
const batchSize = 10

// PutEventsAPI is the subset of the EventBridge client the publisher uses
type PutEventsAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// Publisher implements the EventPublisher port using AWS EventBridge
type Publisher struct {
	client       PutEventsAPI
	eventBusName string
	forward      func(events.DomainEvent) bool
	logger       *zap.Logger
}

// NewPublisher creates a publisher for eventBusName. Pointer-motion events
// (hover changes and drag moves) are not forwarded.
func NewPublisher(client PutEventsAPI, eventBusName string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
		forward:      DefaultFilter,
		logger:       logger,
	}
}

// DefaultFilter drops high frequency pointer events
func DefaultFilter(event events.DomainEvent) bool {
	switch event.GetEventType() {
	case events.TypeNodeHovered, events.TypeNodeDragMoved:
		return false
	}
	return true
}

// WithFilter replaces the forwarding filter
func (p *Publisher) WithFilter(forward func(events.DomainEvent) bool) *Publisher {
	p.forward = forward
	return p
}

// Publish sends a single event
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch sends events in chunks of ten
func (p *Publisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	selected := make([]events.DomainEvent, 0, len(batch))
	for _, event := range batch {
		if p.forward == nil || p.forward(event) {
			selected = append(selected, event)
		}
	}

	for i := 0; i < len(selected); i += batchSize {
		end := i + batchSize
		if end > len(selected) {
			end = len(selected)
		}
		if err := p.publishBatch(ctx, selected[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) publishBatch(ctx context.Context, batch []events.DomainEvent) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(batch))
	for _, event := range batch {
		detail, err := json.Marshal(event)
		if err != nil {
			p.logger.Error("Failed to marshal event",
				zap.Error(err),
				zap.String("eventType", event.GetEventType()),
			)
			continue
		}

		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.eventBusName),
			Source:       aws.String(sourceOf(event)),
			DetailType:   aws.String(event.GetEventType()),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(event.GetTimestamp()),
			Resources:    []string{fmt.Sprintf("kgview:session:%s", event.GetAggregateID())},
		})
	}
	if len(entries) == 0 {
		return nil
	}

	result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		return pkgerrors.NewExternalError("eventbridge", err)
	}

	if result.FailedEntryCount > 0 {
		for i, entry := range result.Entries {
			if entry.ErrorCode != nil && i < len(batch) {
				p.logger.Error("Failed to publish event",
					zap.String("eventType", batch[i].GetEventType()),
					zap.String("errorCode", aws.ToString(entry.ErrorCode)),
					zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
				)
			}
		}
		return pkgerrors.NewExternalError("eventbridge", fmt.Errorf("%d events failed to publish", result.FailedEntryCount))
	}

	p.logger.Debug("Events published to EventBridge",
		zap.Int("count", len(entries)),
		zap.String("eventBus", p.eventBusName),
	)
	return nil
}

func sourceOf(event events.DomainEvent) string {
	if strings.HasPrefix(event.GetEventType(), "snapshot.") {
		return events.SourceLoader
	}
	return events.SourceSession
}
