package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"kgview/domain/core/valueobjects"
	"kgview/domain/events"
	pkgerrors "kgview/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBus struct {
	calls  [][]types.PutEventsRequestEntry
	err    error
	failed int32
}

func (f *fakeBus) PutEvents(ctx context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, in.Entries)
	out := &eventbridge.PutEventsOutput{FailedEntryCount: f.failed}
	for i := range in.Entries {
		entry := types.PutEventsResultEntry{EventId: aws.String("id")}
		if int32(i) < f.failed {
			entry.ErrorCode = aws.String("InternalFailure")
			entry.ErrorMessage = aws.String("boom")
		}
		out.Entries = append(out.Entries, entry)
	}
	return out, nil
}

var at = time.Unix(1700000000, 0)

func TestPublisherBatchesAndFilters(t *testing.T) {
	bus := &fakeBus{}
	p := NewPublisher(bus, "kgview-bus", nil)

	batch := []events.DomainEvent{events.NewNodeHovered("s", "a", at)}
	for i := 0; i < 12; i++ {
		batch = append(batch, events.NewNodeSelected("s", valueobjects.NodeID("n"), nil, at))
	}
	batch = append(batch,
		events.NewNodeDragMoved("s", "a", valueobjects.Position{X: 0.1}, at),
		events.NewSnapshotLoaded("s", 3, 2, false, nil, at),
	)

	require.NoError(t, p.PublishBatch(context.Background(), batch))
	require.Len(t, bus.calls, 2)
	assert.Len(t, bus.calls[0], 10)
	assert.Len(t, bus.calls[1], 3)

	first := bus.calls[0][0]
	assert.Equal(t, "kgview-bus", aws.ToString(first.EventBusName))
	assert.Equal(t, events.TypeNodeSelected, aws.ToString(first.DetailType))
	assert.Equal(t, events.SourceSession, aws.ToString(first.Source))
	assert.Equal(t, []string{"kgview:session:s"}, first.Resources)

	var detail map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(first.Detail)), &detail))
	assert.Equal(t, "n", detail["node_id"])

	last := bus.calls[1][2]
	assert.Equal(t, events.TypeSnapshotLoaded, aws.ToString(last.DetailType))
	assert.Equal(t, events.SourceLoader, aws.ToString(last.Source))
}

func TestPublisherCustomFilter(t *testing.T) {
	bus := &fakeBus{}
	p := NewPublisher(bus, "bus", nil).WithFilter(func(events.DomainEvent) bool { return true })

	require.NoError(t, p.Publish(context.Background(), events.NewNodeHovered("s", "a", at)))
	require.Len(t, bus.calls, 1)

	bus.calls = nil
	require.NoError(t, NewPublisher(bus, "bus", nil).Publish(context.Background(), events.NewNodeHovered("s", "a", at)))
	assert.Empty(t, bus.calls)
}

func TestPublisherErrors(t *testing.T) {
	tests := []struct {
		name string
		bus  *fakeBus
	}{
		{"transport", &fakeBus{err: errors.New("connection reset")}},
		{"failed entries", &fakeBus{failed: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewPublisher(tt.bus, "bus", nil).Publish(context.Background(), events.NewHighlightCleared("s", at))
			require.Error(t, err)
			assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeExternal))
		})
	}
}
