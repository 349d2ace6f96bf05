package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"kgview/domain/events"
	pkgerrors "kgview/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerLifecycle(t *testing.T) {
	f := newFixture(threeNodeSnapshot())
	m := NewManager(f.deps)
	ctx := context.Background()

	s, err := m.Create(ctx, Options{})
	require.NoError(t, err)
	_, err = uuid.Parse(s.ID())
	assert.NoError(t, err)

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	other, err := m.Create(ctx, Options{})
	require.NoError(t, err)
	assert.NotEqual(t, s.ID(), other.ID())
	assert.Len(t, m.List(), 2)

	require.NoError(t, m.Close(s.ID()))
	_, err = m.Get(s.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.True(t, pkgerrors.IsNotFound(m.Close(s.ID())))

	m.CloseAll()
	assert.Empty(t, m.List())
	_, err = other.Tick(ctx, time.Now())
	assert.ErrorIs(t, err, ErrClosed)
}

type closingStream struct {
	mu     sync.Mutex
	closed []string
}

func (c *closingStream) Subscribe(string) (<-chan events.DomainEvent, func()) {
	ch := make(chan events.DomainEvent)
	return ch, func() {}
}

func (c *closingStream) Close(aggregateID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = append(c.closed, aggregateID)
}

func (c *closingStream) ids() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := append([]string(nil), c.closed...)
	sort.Strings(out)
	return out
}

func TestManagerClosesEventStreams(t *testing.T) {
	tests := []struct {
		name     string
		teardown func(t *testing.T, m *Manager, ids []string)
		want     func(ids []string) []string
	}{
		{
			name: "close one",
			teardown: func(t *testing.T, m *Manager, ids []string) {
				require.NoError(t, m.Close(ids[0]))
			},
			want: func(ids []string) []string { return ids[:1] },
		},
		{
			name: "close unknown session",
			teardown: func(t *testing.T, m *Manager, ids []string) {
				assert.True(t, pkgerrors.IsNotFound(m.Close("missing")))
			},
			want: func(ids []string) []string { return nil },
		},
		{
			name:     "close all",
			teardown: func(t *testing.T, m *Manager, ids []string) { m.CloseAll() },
			want:     func(ids []string) []string { return ids },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(threeNodeSnapshot())
			stream := &closingStream{}
			f.deps.Streams = stream
			m := NewManager(f.deps)

			var ids []string
			for i := 0; i < 2; i++ {
				s, err := m.Create(context.Background(), Options{})
				require.NoError(t, err)
				ids = append(ids, s.ID())
			}
			sort.Strings(ids)

			tt.teardown(t, m, ids)
			want := tt.want(ids)
			if want == nil {
				assert.Empty(t, stream.ids())
				return
			}
			assert.Equal(t, want, stream.ids())
		})
	}
}

func TestManagerCreateKeepsFailedSession(t *testing.T) {
	f := newFixture(nil)
	f.source.set(nil, errors.New("dial tcp: refused"))
	m := NewManager(f.deps)

	s, err := m.Create(context.Background(), Options{})
	require.Error(t, err)
	require.NotNil(t, s)

	state, _ := s.State()
	assert.Equal(t, StateError, state)
	_, err = m.Get(s.ID())
	assert.NoError(t, err)
}

func TestManagerRunTicksSessions(t *testing.T) {
	f := newFixture(threeNodeSnapshot())
	f.deps.Clock = time.Now
	m := NewManager(f.deps)

	s, err := m.Create(context.Background(), Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return s.Frame().Sequence >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestManagerReconfigureAll(t *testing.T) {
	f := newFixture(threeNodeSnapshot())
	m := NewManager(f.deps)
	ctx := context.Background()

	a, err := m.Create(ctx, Options{})
	require.NoError(t, err)
	b, err := m.Create(ctx, Options{})
	require.NoError(t, err)

	req := ReconfigureRequest{Params: a.Info().Params}
	req.Params.Planar.Charge = 120
	m.ReconfigureAll(req, f.now)
	m.TickAll(ctx, f.now.Add(time.Second))

	for _, s := range []*Session{a, b} {
		_, params := s.Params()
		assert.Equal(t, 120.0, params.Planar.Charge)
		assert.Equal(t, 2, s.Rebuilds())
	}
}
