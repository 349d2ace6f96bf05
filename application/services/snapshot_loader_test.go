package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"kgview/domain/snapshot"
	pkgerrors "kgview/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	calls   int32
	snap    *snapshot.Snapshot
	err     error
	gate    chan struct{}
	queries []string
	mu      sync.Mutex
}

func (f *fakeSource) Fetch(ctx context.Context) (*snapshot.Snapshot, error) {
	return f.Query(ctx, "")
}

func (f *fakeSource) Query(ctx context.Context, text string) (*snapshot.Snapshot, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.queries = append(f.queries, text)
	f.mu.Unlock()
	if f.gate != nil {
		<-f.gate
	}
	return f.snap, f.err
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string][]byte)} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func twoNodeSnapshot() *snapshot.Snapshot {
	snap, _ := snapshot.Decode([]byte(`{
		"nodes": [
			{"id": "a", "label": "Graph databases", "content": "Graph databases store nodes and edges."},
			{"id": "b", "label": "Query planning", "content": "Query planning picks join orders."}
		],
		"links": [{"source": "a", "target": "b"}]
	}`))
	return snap
}

func TestSnapshotLoaderLoad(t *testing.T) {
	tests := []struct {
		name        string
		source      *fakeSource
		nilSource   bool
		wantOrigin  string
		wantNodes   int
		wantErrFunc func(error) bool
	}{
		{
			name:       "store snapshot",
			source:     &fakeSource{snap: twoNodeSnapshot()},
			wantOrigin: OriginStore,
			wantNodes:  2,
		},
		{
			name:       "empty snapshot falls back",
			source:     &fakeSource{snap: &snapshot.Snapshot{}},
			wantOrigin: OriginFallback,
			wantNodes:  len(snapshot.FallbackSample().Nodes),
		},
		{
			name:       "malformed response falls back",
			source:     &fakeSource{err: pkgerrors.NewValidationError("malformed snapshot")},
			wantOrigin: OriginFallback,
			wantNodes:  len(snapshot.FallbackSample().Nodes),
		},
		{
			name:       "no source configured",
			nilSource:  true,
			wantOrigin: OriginFallback,
			wantNodes:  len(snapshot.FallbackSample().Nodes),
		},
		{
			name:        "store unreachable",
			source:      &fakeSource{err: errors.New("connection refused")},
			wantErrFunc: pkgerrors.IsUnavailable,
		},
		{
			name: "oversized response is reported",
			source: &fakeSource{err: pkgerrors.NewExternalError("knowledge store", errors.New("too large")).
				WithCode("SNAPSHOT_TOO_LARGE")},
			wantErrFunc: func(err error) bool {
				return pkgerrors.IsType(err, pkgerrors.ErrorTypeExternal) && !pkgerrors.Retryable(err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var loader *SnapshotLoader
			if tt.nilSource {
				loader = NewSnapshotLoader(nil, nil, 0, nil, nil, nil)
			} else {
				loader = NewSnapshotLoader(tt.source, nil, 0, nil, nil, nil)
			}

			result, err := loader.Load(context.Background(), "")
			if tt.wantErrFunc != nil {
				require.Error(t, err)
				assert.True(t, tt.wantErrFunc(err))
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOrigin, result.Origin)
			assert.Equal(t, tt.wantNodes, result.Graph.NodeCount())
			assert.Equal(t, tt.wantOrigin == OriginFallback, result.Report.UsedFallback)
		})
	}
}

func TestSnapshotLoaderUsesCache(t *testing.T) {
	source := &fakeSource{snap: twoNodeSnapshot()}
	cache := newMapCache()
	loader := NewSnapshotLoader(source, cache, time.Minute, nil, nil, nil)

	first, err := loader.Load(context.Background(), "Graphs")
	require.NoError(t, err)
	assert.Equal(t, OriginStore, first.Origin)

	second, err := loader.Load(context.Background(), " graphs ")
	require.NoError(t, err)
	assert.Equal(t, OriginCache, second.Origin)
	assert.Equal(t, int32(1), atomic.LoadInt32(&source.calls))
	assert.Equal(t, []string{"Graphs"}, source.queries)

	// Separate graphs per load
	assert.NotSame(t, first.Graph, second.Graph)

	loader.Invalidate(context.Background(), "graphs")
	_, err = loader.Load(context.Background(), "graphs")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&source.calls))
}

func TestSnapshotLoaderCoalescesConcurrentLoads(t *testing.T) {
	source := &fakeSource{snap: twoNodeSnapshot(), gate: make(chan struct{})}
	loader := NewSnapshotLoader(source, nil, 0, nil, nil, nil)

	const callers = 5
	var wg sync.WaitGroup
	results := make([]*LoadResult, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := loader.Load(context.Background(), "")
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&source.calls) == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(source.gate)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&source.calls))
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, 2, r.Graph.NodeCount())
	}
}
