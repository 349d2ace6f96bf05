package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"kgview/application/ports"
	pkgerrors "kgview/pkg/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.SnapshotCache = (*MemoryCache)(nil)
	_ ports.SnapshotCache = (*RedisCache)(nil)
)

func setupRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisCache(RedisOptions{URL: fmt.Sprintf("redis://%s", mr.Addr())}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCachesBasicOperations(t *testing.T) {
	redisCache, _ := setupRedis(t)
	caches := map[string]ports.SnapshotCache{
		"memory": NewMemoryCache(4, nil),
		"redis":  redisCache,
	}

	for name, c := range caches {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := c.Get(ctx, "snapshot:all")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, c.Set(ctx, "snapshot:all", []byte(`{"nodes":[]}`), time.Minute))
			got, ok, err := c.Get(ctx, "snapshot:all")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `{"nodes":[]}`, string(got))

			require.NoError(t, c.Delete(ctx, "snapshot:all"))
			_, ok, err = c.Get(ctx, "snapshot:all")
			require.NoError(t, err)
			assert.False(t, ok)

			assert.NoError(t, c.Delete(ctx, "missing"))
		})
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(4, nil)
	now := time.Unix(1700000000, 0)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("a"), time.Second))
	require.NoError(t, c.Set(ctx, "forever", []byte("b"), 0))

	now = now.Add(2 * time.Second)
	_, ok, _ := c.Get(ctx, "short")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "forever")
	assert.True(t, ok)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Items)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewMemoryCache(2, nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	_, _, _ = c.Get(ctx, "a")
	require.NoError(t, c.Set(ctx, "c", []byte("3"), 0))

	_, ok, _ := c.Get(ctx, "b")
	assert.False(t, ok, "b was least recently used")
	_, ok, _ = c.Get(ctx, "a")
	assert.True(t, ok)
	_, ok, _ = c.Get(ctx, "c")
	assert.True(t, ok)
}

func TestMemoryCacheReturnsCopies(t *testing.T) {
	c := NewMemoryCache(2, nil)
	ctx := context.Background()
	value := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", value, 0))
	value[0] = 'x'

	got, _, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(got))
	got[1] = 'y'
	again, _, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestRedisCacheTTLAndPrefix(t *testing.T) {
	c, mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "snapshot:q:bfs", []byte("x"), 30*time.Second))
	assert.True(t, mr.Exists("kgview:snapshot:q:bfs"))
	assert.Equal(t, 30*time.Second, mr.TTL("kgview:snapshot:q:bfs"))

	mr.FastForward(31 * time.Second)
	_, ok, err := c.Get(ctx, "snapshot:q:bfs")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheUnavailable(t *testing.T) {
	c, mr := setupRedis(t)
	mr.Close()

	_, _, err := c.Get(context.Background(), "k")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsUnavailable(err))
}

func TestNewRedisCacheBadURL(t *testing.T) {
	_, err := NewRedisCache(RedisOptions{URL: "://nope"}, nil)
	assert.Error(t, err)
}
