// Package cache provides SnapshotCache implementations.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MemoryCache is an in-process LRU cache with per-item TTL
type MemoryCache struct {
	mu       sync.Mutex
	items    map[string]*entry
	lru      *list.List
	maxItems int
	now      func() time.Time

	hits   int64
	misses int64

	logger *zap.Logger
}

type entry struct {
	key     string
	value   []byte
	expiry  time.Time
	element *list.Element
}

// Stats reports hit and miss counts
type Stats struct {
	Items  int
	Hits   int64
	Misses int64
}

// NewMemoryCache creates a cache holding at most maxItems entries
func NewMemoryCache(maxItems int, logger *zap.Logger) *MemoryCache {
	if maxItems <= 0 {
		maxItems = 128
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryCache{
		items:    make(map[string]*entry),
		lru:      list.New(),
		maxItems: maxItems,
		now:      time.Now,
		logger:   logger,
	}
}

// Get retrieves a copy of the cached value
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false, nil
	}
	if !item.expiry.IsZero() && c.now().After(item.expiry) {
		c.remove(item)
		c.misses++
		return nil, false, nil
	}

	c.lru.MoveToFront(item.element)
	c.hits++
	value := make([]byte, len(item.value))
	copy(value, item.value)
	return value, true, nil
}

// Set stores value under key. A zero ttl never expires.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.items[key]; ok {
		c.remove(existing)
	}
	for len(c.items) >= c.maxItems && c.lru.Len() > 0 {
		oldest := c.lru.Back().Value.(*entry)
		c.logger.Debug("Evicting cache entry", zap.String("key", oldest.key))
		c.remove(oldest)
	}

	item := &entry{key: key, value: make([]byte, len(value))}
	copy(item.value, value)
	if ttl > 0 {
		item.expiry = c.now().Add(ttl)
	}
	item.element = c.lru.PushFront(item)
	c.items[key] = item
	return nil
}

// Delete removes key from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if item, ok := c.items[key]; ok {
		c.remove(item)
	}
	return nil
}

// Stats returns cache statistics
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Items: len(c.items), Hits: c.hits, Misses: c.misses}
}

// remove must be called with the lock held
func (c *MemoryCache) remove(item *entry) {
	c.lru.Remove(item.element)
	delete(c.items, item.key)
}
