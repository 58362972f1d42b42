// Package cache is a typed in-memory TTL cache.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory caches values of type V with per-entry expiry.
type Memory[V any] struct {
	c *gocache.Cache
}

// New creates a cache whose entries expire after defaultTTL unless Set with
// another TTL. Expired entries are purged every cleanupInterval.
func New[V any](defaultTTL, cleanupInterval time.Duration) *Memory[V] {
	return &Memory[V]{c: gocache.New(defaultTTL, cleanupInterval)}
}

func (m *Memory[V]) Get(key string) (V, bool) {
	if val, found := m.c.Get(key); found {
		if v, ok := val.(V); ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// Set stores value. A ttl of zero uses the cache default.
func (m *Memory[V]) Set(key string, value V, ttl time.Duration) {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	m.c.Set(key, value, ttl)
}

// GetOrCreate returns the cached value for key, storing create() when
// absent. Concurrent callers for the same key all observe the first value
// stored.
func (m *Memory[V]) GetOrCreate(key string, ttl time.Duration, create func() V) V {
	if v, ok := m.Get(key); ok {
		return v
	}
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	v := create()
	if err := m.c.Add(key, v, ttl); err != nil {
		if existing, ok := m.Get(key); ok {
			return existing
		}
	}
	return v
}

// Touch resets the expiry of an existing entry.
func (m *Memory[V]) Touch(key string, ttl time.Duration) {
	if v, ok := m.Get(key); ok {
		m.Set(key, v, ttl)
	}
}

func (m *Memory[V]) Len() int {
	return m.c.ItemCount()
}
