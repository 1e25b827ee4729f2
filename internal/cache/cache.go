package cache

import (
	"sync"
	"time"
)

type CacheItem[V any] struct {
	Value     V
	ExpiresAt time.Time // zero means no expiry
}

// Cache is a small keyed memo with optional per-item TTL. Expired entries
// are dropped on access and by Cleanup.
type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[K]CacheItem[V]
	now   func() time.Time
}

// New creates a cache; ttl <= 0 keeps entries until Cleanup or Reset.
func New[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		ttl:   ttl,
		items: make(map[K]CacheItem[V]),
		now:   time.Now,
	}
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := CacheItem[V]{Value: value}
	if c.ttl > 0 {
		item.ExpiresAt = c.now().Add(c.ttl)
	}
	c.items[key] = item
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	var zero V
	if !exists {
		return zero, false
	}
	if c.expired(item) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return zero, false
	}
	return item.Value, true
}

// GetOrCreate returns the cached value for key or stores the result of
// create. Errors are not cached.
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := create()
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache[K, V]) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, item := range c.items {
		if c.expired(item) {
			delete(c.items, key)
		}
	}
}

func (c *Cache[K, V]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]CacheItem[V])
}

func (c *Cache[K, V]) expired(item CacheItem[V]) bool {
	return !item.ExpiresAt.IsZero() && c.now().After(item.ExpiresAt)
}
