// Package cache holds fetched tracker records for the duration of one
// reconciliation pass.
package cache

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// FetchFunc loads the value for a key on a cache miss.
type FetchFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Stats counts cache traffic for one pass.
type Stats struct {
	Hits    int
	Misses  int
	Fetches int
	Errors  int
}

// Cache is a keyed store owned by a single pass. Create one per load and
// drop it when the load completes; it is never shared across loads.
//
// Concurrent misses for the same key share one fetch. Failed fetches are
// not stored, so a later call retries.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]V
	stats   Stats
	group   singleflight.Group
}

// New creates an empty cache.
func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{entries: make(map[K]V)}
}

// Get returns the cached value for key without fetching.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

// Seed stores a value fetched elsewhere.
func (c *Cache[K, V]) Seed(key K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = v
}

// GetOrFetch returns the cached value for key, calling fetch only when the
// key has not been stored yet. Fetch errors are returned to the caller.
//
// A coalesced fetch runs with the ctx of the caller that started it, so
// cancelling that caller fails every waiter on the same key. Callers in one
// pass share a context, which makes this the wanted behaviour. The failure
// is not stored and the next call fetches again.
func (c *Cache[K, V]) GetOrFetch(ctx context.Context, key K, fetch FetchFunc[K, V]) (V, error) {
	c.mu.Lock()
	if v, ok := c.entries[key]; ok {
		c.stats.Hits++
		c.mu.Unlock()
		return v, nil
	}
	c.stats.Misses++
	c.mu.Unlock()

	res, err, _ := c.group.Do(fmt.Sprint(key), func() (any, error) {
		c.mu.Lock()
		if v, ok := c.entries[key]; ok {
			c.mu.Unlock()
			return v, nil
		}
		c.stats.Fetches++
		c.mu.Unlock()

		v, err := fetch(ctx, key)
		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.stats.Errors++
			return v, err
		}
		c.entries[key] = v
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Len returns the number of stored entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the traffic counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
