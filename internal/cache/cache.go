// Package cache provides the four named LRU+TTL caches of the formulation
// core (ingredient, density, cost, fdc), each a thin wrapper over
// hashicorp/golang-lru's expirable LRU recording hit/miss counters on the
// shared metrics registry.
package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/dparitosh/recipe-organizer-sub000/pkg/metrics"
)

// Cache[K,V] wraps an expirable LRU with named hit/miss counters.
type Cache[K comparable, V any] struct {
	name string
	lru  *lru.LRU[K, V]
	hits *metrics.Counter
	miss *metrics.Counter
}

// New constructs a cache with the given max entries and TTL, registering its
// hit/miss counters under the given name.
func New[K comparable, V any](reg *metrics.Registry, name string, maxEntries int, ttl time.Duration) *Cache[K, V] {
	c := &Cache[K, V]{
		name: name,
		lru:  lru.NewLRU[K, V](maxEntries, nil, ttl),
	}
	if reg != nil {
		c.hits = reg.Counter(metrics.WithLabels("cache_hits_total", "cache_name", name), "cache hits by cache name")
		c.miss = reg.Counter(metrics.WithLabels("cache_misses_total", "cache_name", name), "cache misses by cache name")
	}
	return c
}

// Get returns the cached value and records a hit or miss.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		if c.hits != nil {
			c.hits.Inc()
		}
	} else if c.miss != nil {
		c.miss.Inc()
	}
	return v, ok
}

// Set stores a value, overwriting any existing entry and resetting its TTL.
func (c *Cache[K, V]) Set(key K, val V) {
	c.lru.Add(key, val)
}

// Len returns the current number of live entries.
func (c *Cache[K, V]) Len() int { return c.lru.Len() }

// GetOrLoad returns the cached value, or calls load, caches, and returns its
// result on a miss. load errors are not cached.
func (c *Cache[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(key, v)
	return v, nil
}
