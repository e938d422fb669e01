// Package cache provides a bounded in-memory cache with per-entry expiry.
package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hkeats/eats/internal/metrics"
)

// Clock returns the current time.
type Clock func() time.Time

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is a size-bounded cache whose entries expire a fixed duration after
// they were stored. Expired entries are removed lazily when read; nothing
// sweeps the cache in the background.
type TTL[K comparable, V any] struct {
	name  string
	ttl   time.Duration
	now   Clock
	items *lru.Cache[K, entry[V]]
}

// Option configures a TTL cache.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock replaces time.Now.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// NewTTL creates a cache holding at most size entries for ttl each.
// name labels the cache in metrics.
func NewTTL[K comparable, V any](name string, size int, ttl time.Duration, opts ...Option) (*TTL[K, V], error) {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	items, err := lru.New[K, entry[V]](size)
	if err != nil {
		return nil, err
	}
	return &TTL[K, V]{name: name, ttl: ttl, now: o.clock, items: items}, nil
}

// Get returns the cached value for key if present and not expired.
// An expired entry is evicted before returning.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	var zero V
	e, ok := c.items.Get(key)
	if !ok {
		metrics.RecordCacheLookup(c.name, metrics.CacheMiss)
		return zero, false
	}
	if !c.now().Before(e.expiresAt) {
		c.items.Remove(key)
		metrics.RecordCacheLookup(c.name, metrics.CacheExpired)
		return zero, false
	}
	metrics.RecordCacheLookup(c.name, metrics.CacheHit)
	return e.value, true
}

// Set stores value with a fresh expiry, replacing any existing entry.
func (c *TTL[K, V]) Set(key K, value V) {
	c.items.Add(key, entry[V]{value: value, expiresAt: c.now().Add(c.ttl)})
}

// Delete removes key.
func (c *TTL[K, V]) Delete(key K) {
	c.items.Remove(key)
}

// Purge removes every entry.
func (c *TTL[K, V]) Purge() {
	c.items.Purge()
}

// Len counts stored entries, including expired ones not yet read.
func (c *TTL[K, V]) Len() int {
	return c.items.Len()
}

// TTL returns the configured lifetime.
func (c *TTL[K, V]) TTL() time.Duration { return c.ttl }
