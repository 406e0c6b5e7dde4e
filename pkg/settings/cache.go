// Package settings provides the platform settings store and its
// TTL-based read cache.
//
// The cache is an explicit object passed to collaborators that need
// it; there is no package-level singleton. Reads serve the cached
// value until its TTL lapses; every write invalidates the key
// immediately so the next read recomputes. Invalidation is idempotent,
// so concurrent writers racing to clear are safe.
package settings

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/campushub/campushub/pkg/observability"
)

// DefaultTTL matches the original five-minute settings cache window.
const DefaultTTL = 5 * time.Minute

const cacheSize = 256

// Cache is a read-through TTL cache over a settings Store.
type Cache struct {
	store   Store
	lru     *expirable.LRU[string, string]
	metrics *observability.Metrics
}

// NewCache creates a settings cache. A zero ttl uses DefaultTTL.
// metrics may be nil.
func NewCache(store Store, ttl time.Duration, metrics *observability.Metrics) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		store:   store,
		lru:     expirable.NewLRU[string, string](cacheSize, nil, ttl),
		metrics: metrics,
	}
}

// Get returns the value for a key, from cache when fresh.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	if value, ok := c.lru.Get(key); ok {
		c.countHit(true)
		return value, nil
	}
	c.countHit(false)

	value, err := c.store.Get(ctx, key)
	if err != nil {
		return "", err
	}

	c.lru.Add(key, value)
	return value, nil
}

// GetDefault returns the value for a key, or the fallback when the
// key is absent or the store fails.
func (c *Cache) GetDefault(ctx context.Context, key, fallback string) string {
	value, err := c.Get(ctx, key)
	if err != nil {
		return fallback
	}
	return value
}

// Set writes through to the store and invalidates the cached key so
// the next read observes the new value.
func (c *Cache) Set(ctx context.Context, key, value string) error {
	if err := c.store.Set(ctx, key, value); err != nil {
		return err
	}
	c.Invalidate(key)
	return nil
}

// Invalidate drops a key from the cache. Clearing an absent key is a
// no-op.
func (c *Cache) Invalidate(key string) {
	c.lru.Remove(key)
}

func (c *Cache) countHit(hit bool) {
	if c.metrics == nil {
		return
	}
	if hit {
		c.metrics.CacheHitsTotal.Inc()
	} else {
		c.metrics.CacheMissesTotal.Inc()
	}
}
