// Package cache holds the request cache, the priority queue used in front of
// the payment gateway, and the callback idempotency stores.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache stores JSON-encoded values under a namespace and de-duplicates
// concurrent loads of the same key.
type Cache struct {
	name       string
	prefix     string
	store      Store
	defaultTTL time.Duration
	group      singleflight.Group
	metrics    *Metrics
	logger     *zap.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	coalesced atomic.Int64
}

// Option configures a Cache
type Option func(*Cache)

// WithMetrics records hit/miss counters
func WithMetrics(m *Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithLogger logs store failures
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithDefaultTTL is used when Set or Do get a non-positive ttl
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.defaultTTL = ttl }
}

// New creates a cache called name. Keys are stored as keyPrefix+name+":"+key.
func New(name, keyPrefix string, store Store, opts ...Option) *Cache {
	c := &Cache{
		name:       name,
		prefix:     keyPrefix + name + ":",
		store:      store,
		defaultTTL: 5 * time.Minute,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stats is a snapshot of the lookup counters
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Coalesced int64 `json:"coalesced"`
}

// Name returns the cache name
func (c *Cache) Name() string { return c.name }

// Stats returns the counters since creation
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Coalesced: c.coalesced.Load()}
}

// Get decodes the cached value into dst and reports whether it was found.
// Store failures count as a miss.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	raw, ok, err := c.store.Get(ctx, c.prefix+key)
	if err != nil {
		c.logger.Warn("cache get failed", zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
		ok = false
	}
	if ok {
		if err := json.Unmarshal(raw, dst); err != nil {
			c.logger.Warn("cache entry undecodable", zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
			ok = false
		}
	}
	c.record(ok)
	return ok
}

// Set stores value for ttl
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache %s: encode %s: %w", c.name, key, err)
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	return c.store.Set(ctx, c.prefix+key, raw, ttl)
}

// Delete removes the given keys
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	return c.store.Delete(ctx, full...)
}

// InvalidatePrefix removes every key of this cache starting with prefix.
// A nil cache holds nothing.
func (c *Cache) InvalidatePrefix(ctx context.Context, prefix string) (int, error) {
	if c == nil {
		return 0, nil
	}
	return c.store.DeletePrefix(ctx, c.prefix+prefix)
}

// Clear removes every key of this cache
func (c *Cache) Clear(ctx context.Context) error {
	_, err := c.store.DeletePrefix(ctx, c.prefix)
	return err
}

// Sweep drops expired entries from the underlying store
func (c *Cache) Sweep(ctx context.Context) (int, error) {
	return c.store.Sweep(ctx)
}

func (c *Cache) record(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	c.metrics.lookup(c.name, hit)
}

// Do returns the cached value for key, or runs fn once for all concurrent
// callers and caches its successful result for ttl. Errors are not cached.
//
// fn runs with a context that is not cancelled when one waiting caller gives up;
// each caller still returns as soon as its own ctx is done. A nil cache calls fn directly.
func Do[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if c == nil {
		return fn(ctx)
	}
	var cached T
	if c.Get(ctx, key, &cached) {
		return cached, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		v, err := fn(loadCtx)
		c.metrics.load(c.name, err)
		if err != nil {
			return v, err
		}
		if serr := c.Set(loadCtx, key, v, ttl); serr != nil {
			c.logger.Warn("cache set failed", zap.String("cache", c.name), zap.String("key", key), zap.Error(serr))
		}
		return v, nil
	})

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.coalesced.Add(1)
			c.metrics.shared(c.name)
		}
		v, _ := res.Val.(T)
		if res.Err != nil {
			return v, res.Err
		}
		return v, nil
	}
}
