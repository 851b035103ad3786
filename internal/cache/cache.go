// Package cache memoizes successful fetch outcomes for a time-to-live.
package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"live-dashboard/internal/fetcher"
)

// Entry is a cached value together with the moment it was fetched.
type Entry[T any] struct {
	Value     T             `json:"value"`
	FetchedAt time.Time     `json:"fetched_at"`
	TTL       time.Duration `json:"ttl"`
}

// Valid reports whether the entry is still live at now.
func (e Entry[T]) Valid(now time.Time) bool {
	return now.Sub(e.FetchedAt) < e.TTL
}

// Store is the backing storage for cache entries.
type Store[T any] interface {
	Load(ctx context.Context, key string) (Entry[T], bool, error)
	Save(ctx context.Context, key string, entry Entry[T]) error
	Delete(ctx context.Context, key string) error
}

// Loader produces a fresh outcome when the cache misses.
type Loader[T any] func(ctx context.Context) fetcher.Outcome[T]

// Options tune cache behaviour.
type Options struct {
	Name string
	// Now overrides the clock; tests inject a fake.
	Now func() time.Time
}

// Cache memoizes successful outcomes per key.
type Cache[T any] struct {
	store  Store[T]
	group  singleflight.Group
	now    func() time.Time
	logger zerolog.Logger
}

// New constructs a cache on top of store.
func New[T any](store Store[T], opts Options, logger zerolog.Logger) *Cache[T] {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if opts.Name == "" {
		opts.Name = "cache"
	}
	return &Cache[T]{
		store:  store,
		now:    now,
		logger: logger.With().Str("component", "cache").Str("cache", opts.Name).Logger(),
	}
}

// GetOrFetch returns the live entry for key, or runs load and stores a success.
// Failures are never stored, so the next call retries immediately.
// Concurrent callers missing on the same key share a single load.
func (c *Cache[T]) GetOrFetch(ctx context.Context, key string, ttl time.Duration, load Loader[T]) fetcher.Outcome[T] {
	if entry, ok := c.lookup(ctx, key); ok {
		return fetcher.Success(entry.Value)
	}

	res, _, _ := c.group.Do(key, func() (interface{}, error) {
		// A caller that lost the race may find the entry already stored.
		if entry, ok := c.lookup(ctx, key); ok {
			return fetcher.Success(entry.Value), nil
		}

		out := load(ctx)
		value, ok := out.Value()
		if !ok {
			c.logger.Debug().Str("key", key).Str("reason", out.Reason()).Msg("load failed; not cached")
			return out, nil
		}

		entry := Entry[T]{Value: value, FetchedAt: c.now(), TTL: ttl}
		if err := c.store.Save(ctx, key, entry); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("cache save failed")
		}
		c.logger.Debug().Str("key", key).Dur("ttl", ttl).Msg("cache filled")
		return out, nil
	})
	return res.(fetcher.Outcome[T])
}

// Invalidate drops the entry for key.
func (c *Cache[T]) Invalidate(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache invalidate failed")
		return
	}
	c.logger.Debug().Str("key", key).Msg("cache invalidated")
}

// Peek returns the live entry for key without loading.
func (c *Cache[T]) Peek(ctx context.Context, key string) (Entry[T], bool) {
	return c.lookup(ctx, key)
}

func (c *Cache[T]) lookup(ctx context.Context, key string) (Entry[T], bool) {
	entry, ok, err := c.store.Load(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache load failed; treating as miss")
		return Entry[T]{}, false
	}
	if !ok || !entry.Valid(c.now()) {
		return Entry[T]{}, false
	}
	return entry, true
}
