package cache

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// Cache is what services depend on. Get returns ErrCacheMiss when no level
// holds the key.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
	Health(ctx context.Context) error
	Stats() map[string]interface{}
	Close() error
}

// MultiLevelCache reads through an in-process level (l1) to an optional
// shared level (l2). l2 calls go through a circuit breaker; while it is open,
// or when l2 fails, the cache degrades to l1 only and never fails the caller
// on a read.
type MultiLevelCache struct {
	l1       *MemoryCache
	l2       Store
	breaker  *CircuitBreaker
	metrics  *CacheMetrics
	localTTL time.Duration
	logger   *logrus.Logger
}

type Options struct {
	// LocalTTL caps how long an entry lives in l1 so that instances sharing
	// l2 converge after another instance invalidates a key.
	LocalTTL   time.Duration
	MaxEntries int
	Breaker    *CircuitBreakerConfig
	Observer   Observer
	Logger     *logrus.Logger
}

func NewMultiLevelCache(l2 Store, opts Options) *MultiLevelCache {
	if opts.LocalTTL <= 0 {
		opts.LocalTTL = time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &MultiLevelCache{
		l1:       NewMemoryCache(opts.MaxEntries),
		l2:       l2,
		breaker:  NewCircuitBreaker(opts.Breaker),
		metrics:  NewCacheMetrics(opts.Observer),
		localTTL: opts.LocalTTL,
		logger:   opts.Logger,
	}
}

func (c *MultiLevelCache) localFor(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > c.localTTL {
		return c.localTTL
	}
	return ttl
}

func (c *MultiLevelCache) remote(op string, fn func() error) error {
	if c.l2 == nil {
		return nil
	}
	err := c.breaker.Execute(fn)
	if err != nil && !errors.Is(err, ErrCacheMiss) {
		c.metrics.recordError()
		if !errors.Is(err, ErrCircuitBreakerOpen) {
			c.logger.WithError(err).WithField("op", op).Warn("remote cache call failed")
		}
	}
	return err
}

func (c *MultiLevelCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := c.l1.Set(ctx, key, value, c.localFor(ttl)); err != nil {
		return err
	}
	c.metrics.Sets.Add(1)

	c.remote("set", func() error {
		return c.l2.Set(ctx, key, value, ttl)
	})
	return nil
}

func (c *MultiLevelCache) Get(ctx context.Context, key string, dest interface{}) error {
	err := c.l1.Get(ctx, key, dest)
	if err == nil {
		c.metrics.recordHit("l1")
		return nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		return err
	}

	if c.l2 != nil {
		found := false
		err = c.remote("get", func() error {
			err := c.l2.Get(ctx, key, dest)
			if errors.Is(err, ErrCacheMiss) {
				// A miss is a healthy answer as far as the breaker is concerned.
				return nil
			}
			found = err == nil
			return err
		})
		if err == nil && found {
			c.metrics.recordHit("l2")
			c.l1.Set(ctx, key, dest, c.localTTL)
			return nil
		}
	}

	c.metrics.recordMiss()
	return ErrCacheMiss
}

func (c *MultiLevelCache) Delete(ctx context.Context, keys ...string) error {
	c.l1.Delete(ctx, keys...)
	c.metrics.Deletes.Add(int64(len(keys)))

	return c.remote("delete", func() error {
		return c.l2.Delete(ctx, keys...)
	})
}

func (c *MultiLevelCache) DeletePattern(ctx context.Context, pattern string) error {
	if err := c.l1.DeletePattern(ctx, pattern); err != nil {
		return err
	}
	c.metrics.Deletes.Add(1)

	return c.remote("delete_pattern", func() error {
		return c.l2.DeletePattern(ctx, pattern)
	})
}

func (c *MultiLevelCache) Health(ctx context.Context) error {
	if c.l2 == nil {
		return nil
	}
	return c.l2.Health(ctx)
}

func (c *MultiLevelCache) Stats() map[string]interface{} {
	stats := c.metrics.Snapshot()
	stats["l1_entries"] = c.l1.Len()
	stats["l2_enabled"] = c.l2 != nil
	if c.l2 != nil {
		stats["circuit_breaker"] = c.breaker.GetStats()
	}
	return stats
}

func (c *MultiLevelCache) Close() error {
	c.l1.Close()
	if c.l2 != nil {
		return c.l2.Close()
	}
	return nil
}
