package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zyntel-ai/labops/pkg/analytics/records"
	"github.com/zyntel-ai/labops/pkg/common/logger"
	"github.com/zyntel-ai/labops/pkg/observability/metrics"
)

// Cache stores raw row payloads. Aggregates are never cached.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type RedisCache struct {
	client redis.Cmdable
}

func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisCache) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// Guard hands out increasing tickets. Only the holder of the latest ticket
// may publish its result; older in-flight work is ignored.
type Guard struct {
	gen atomic.Uint64
}

func (g *Guard) Begin() uint64 {
	return g.gen.Add(1)
}

func (g *Guard) Current(ticket uint64) bool {
	return g.gen.Load() == ticket
}

// CachedSource serves rows from the cache and falls back to the wrapped
// source on a miss. Cache failures degrade to pass-through.
type CachedSource struct {
	inner     Source
	cache     Cache
	key       string
	ttl       time.Duration
	dashboard string
	guard     Guard
	metrics   *metrics.Metrics
}

func NewCachedSource(inner Source, cache Cache, dashboard string, ttl time.Duration, m *metrics.Metrics) *CachedSource {
	return &CachedSource{
		inner:     inner,
		cache:     cache,
		key:       "labops:rows:" + dashboard,
		ttl:       ttl,
		dashboard: dashboard,
		metrics:   m,
	}
}

func (c *CachedSource) Describe() string {
	return fmt.Sprintf("%s (cached %s)", c.inner.Describe(), c.ttl)
}

func (c *CachedSource) Load(ctx context.Context) ([]records.Record, error) {
	log := logger.WithDashboard(c.dashboard)

	payload, ok, err := c.cache.Get(ctx, c.key)
	switch {
	case err != nil:
		c.metrics.CacheResult(c.dashboard, "error")
		log.WithError(err).Warn("Row cache read failed")
	case ok:
		var rows []records.Record
		if err := json.Unmarshal(payload, &rows); err == nil {
			c.metrics.CacheResult(c.dashboard, "hit")
			return rows, nil
		}
		c.metrics.CacheResult(c.dashboard, "error")
		log.Warn("Discarding undecodable cached rows")
	default:
		c.metrics.CacheResult(c.dashboard, "miss")
	}

	ticket := c.guard.Begin()
	rows, err := c.inner.Load(ctx)
	if err != nil {
		return nil, err
	}

	if !c.guard.Current(ticket) {
		c.metrics.StaleDiscarded(c.dashboard)
		log.WithField("records", len(rows)).Debug("Newer load started; not caching superseded rows")
		return rows, nil
	}
	if payload, err := json.Marshal(rows); err != nil {
		log.WithError(err).Warn("Row cache encode failed")
	} else if err := c.cache.Set(ctx, c.key, payload, c.ttl); err != nil {
		log.WithError(err).Warn("Row cache write failed")
	}
	return rows, nil
}

// Invalidate drops the cached rows and supersedes any load still in flight.
func (c *CachedSource) Invalidate(ctx context.Context) error {
	c.guard.Begin()
	return c.cache.Del(ctx, c.key)
}

// Invalidator is implemented by sources that hold cached rows.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}
