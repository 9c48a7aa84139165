package sales

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/vivetti/salesdesk-backend/pkg/logger"
	"github.com/vivetti/salesdesk-backend/pkg/metrics"
)

const cacheScope = "sales"

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(scope string, parts ...string) string
}

// CachedSource serves reads from redis for ttl before going back to the wrapped source.
// Stale history is acceptable for reporting.
type CachedSource struct {
	next    Source
	cache   cacheStore
	ttl     time.Duration
	metrics *metrics.CacheMetrics
	logg    *logger.Logger
}

// NewCachedSource wraps next with a read-through cache.
func NewCachedSource(next Source, cache cacheStore, ttl time.Duration, m *metrics.CacheMetrics, logg *logger.Logger) (*CachedSource, error) {
	if next == nil {
		return nil, errors.New("sales source required")
	}
	if cache == nil {
		return nil, errors.New("sales cache required")
	}
	if ttl <= 0 {
		return nil, errors.New("sales cache ttl must be positive")
	}
	return &CachedSource{next: next, cache: cache, ttl: ttl, metrics: m, logg: logg}, nil
}

func (c *CachedSource) Records(ctx context.Context, q Query) ([]Record, error) {
	key := c.cache.CacheKey(cacheScope, keyPart(q.AgentID), keyPart(strings.ToLower(q.Customer)))
	if raw, err := c.cache.Get(ctx, key); err == nil {
		var cached []Record
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			c.metrics.Hit(cacheScope)
			return cached, nil
		}
	}
	c.metrics.Miss(cacheScope)

	records, err := c.next.Records(ctx, q)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(records); err == nil {
		if err := c.cache.Set(ctx, key, string(payload), c.ttl); err != nil && c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "cache_key", key), "sales cache write failed")
		}
	}
	return records, nil
}

func keyPart(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "all"
	}
	return value
}
