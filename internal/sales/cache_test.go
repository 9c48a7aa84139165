package sales

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vivetti/salesdesk-backend/pkg/metrics"
)

type mapCache struct {
	values map[string]string
	ttls   map[string]time.Duration
	setErr error
}

func newMapCache() *mapCache {
	return &mapCache{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *mapCache) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *mapCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return nil
}

func (m *mapCache) CacheKey(scope string, parts ...string) string {
	return "cache:" + scope + ":" + strings.Join(parts, ":")
}

func TestCachedSourceReadsThrough(t *testing.T) {
	src := salesFixture()
	cache := newMapCache()
	reg := prometheus.NewRegistry()
	m := metrics.NewCacheMetrics(reg)

	cached, err := NewCachedSource(src, cache, time.Minute, m, nil)
	require.NoError(t, err)

	ctx := context.Background()
	first, err := cached.Records(ctx, Query{AgentID: "AG02"})
	require.NoError(t, err)
	second, err := cached.Records(ctx, Query{AgentID: "AG02"})
	require.NoError(t, err)

	assert.Len(t, src.queries, 1)
	require.Len(t, second, len(first))
	assert.True(t, second[0].NetAmount.Equal(first[0].NetAmount))
	assert.Equal(t, time.Minute, cache.ttls["cache:sales:AG02:all"])

	_, err = cached.Records(ctx, Query{Customer: "Edilcasa"})
	require.NoError(t, err)
	_, ok := cache.values["cache:sales:all:edilcasa"]
	assert.True(t, ok)
	assert.Len(t, src.queries, 2)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestCachedSourceSurvivesCacheWriteFailure(t *testing.T) {
	src := salesFixture()
	cache := newMapCache()
	cache.setErr = errors.New("redis down")

	cached, err := NewCachedSource(src, cache, time.Minute, nil, nil)
	require.NoError(t, err)

	records, err := cached.Records(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, records, len(src.records))
}

func TestCachedSourcePropagatesSourceErrors(t *testing.T) {
	cached, err := NewCachedSource(&stubSource{err: errors.New("boom")}, newMapCache(), time.Minute, nil, nil)
	require.NoError(t, err)

	_, err = cached.Records(context.Background(), Query{})
	assert.Error(t, err)
}

func TestNewCachedSourceValidates(t *testing.T) {
	_, err := NewCachedSource(nil, newMapCache(), time.Minute, nil, nil)
	assert.Error(t, err)
	_, err = NewCachedSource(&stubSource{}, nil, time.Minute, nil, nil)
	assert.Error(t, err)
	_, err = NewCachedSource(&stubSource{}, newMapCache(), 0, nil, nil)
	assert.Error(t, err)
}
