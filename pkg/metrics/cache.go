package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics counts read-through cache hits and misses.
type CacheMetrics struct {
	lookups *prometheus.CounterVec
}

// NewCacheMetrics registers the cache lookup counter on the provided registerer.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	if reg == nil {
		return &CacheMetrics{}
	}
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Read-through cache lookups by cache and result.",
	}, []string{"cache", "result"})
	reg.MustRegister(lookups)
	return &CacheMetrics{lookups: lookups}
}

// Hit records a cache hit.
func (c *CacheMetrics) Hit(cache string) {
	c.inc(cache, "hit")
}

// Miss records a cache miss.
func (c *CacheMetrics) Miss(cache string) {
	c.inc(cache, "miss")
}

func (c *CacheMetrics) inc(cache, result string) {
	if c == nil || c.lookups == nil {
		return
	}
	c.lookups.WithLabelValues(normalizeLabel(cache), result).Inc()
}
