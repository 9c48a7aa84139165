package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Quote persistence operations.
const (
	OpCreate  = "create"
	OpReplace = "replace"
)

// QuoteMetrics records quote persistence and document rendering outcomes.
type QuoteMetrics struct {
	persisted      *prometheus.CounterVec
	persistFailure *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	renderFailure  *prometheus.CounterVec
}

// NewQuoteMetrics registers the quote metrics on the provided registerer.
func NewQuoteMetrics(reg prometheus.Registerer) *QuoteMetrics {
	if reg == nil {
		return &QuoteMetrics{}
	}
	persisted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quotes_persisted_total",
		Help: "Quotes written to the repository.",
	}, []string{"op"})
	persistFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quotes_persist_failures_total",
		Help: "Quote repository writes that failed.",
	}, []string{"op"})
	renderDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quotes_render_duration_seconds",
		Help:    "Time spent rendering quote documents.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})
	renderFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quotes_render_failures_total",
		Help: "Quote documents that could not be rendered.",
	}, []string{"source"})
	reg.MustRegister(persisted, persistFailure, renderDuration, renderFailure)
	return &QuoteMetrics{
		persisted:      persisted,
		persistFailure: persistFailure,
		renderDuration: renderDuration,
		renderFailure:  renderFailure,
	}
}

// IncPersisted counts a successful repository write.
func (q *QuoteMetrics) IncPersisted(op string) {
	if q == nil || q.persisted == nil {
		return
	}
	q.persisted.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncPersistFailure counts a failed repository write.
func (q *QuoteMetrics) IncPersistFailure(op string) {
	if q == nil || q.persistFailure == nil {
		return
	}
	q.persistFailure.WithLabelValues(normalizeLabel(op)).Inc()
}

// ObserveRender records how long a document took to render.
func (q *QuoteMetrics) ObserveRender(source string, duration time.Duration) {
	if q == nil || q.renderDuration == nil {
		return
	}
	q.renderDuration.WithLabelValues(normalizeLabel(source)).Observe(duration.Seconds())
}

// IncRenderFailure counts a document that failed to render.
func (q *QuoteMetrics) IncRenderFailure(source string) {
	if q == nil || q.renderFailure == nil {
		return
	}
	q.renderFailure.WithLabelValues(normalizeLabel(source)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
