// Package observability provides Prometheus metrics for the pairing hub.
// A single Metrics value implements the sink interfaces the application
// layer records through.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// Metrics holds all Prometheus collectors for the pairing engine.
type Metrics struct {
	registry *prometheus.Registry

	// Generation metrics.
	generationDuration  prometheus.Histogram
	candidatesScored    prometheus.Counter
	suggestionsSelected prometheus.Counter
	generationRuns      prometheus.Counter

	// Cache metrics, labeled by cached-data kind.
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheErrors *prometheus.CounterVec

	// Feedback loop metrics.
	feedbackRecorded *prometheus.CounterVec
	skillUpdates     prometheus.Counter

	// HTTP metrics.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a Metrics with its own registry. The registry excludes
// the default Go collectors; register them separately if wanted.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	const namespace = "pairing_hub"

	return &Metrics{
		registry: registry,

		generationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "generation_duration_seconds",
			Help:      "Time to generate one suggestion set.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
		}),
		candidatesScored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "candidates_scored_total",
			Help:      "Total candidate pairs scored.",
		}),
		suggestionsSelected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "suggestions_selected_total",
			Help:      "Total suggestions returned to callers.",
		}),
		generationRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "generation_runs_total",
			Help:      "Total suggestion generation runs.",
		}),

		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache hits by data kind.",
		}, []string{"kind"}),
		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache misses by data kind.",
		}, []string{"kind"}),
		cacheErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "errors_total",
			Help:      "Cache errors by data kind. Errors never fail requests.",
		}, []string{"kind"}),

		feedbackRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feedback",
			Name:      "recorded_total",
			Help:      "Feedback records persisted, labeled by suggestion origin.",
		}, []string{"origin"}),
		skillUpdates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feedback",
			Name:      "skill_updates_total",
			Help:      "Players whose skill level was recomputed.",
		}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status class.",
		}, []string{"route", "status"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Registry returns the underlying registry for exposition.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ─────────────────────────────────────────────────────────────────────────────
// Engine sink
// ─────────────────────────────────────────────────────────────────────────────

// ObserveGeneration records one completed generation run.
func (m *Metrics) ObserveGeneration(sessionID string, candidates, selected int, d time.Duration) {
	m.generationRuns.Inc()
	m.generationDuration.Observe(d.Seconds())
	m.candidatesScored.Add(float64(candidates))
	m.suggestionsSelected.Add(float64(selected))
}

// CacheHit records a cache hit for the given data kind.
func (m *Metrics) CacheHit(kind string) {
	m.cacheHits.WithLabelValues(kind).Inc()
}

// CacheMiss records a cache miss for the given data kind.
func (m *Metrics) CacheMiss(kind string) {
	m.cacheMisses.WithLabelValues(kind).Inc()
}

// CacheError records a swallowed cache failure for the given data kind.
func (m *Metrics) CacheError(kind string) {
	m.cacheErrors.WithLabelValues(kind).Inc()
}

// ─────────────────────────────────────────────────────────────────────────────
// Feedback sink
// ─────────────────────────────────────────────────────────────────────────────

// FeedbackRecorded counts one persisted feedback record.
func (m *Metrics) FeedbackRecorded(aiSuggested bool) {
	origin := "manual"
	if aiSuggested {
		origin = "suggested"
	}
	m.feedbackRecorded.WithLabelValues(origin).Inc()
}

// SkillLevelsUpdated counts players whose skill was recomputed.
func (m *Metrics) SkillLevelsUpdated(count int) {
	m.skillUpdates.Add(float64(count))
}

// ─────────────────────────────────────────────────────────────────────────────
// HTTP sink
// ─────────────────────────────────────────────────────────────────────────────

// ObserveHTTPRequest records one served HTTP request.
func (m *Metrics) ObserveHTTPRequest(route, status string, d time.Duration) {
	m.httpRequests.WithLabelValues(route, status).Inc()
	m.httpRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ══════════════════════════════════════════════════════════════════════════════
// NOOP SINK
// ══════════════════════════════════════════════════════════════════════════════

// Noop is a metrics sink that records nothing. Used in tests and when
// metrics are disabled.
type Noop struct{}

// ObserveGeneration does nothing.
func (Noop) ObserveGeneration(string, int, int, time.Duration) {}

// CacheHit does nothing.
func (Noop) CacheHit(string) {}

// CacheMiss does nothing.
func (Noop) CacheMiss(string) {}

// CacheError does nothing.
func (Noop) CacheError(string) {}

// FeedbackRecorded does nothing.
func (Noop) FeedbackRecorded(bool) {}

// SkillLevelsUpdated does nothing.
func (Noop) SkillLevelsUpdated(int) {}

// ObserveHTTPRequest does nothing.
func (Noop) ObserveHTTPRequest(string, string, time.Duration) {}
