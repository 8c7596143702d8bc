package tindak

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the action pipeline and
// its reliability layers. Safe for concurrent use.
type MetricsCollector struct {
	actionsTotal    *prometheus.CounterVec
	actionDuration  *prometheus.HistogramVec
	actionsInFlight *prometheus.GaugeVec

	retriesTotal *prometheus.CounterVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheSize   *prometheus.GaugeVec

	tokenRefreshes *prometheus.CounterVec

	dedupHits *prometheus.CounterVec

	errorsTotal *prometheus.CounterVec
}

// NewMetricsCollector creates a collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied
// registerer; tests pass their own registry to avoid duplicate registration.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		actionsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tindak_actions_total",
				Help: "Total number of action completions",
			},
			[]string{"endpoint", "outcome"},
		),
		actionDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tindak_action_duration_seconds",
				Help:    "Duration of action completions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint", "outcome"},
		),
		actionsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tindak_actions_in_flight",
				Help: "Number of action completions currently running",
			},
			[]string{"endpoint"},
		),
		retriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tindak_retries_total",
				Help: "Total number of rate-limit retry attempts",
			},
			[]string{"endpoint", "attempt"},
		),
		cacheHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tindak_cache_hits_total",
				Help: "Total number of response cache hits",
			},
			[]string{"endpoint"},
		),
		cacheMisses: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tindak_cache_misses_total",
				Help: "Total number of response cache misses",
			},
			[]string{"endpoint"},
		),
		cacheSize: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tindak_cache_size_entries",
				Help: "Current number of entries in the response cache",
			},
			[]string{"cache"},
		),
		tokenRefreshes: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tindak_token_refreshes_total",
				Help: "Total number of token refresh attempts",
			},
			[]string{"outcome"},
		),
		dedupHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tindak_deduplication_hits_total",
				Help: "Total number of completions coalesced into an in-flight duplicate",
			},
			[]string{"endpoint"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tindak_errors_total",
				Help: "Total number of errors by classification",
			},
			[]string{"type", "endpoint"},
		),
	}
}

// RecordActionStart marks a completion as in flight.
func (mc *MetricsCollector) RecordActionStart(endpoint string) {
	mc.actionsInFlight.WithLabelValues(endpoint).Inc()
}

// RecordActionEnd finalizes a completion with its outcome and duration.
func (mc *MetricsCollector) RecordActionEnd(endpoint, outcome string, duration time.Duration) {
	mc.actionsInFlight.WithLabelValues(endpoint).Dec()
	mc.actionsTotal.WithLabelValues(endpoint, outcome).Inc()
	mc.actionDuration.WithLabelValues(endpoint, outcome).Observe(duration.Seconds())
}

// RecordRetry counts one retry attempt.
func (mc *MetricsCollector) RecordRetry(endpoint string, attempt int) {
	mc.retriesTotal.WithLabelValues(endpoint, strconv.Itoa(attempt)).Inc()
}

// RecordCacheHit counts a cache hit.
func (mc *MetricsCollector) RecordCacheHit(endpoint string) {
	mc.cacheHits.WithLabelValues(endpoint).Inc()
}

// RecordCacheMiss counts a cache miss.
func (mc *MetricsCollector) RecordCacheMiss(endpoint string) {
	mc.cacheMisses.WithLabelValues(endpoint).Inc()
}

// RecordCacheSize reports the live entry count of a cache.
func (mc *MetricsCollector) RecordCacheSize(name string, size int) {
	mc.cacheSize.WithLabelValues(name).Set(float64(size))
}

// RecordTokenRefresh counts a refresh attempt by outcome ("success" or
// "failure").
func (mc *MetricsCollector) RecordTokenRefresh(outcome string) {
	mc.tokenRefreshes.WithLabelValues(outcome).Inc()
}

// RecordDeduplicationHit counts a completion served by an in-flight
// duplicate.
func (mc *MetricsCollector) RecordDeduplicationHit(endpoint string) {
	mc.dedupHits.WithLabelValues(endpoint).Inc()
}

// RecordError counts an error by classification.
func (mc *MetricsCollector) RecordError(errorType, endpoint string) {
	mc.errorsTotal.WithLabelValues(errorType, endpoint).Inc()
}
