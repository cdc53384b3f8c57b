// Package metrics registers Prometheus instrumentation for the aggregation
// pipeline. Collectors use the default registry and are exposed via the
// API server's /metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	fetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eventcomb_source_fetch_total",
		Help: "Source adapter fetches by outcome.",
	}, []string{"source", "outcome"})

	fetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "eventcomb_source_fetch_duration_seconds",
		Help:    "Source adapter fetch duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	skippedRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eventcomb_source_skipped_records_total",
		Help: "Upstream records skipped during normalization.",
	}, []string{"source"})

	aggregateDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "eventcomb_aggregate_duration_seconds",
		Help:    "End-to-end aggregation call duration.",
		Buckets: prometheus.DefBuckets,
	})

	fallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "eventcomb_fallback_activations_total",
		Help: "Aggregations served from the static fallback dataset.",
	})

	cacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eventcomb_result_cache_total",
		Help: "Result cache lookups by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(fetchTotal, fetchDuration, skippedRecords,
		aggregateDuration, fallbackTotal, cacheHits)
}

func ObserveFetch(source, outcome string, d time.Duration) {
	fetchTotal.WithLabelValues(source, outcome).Inc()
	fetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

func AddSkipped(source string, n int) {
	if n > 0 {
		skippedRecords.WithLabelValues(source).Add(float64(n))
	}
}

func ObserveAggregateDuration(d time.Duration) {
	aggregateDuration.Observe(d.Seconds())
}

func FallbackActivated() {
	fallbackTotal.Inc()
}

func CacheHit()  { cacheHits.WithLabelValues("hit").Inc() }
func CacheMiss() { cacheHits.WithLabelValues("miss").Inc() }
