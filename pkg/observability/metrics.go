// Package observability registers the Prometheus metrics the sync
// engine reports.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	fetchCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitness_dashboard",
		Subsystem: "sync",
		Name:      "remote_fetches_total",
		Help:      "Remote fetch attempts, labelled by outcome.",
	}, []string{"outcome"})

	cacheHitCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitness_dashboard",
		Subsystem: "sync",
		Name:      "cache_hits_total",
		Help:      "Loads answered from the fresh cache without a remote fetch.",
	})

	staleServeCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitness_dashboard",
		Subsystem: "sync",
		Name:      "stale_serves_total",
		Help:      "Loads that fell back to the last known-good corpus after a fetch failure.",
	})

	droppedRecordCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitness_dashboard",
		Subsystem: "sync",
		Name:      "records_dropped_total",
		Help:      "Upstream payloads dropped during normalization.",
	}, []string{"source"})

	cacheWriteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitness_dashboard",
		Subsystem: "sync",
		Name:      "cache_write_failures_total",
		Help:      "Persistence writes rejected by the cache store.",
	})

	lastSyncGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fitness_dashboard",
		Subsystem: "sync",
		Name:      "last_sync_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful sync.",
	})

	corpusSizeGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fitness_dashboard",
		Subsystem: "corpus",
		Name:      "activity_records",
		Help:      "Activity records in the reconciled corpus.",
	})
)

func init() {
	prometheus.MustRegister(
		fetchCounter,
		cacheHitCounter,
		staleServeCounter,
		droppedRecordCounter,
		cacheWriteFailures,
		lastSyncGauge,
		corpusSizeGauge,
	)
}

// RecordFetch counts a remote fetch attempt. Outcome is "success" or
// "error".
func RecordFetch(outcome string) {
	fetchCounter.WithLabelValues(outcome).Inc()
}

// RecordCacheHit counts a load served from the fresh cache.
func RecordCacheHit() {
	cacheHitCounter.Inc()
}

// RecordStaleServe counts a serve-stale fallback.
func RecordStaleServe() {
	staleServeCounter.Inc()
}

// RecordDropped counts payloads dropped during normalization.
func RecordDropped(source string, n int) {
	if n > 0 {
		droppedRecordCounter.WithLabelValues(source).Add(float64(n))
	}
}

// RecordCacheWriteFailure counts a rejected persistence write.
func RecordCacheWriteFailure() {
	cacheWriteFailures.Inc()
}

// RecordSync updates the sync watermark and corpus size gauges.
func RecordSync(ts time.Time, activityCount int) {
	if !ts.IsZero() {
		lastSyncGauge.Set(float64(ts.Unix()))
	}
	corpusSizeGauge.Set(float64(activityCount))
}
