package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tracks name validations by outcome (performed | skipped | degraded).
	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nameforge_validations_total",
			Help: "Total number of name validations by outcome.",
		},
		[]string{"outcome"},
	)

	// Tracks outbound Resource Graph queries by result.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nameforge_graph_queries_total",
			Help: "Total number of Resource Graph queries issued.",
		},
		[]string{"result"}, // ok | timeout | error
	)

	// Measures Resource Graph query latency.
	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nameforge_graph_query_duration_seconds",
			Help:    "Duration of Resource Graph queries in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms → ~10s
		},
	)

	// Tracks validation-cache lookups.
	CacheAccessTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nameforge_cache_access_total",
			Help: "Number of validation cache hits/misses.",
		},
		[]string{"result"}, // hit | miss
	)

	// Tracks conflict resolutions by strategy and outcome.
	ConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nameforge_conflicts_total",
			Help: "Conflict resolutions by strategy and outcome.",
		},
		[]string{"strategy", "outcome"},
	)

	// Tracks NATS publishes by subject and result.
	NATSPublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nameforge_nats_publish_total",
			Help: "Total number of NATS events published.",
		},
		[]string{"subject", "result"}, // result = "ok" | "error"
	)
)

func IncValidation(outcome string) {
	ValidationsTotal.WithLabelValues(outcome).Inc()
}

func IncQuery(result string) {
	QueriesTotal.WithLabelValues(result).Inc()
}

func ObserveQueryDuration(start time.Time) {
	QueryDuration.Observe(time.Since(start).Seconds())
}

func IncCache(result string) {
	CacheAccessTotal.WithLabelValues(result).Inc()
}

func IncConflict(strategy, outcome string) {
	ConflictsTotal.WithLabelValues(strategy, outcome).Inc()
}

func IncNATSPublish(subject, result string) {
	NATSPublishTotal.WithLabelValues(subject, result).Inc()
}
