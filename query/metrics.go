package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors register once on the default registry so any number of
// dispatchers can share them. Recording is gated by metrics.enabled.
var (
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lakeq",
		Name:      "queries_total",
		Help:      "Queries executed, by plan strategy and outcome.",
	}, []string{"strategy", "outcome"})

	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lakeq",
		Name:      "query_duration_seconds",
		Help:      "End-to-end query latency, by plan strategy.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"strategy"})

	planCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lakeq",
		Name:      "plan_cache_hits_total",
		Help:      "Compiled plans served from the cache.",
	})

	planCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lakeq",
		Name:      "plan_cache_misses_total",
		Help:      "Queries compiled because no cached plan existed.",
	})
)
