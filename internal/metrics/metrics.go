package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photowall_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photowall_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photowall_cache_hits_total",
			Help: "Cache hits by entry type",
		},
		[]string{"type"},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photowall_cache_misses_total",
			Help: "Cache misses, including lazily expired entries",
		},
	)

	CachePutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photowall_cache_puts_total",
			Help: "Successful cache writes by entry type",
		},
		[]string{"type"},
	)

	CacheEvictedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photowall_cache_evicted_total",
			Help: "Entries removed by sweep or emergency eviction",
		},
		[]string{"reason"},
	)

	CacheDisabledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photowall_cache_disabled_total",
			Help: "Times the cache degraded to disabled after storage failure",
		},
	)

	RemoteFetchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photowall_remote_fetches_total",
			Help: "Total remote content page fetches",
		},
	)

	RemoteFetchFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photowall_remote_fetch_failures_total",
			Help: "Remote content page fetches that failed",
		},
	)

	RecordsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photowall_records_dropped_total",
			Help: "Remote records dropped during normalization",
		},
	)

	ModeTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photowall_view_mode_transitions_total",
			Help: "Accepted view mode transitions",
		},
		[]string{"from", "to"},
	)
)
