package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ercase_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ercase_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	draftOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ercase_draft_ops_total",
			Help: "Total number of draft store operations",
		},
		[]string{"op"},
	)

	caseCacheEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ercase_case_cache_evictions_total",
			Help: "Total number of case cache entries evicted",
		},
	)

	caseMergesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ercase_case_merges_total",
			Help: "Total number of server/cache case merges performed",
		},
	)

	storageFaultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ercase_storage_faults_total",
			Help: "Total number of degraded key-value storage operations",
		},
		[]string{"area"},
	)

	upstreamCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ercase_upstream_calls_total",
			Help: "Total number of calls to upstream services",
		},
		[]string{"service", "status"},
	)

	upstreamCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ercase_upstream_call_duration_seconds",
			Help:    "Duration of upstream service calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"service"},
	)
)

var registerOnce sync.Once

// Collector exposes the service's Prometheus metrics.
type Collector struct{}

// NewCollector registers the metric set and returns a collector. Repeated
// calls reuse the same registration.
func NewCollector() *Collector {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			draftOpsTotal,
			caseCacheEvictions,
			caseMergesTotal,
			storageFaultsTotal,
			upstreamCallsTotal,
			upstreamCallDuration,
		)
	})
	return &Collector{}
}

// RecordHTTPRequest records one served HTTP request.
func (c *Collector) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordDraftOp records one draft store operation.
func (c *Collector) RecordDraftOp(op string) {
	draftOpsTotal.WithLabelValues(op).Inc()
}

// RecordCacheEviction records one case cache eviction.
func (c *Collector) RecordCacheEviction() {
	caseCacheEvictions.Inc()
}

// RecordMerge records one server/cache merge.
func (c *Collector) RecordMerge() {
	caseMergesTotal.Inc()
}

// RecordStorageFault records one degraded key-value operation.
func (c *Collector) RecordStorageFault(area string) {
	storageFaultsTotal.WithLabelValues(area).Inc()
}

// RecordUpstreamCall records one call to an upstream service.
func (c *Collector) RecordUpstreamCall(service, status string, duration time.Duration) {
	upstreamCallsTotal.WithLabelValues(service, status).Inc()
	upstreamCallDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// Handler returns the Prometheus scrape endpoint handler.
func (c *Collector) Handler() http.Handler {
	return promhttp.Handler()
}
