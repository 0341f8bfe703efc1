package networkkit

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the pipeline's request
// lifecycle, retries, caching, de-duplication and transfers. All record
// methods are nil-receiver safe so instrumentation stays optional.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec

	retriesTotal *prometheus.CounterVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheSize   *prometheus.GaugeVec

	dedupHits *prometheus.CounterVec

	transferBytes *prometheus.CounterVec

	errorsTotal *prometheus.CounterVec
}

// NewMetricsCollector creates a collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied
// registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "networkkit_requests_total",
				Help: "Total number of HTTP requests executed",
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "networkkit_request_duration_seconds",
				Help:    "Duration of pipeline calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "networkkit_requests_in_flight",
				Help: "Number of pipeline calls currently in flight",
			},
			[]string{"method", "endpoint"},
		),
		retriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "networkkit_retries_total",
				Help: "Total number of retry attempts",
			},
			[]string{"method", "endpoint", "attempt"},
		),
		cacheHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "networkkit_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"method", "endpoint"},
		),
		cacheMisses: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "networkkit_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"method", "endpoint"},
		),
		cacheSize: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "networkkit_cache_size",
				Help: "Current number of entries in the memory cache tier",
			},
			[]string{"tier"},
		),
		dedupHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "networkkit_deduplication_hits_total",
				Help: "Total number of requests merged onto an in-flight call",
			},
			[]string{"method", "endpoint"},
		),
		transferBytes: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "networkkit_transfer_bytes_total",
				Help: "Total bytes moved by upload and download calls",
			},
			[]string{"direction"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "networkkit_errors_total",
				Help: "Total number of errors by kind",
			},
			[]string{"kind", "method", "endpoint"},
		),
	}
}

// RecordRequest records request count and duration.
func (mc *MetricsCollector) RecordRequest(method Method, endpoint string, statusCode int, duration time.Duration) {
	if mc == nil {
		return
	}
	code := strconv.Itoa(statusCode)
	mc.requestsTotal.WithLabelValues(string(method), code, endpoint).Inc()
	mc.requestDuration.WithLabelValues(string(method), code, endpoint).Observe(duration.Seconds())
}

// RecordRequestStart increments the in-flight gauge.
func (mc *MetricsCollector) RecordRequestStart(method Method, endpoint string) {
	if mc == nil {
		return
	}
	mc.requestsInFlight.WithLabelValues(string(method), endpoint).Inc()
}

// RecordRequestEnd decrements the in-flight gauge.
func (mc *MetricsCollector) RecordRequestEnd(method Method, endpoint string) {
	if mc == nil {
		return
	}
	mc.requestsInFlight.WithLabelValues(string(method), endpoint).Dec()
}

// RecordRetry increments the retry counter for an attempt.
func (mc *MetricsCollector) RecordRetry(method Method, endpoint string, attempt int) {
	if mc == nil {
		return
	}
	mc.retriesTotal.WithLabelValues(string(method), endpoint, strconv.Itoa(attempt)).Inc()
}

// RecordCacheHit increments the cache hit counter.
func (mc *MetricsCollector) RecordCacheHit(method Method, endpoint string) {
	if mc == nil {
		return
	}
	mc.cacheHits.WithLabelValues(string(method), endpoint).Inc()
}

// RecordCacheMiss increments the cache miss counter.
func (mc *MetricsCollector) RecordCacheMiss(method Method, endpoint string) {
	if mc == nil {
		return
	}
	mc.cacheMisses.WithLabelValues(string(method), endpoint).Inc()
}

// RecordCacheSize sets the cache size gauge for a tier.
func (mc *MetricsCollector) RecordCacheSize(tier string, size int) {
	if mc == nil {
		return
	}
	mc.cacheSize.WithLabelValues(tier).Set(float64(size))
}

// RecordDedupHit increments the de-duplication hit counter.
func (mc *MetricsCollector) RecordDedupHit(method Method, endpoint string) {
	if mc == nil {
		return
	}
	mc.dedupHits.WithLabelValues(string(method), endpoint).Inc()
}

// RecordTransfer adds to the byte counter for "upload" or "download".
func (mc *MetricsCollector) RecordTransfer(direction string, bytes int64) {
	if mc == nil {
		return
	}
	mc.transferBytes.WithLabelValues(direction).Add(float64(bytes))
}

// RecordError increments the error counter by kind.
func (mc *MetricsCollector) RecordError(kind ErrorKind, method Method, endpoint string) {
	if mc == nil {
		return
	}
	mc.errorsTotal.WithLabelValues(string(kind), string(method), endpoint).Inc()
}
