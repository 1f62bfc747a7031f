// Package metrics provides Prometheus metrics for the envrisk assessment service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the envrisk service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Core Business Metrics - report generation is what the service is for
	reportsGenerated  *prometheus.CounterVec
	reportLatency     prometheus.Histogram
	profilesSubmitted prometheus.Counter
	reportsUnlocked   prometheus.Counter
	duplicateRequests prometheus.Counter
	validationErrors  *prometheus.CounterVec

	// Upstream Fetch Metrics - provider health and fallback behavior
	upstreamFetches      *prometheus.CounterVec
	upstreamFetchLatency *prometheus.HistogramVec
	upstreamFallbacks    *prometheus.CounterVec

	// Reading Cache Metrics
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheErrors prometheus.Counter

	// Operational Health Metrics
	queueSize   prometheus.Gauge
	workerCount prometheus.Gauge
	reportCount prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Repository Metrics
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram
	snapshotCount           prometheus.Gauge

	// Queue Metrics - analytics snapshot queue
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueues    prometheus.Counter
	queueDequeues    prometheus.Counter
	queueDropped     prometheus.Counter

	// Worker Metrics - archiver pool
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Publisher Metrics - analytics event stream
	eventsPublished prometheus.Counter
	publishErrors   prometheus.Counter

	// Enhanced Error Metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	uptimeSeconds        prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "envrisk",
		subsystem:        "assessment",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Core Business Metrics
	m.reportsGenerated = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "reports_generated_total",
			Help:      "Total number of health reports generated, by risk level",
		},
		[]string{"risk_level"},
	)

	m.reportLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "report_generation_latency_milliseconds",
		Help:      "Histogram of end-to-end report generation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.profilesSubmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "profiles_submitted_total",
		Help:      "Total number of lifestyle profiles submitted",
	})

	m.reportsUnlocked = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reports_unlocked_total",
		Help:      "Total number of reports marked paid via the unlock callback",
	})

	m.duplicateRequests = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicate_requests_total",
		Help:      "Total number of report requests answered from the idempotency index",
	})

	m.validationErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "validation_errors_total",
			Help:      "Total number of input validation failures, by kind",
		},
		[]string{"kind"},
	)

	// Upstream Fetch Metrics
	m.upstreamFetches = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "upstream_fetches_total",
			Help:      "Total number of upstream reading fetches, by domain, source and outcome",
		},
		[]string{"domain", "source", "outcome"},
	)

	m.upstreamFetchLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "upstream_fetch_latency_milliseconds",
			Help:      "Upstream fetch latency in milliseconds, by domain",
			Buckets:   m.histogramBuckets,
		},
		[]string{"domain"},
	)

	m.upstreamFallbacks = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "upstream_fallbacks_total",
			Help:      "Total number of live fetches degraded to mock readings, by domain",
		},
		[]string{"domain"},
	)

	// Reading Cache Metrics
	m.cacheHits = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "reading_cache_hits_total",
			Help:      "Total number of reading cache hits, by domain",
		},
		[]string{"domain"},
	)

	m.cacheMisses = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "reading_cache_misses_total",
			Help:      "Total number of reading cache misses, by domain",
		},
		[]string{"domain"},
	)

	m.cacheErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reading_cache_errors_total",
		Help:      "Total number of reading cache errors (treated as misses)",
	})

	// Operational Health Metrics
	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current depth of the analytics snapshot queue",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Configured number of archiver workers",
	})

	m.reportCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reports_stored",
		Help:      "Total number of reports currently persisted",
	})

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Repository Metrics
	m.repositoryUpdateLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_update_latency_milliseconds",
		Help:      "Repository write operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.repositoryQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_query_latency_milliseconds",
		Help:      "Repository read operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.snapshotCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshots_stored",
		Help:      "Total number of analytics snapshots archived",
	})

	// Queue Metrics
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Maximum analytics queue capacity",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization_ratio",
		Help:      "Analytics queue utilization ratio (current size / capacity)",
	})

	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_total",
		Help:      "Total number of snapshots enqueued",
	})

	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeue_total",
		Help:      "Total number of snapshots dequeued",
	})

	m.queueDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dropped_total",
		Help:      "Total number of snapshots dropped because the queue was full or closed",
	})

	// Worker Metrics
	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_active_count",
		Help:      "Number of archiver workers currently processing",
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Archiver processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Total number of archiver processing errors",
	})

	// Publisher Metrics
	m.eventsPublished = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_published_total",
		Help:      "Total number of report events published to the analytics stream",
	})

	m.publishErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publish_errors_total",
		Help:      "Total number of analytics stream publish failures",
	})

	// Enhanced Error Metrics
	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_type_total",
			Help:      "Total number of errors by type",
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total number of errors by endpoint",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.uptimeSeconds = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "uptime_seconds",
		Help:      "Seconds since the service started",
	})
}

// RecordReportGenerated increments the per-level report counter.
func RecordReportGenerated(riskLevel string) {
	globalManager.reportsGenerated.WithLabelValues(riskLevel).Inc()
}

// RecordReportLatency records end-to-end report generation latency in milliseconds.
func RecordReportLatency(latencyMs float64) {
	globalManager.reportLatency.Observe(latencyMs)
}

// RecordProfileSubmitted increments the submitted profiles counter.
func RecordProfileSubmitted() {
	globalManager.profilesSubmitted.Inc()
}

// RecordReportUnlocked increments the unlocked reports counter.
func RecordReportUnlocked() {
	globalManager.reportsUnlocked.Inc()
}

// RecordDuplicateRequest increments the idempotency-hit counter.
func RecordDuplicateRequest() {
	globalManager.duplicateRequests.Inc()
}

// RecordValidationError increments the validation error counter for a kind
// (missing_domain, invalid_enum, out_of_range).
func RecordValidationError(kind string) {
	globalManager.validationErrors.WithLabelValues(kind).Inc()
}

// RecordUpstreamFetch records one upstream fetch attempt.
func RecordUpstreamFetch(domain, source, outcome string) {
	globalManager.upstreamFetches.WithLabelValues(domain, source, outcome).Inc()
}

// RecordUpstreamFetchLatency records upstream fetch latency in milliseconds.
func RecordUpstreamFetchLatency(domain string, latencyMs float64) {
	globalManager.upstreamFetchLatency.WithLabelValues(domain).Observe(latencyMs)
}

// RecordUpstreamFallback counts a live fetch degraded to a mock reading.
func RecordUpstreamFallback(domain string) {
	globalManager.upstreamFallbacks.WithLabelValues(domain).Inc()
}

// RecordCacheHit increments the reading cache hit counter.
func RecordCacheHit(domain string) {
	globalManager.cacheHits.WithLabelValues(domain).Inc()
}

// RecordCacheMiss increments the reading cache miss counter.
func RecordCacheMiss(domain string) {
	globalManager.cacheMisses.WithLabelValues(domain).Inc()
}

// RecordCacheError increments the reading cache error counter.
func RecordCacheError() {
	globalManager.cacheErrors.Inc()
}

// UpdateQueueSize sets the current analytics queue depth.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateWorkerCount sets the configured archiver worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateReportCount sets the persisted report count.
func UpdateReportCount(count int) {
	globalManager.reportCount.Set(float64(count))
}

// UpdateSnapshotCount sets the archived snapshot count.
func UpdateSnapshotCount(count int) {
	globalManager.snapshotCount.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRepositoryUpdateLatency records repository write latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records repository read latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// UpdateQueueCapacity sets the maximum analytics queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the analytics queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueues.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeues.Inc()
}

// RecordQueueDropped increments the dropped snapshot counter.
func RecordQueueDropped() {
	globalManager.queueDropped.Inc()
}

// UpdateWorkerActiveCount sets the number of busy archiver workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records archiver processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the archiver error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordEventPublished increments the published events counter.
func RecordEventPublished() {
	globalManager.eventsPublished.Inc()
}

// RecordPublishError increments the publish failure counter.
func RecordPublishError() {
	globalManager.publishErrors.Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// UpdateUptime sets the service uptime in seconds.
func UpdateUptime(seconds float64) {
	globalManager.uptimeSeconds.Set(seconds)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
