// Package metrics provides Prometheus metrics for the AUGE engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Latency buckets in milliseconds.
var defaultBuckets = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000} //nolint:gochecknoglobals // bucket layout

// Manager manages all Prometheus metrics for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Observation store
	observationsAppended *prometheus.CounterVec
	observationsRejected *prometheus.CounterVec
	outcomesUnmatched    prometheus.Counter
	outcomesDuplicate    prometheus.Counter
	totalObservations    prometheus.Gauge
	storeLatency         *prometheus.HistogramVec

	// Adaptive cache
	cacheRebuilds        prometheus.Counter
	cacheRebuildShared   prometheus.Counter
	cacheRebuildDuration prometheus.Histogram
	cacheStale           prometheus.Gauge
	computeFaults        *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// Compute queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec

	// Compute workers
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter
	inlineFallbacks         prometheus.Counter

	// Scheduler
	scheduledRuns *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure replaces the global manager and its registry with one built
// from opts. Call it at startup, before GetRegistry is handed to an HTTP
// handler.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "auge",
		subsystem:        "engine",
		histogramBuckets: defaultBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.customLabels)

	m.observationsAppended = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "observations_appended_total",
		Help:        "Records appended to the observation store by kind",
		ConstLabels: constLabels,
	}, []string{"kind"})

	m.observationsRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "observations_rejected_total",
		Help:        "Records rejected at the boundary by kind",
		ConstLabels: constLabels,
	}, []string{"kind"})

	m.outcomesUnmatched = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "outcomes_unmatched_total",
		Help:        "Outcomes accepted before their prediction was known",
		ConstLabels: constLabels,
	})

	m.outcomesDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "outcomes_duplicate_total",
		Help:        "Outcomes that replaced an earlier outcome for the same prediction",
		ConstLabels: constLabels,
	})

	m.totalObservations = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "total_observations",
		Help:        "Observation count reported by the last adaptive snapshot",
		ConstLabels: constLabels,
	})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "store_latency_milliseconds",
		Help:        "Observation store operation latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	}, []string{"op"})

	m.cacheRebuilds = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "cache_rebuilds_total",
		Help:        "Adaptive cache rebuilds executed",
		ConstLabels: constLabels,
	})

	m.cacheRebuildShared = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "cache_rebuild_shared_total",
		Help:        "Callers that joined a rebuild already in flight",
		ConstLabels: constLabels,
	})

	m.cacheRebuildDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "cache_rebuild_duration_milliseconds",
		Help:        "Adaptive cache rebuild duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	})

	m.cacheStale = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "cache_stale",
		Help:        "1 when the served snapshot is older than the store",
		ConstLabels: constLabels,
	})

	m.computeFaults = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "compute_faults_total",
		Help:        "Internal computation faults degraded to safe defaults",
		ConstLabels: constLabels,
	}, []string{"component"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_endpoint_total",
		Help:        "Total number of errors by endpoint",
		ConstLabels: constLabels,
	}, []string{"endpoint", "method", "error_type"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_size",
		Help:        "Current size of the compute job queue",
		ConstLabels: constLabels,
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_capacity",
		Help:        "Maximum compute job queue capacity",
		ConstLabels: constLabels,
	})

	m.queueEnqueueRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_enqueue_total",
		Help:        "Total number of compute jobs enqueued",
		ConstLabels: constLabels,
	})

	m.queueEnqueueErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_enqueue_errors_total",
		Help:        "Compute jobs rejected by the queue",
		ConstLabels: constLabels,
	}, []string{"reason"})

	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "worker_active_count",
		Help:        "Number of compute workers",
		ConstLabels: constLabels,
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "worker_processing_latency_milliseconds",
		Help:        "Compute job latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	})

	m.workerErrorRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "worker_errors_total",
		Help:        "Compute jobs that failed or panicked",
		ConstLabels: constLabels,
	})

	m.inlineFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "compute_inline_fallback_total",
		Help:        "Compute jobs executed on the caller because the queue rejected them",
		ConstLabels: constLabels,
	})

	m.scheduledRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "scheduled_runs_total",
		Help:        "Scheduled job executions by job and result",
		ConstLabels: constLabels,
	}, []string{"job", "result"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_usage_bytes",
		Help:        "System memory usage in bytes",
		ConstLabels: constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: constLabels,
	})
}

// Observation store.

// RecordObservationAppended increments the appended counter for a record kind.
func RecordObservationAppended(kind string) {
	globalManager.observationsAppended.WithLabelValues(kind).Inc()
}

// RecordObservationRejected increments the rejected counter for a record kind.
func RecordObservationRejected(kind string) {
	globalManager.observationsRejected.WithLabelValues(kind).Inc()
}

// RecordOutcomeUnmatched increments the unmatched outcome counter.
func RecordOutcomeUnmatched() {
	globalManager.outcomesUnmatched.Inc()
}

// RecordOutcomeDuplicate increments the duplicate outcome counter.
func RecordOutcomeDuplicate() {
	globalManager.outcomesDuplicate.Inc()
}

// UpdateTotalObservations sets the observation gauge.
func UpdateTotalObservations(n int) {
	globalManager.totalObservations.Set(float64(n))
}

// RecordStoreLatency records the latency of a store operation.
func RecordStoreLatency(op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(latencyMs)
}

// Adaptive cache.

// RecordCacheRebuild records one executed rebuild and its duration.
func RecordCacheRebuild(durationMs float64) {
	globalManager.cacheRebuilds.Inc()
	globalManager.cacheRebuildDuration.Observe(durationMs)
}

// RecordCacheRebuildShared increments the shared rebuild counter.
func RecordCacheRebuildShared() {
	globalManager.cacheRebuildShared.Inc()
}

// UpdateCacheStale sets the staleness gauge.
func UpdateCacheStale(stale bool) {
	if stale {
		globalManager.cacheStale.Set(1)
		return
	}
	globalManager.cacheStale.Set(0)
}

// RecordComputeFault increments the fault counter for a component.
func RecordComputeFault(component string) {
	globalManager.computeFaults.WithLabelValues(component).Inc()
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// Compute queue.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// Compute workers.

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// RecordInlineFallback increments the inline fallback counter.
func RecordInlineFallback() {
	globalManager.inlineFallbacks.Inc()
}

// Scheduler.

// RecordScheduledRun records a scheduled job execution.
func RecordScheduledRun(job string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	globalManager.scheduledRuns.WithLabelValues(job, result).Inc()
}

// System.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
