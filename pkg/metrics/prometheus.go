// Package metrics provides Prometheus metrics for the brandboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the brandboard service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Dashboard metrics
	selectionsStarted   prometheus.Counter
	selectionOutcomes   *prometheus.CounterVec
	selectionsStale     prometheus.Counter
	selectionLoadTime   prometheus.Histogram
	trackedViewers      prometheus.Gauge
	dashboardsRendered  *prometheus.CounterVec
	attributeUsersTotal *prometheus.CounterVec

	// Row store metrics
	storeQueryLatency *prometheus.HistogramVec
	storeErrors       *prometheus.CounterVec
	storeRowsReturned *prometheus.CounterVec
	breakerState      *prometheus.GaugeVec
	breakerRequests   *prometheus.CounterVec

	// Queue and worker metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueRejected      *prometheus.CounterVec
	workerCount        prometheus.Gauge
	workerErrors       prometheus.Counter
	workerProcessingMs prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	sessionRedirects    *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "brandboard",
		subsystem:        "dashboard",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.selectionsStarted = m.counter("selections_started_total", "Place selections started by viewers")
	m.selectionOutcomes = m.counterVec("selection_outcomes_total", "Completed selection loads by final state", "state")
	m.selectionsStale = m.counter("selections_stale_total", "Selection results discarded because a newer selection superseded them")
	m.selectionLoadTime = m.histogram("selection_load_milliseconds", "Time to run the four engagement lookups for a place")
	m.trackedViewers = m.gauge("tracked_viewers", "Viewers with selection state held in memory")
	m.dashboardsRendered = m.counterVec("dashboards_rendered_total", "Dashboard views rendered by granularity", "granularity")
	m.attributeUsersTotal = m.counterVec("attribute_users_total", "Engaged users fed into attribute tallies", "cohort")

	m.storeQueryLatency = m.histogramVec("store_query_latency_milliseconds", "Row store query latency", "table", "op")
	m.storeErrors = m.counterVec("store_errors_total", "Row store query failures", "table", "op")
	m.storeRowsReturned = m.counterVec("store_rows_returned_total", "Rows returned by the row store", "table")
	m.breakerState = m.gaugeVec("breaker_state", "Circuit breaker state (0=closed, 1=half-open, 2=open)", "name")
	m.breakerRequests = m.counterVec("breaker_requests_total", "Requests seen by the circuit breaker by result", "name", "result")

	m.queueSize = m.gauge("queue_size", "Current number of queued selection loads")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued selection loads")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Selection loads enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Selection loads dequeued")
	m.queueRejected = m.counterVec("queue_rejected_total", "Selection loads rejected by the queue", "reason")
	m.workerCount = m.gauge("worker_count", "Number of selection load workers")
	m.workerErrors = m.counter("worker_errors_total", "Selection loads that panicked or failed outright in a worker")
	m.workerProcessingMs = m.histogram("worker_processing_milliseconds", "Time a worker spends on one selection load")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint, method and type", "endpoint", "method", "error_type")
	m.sessionRedirects = m.counterVec("session_redirects_total", "Session middleware redirects by reason", "reason")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause in milliseconds")
}

// Dashboard Metrics Functions.

// RecordSelectionStarted increments the started selections counter.
func RecordSelectionStarted() { globalManager.selectionsStarted.Inc() }

// RecordSelectionOutcome records the final state of a selection load.
func RecordSelectionOutcome(state string) {
	globalManager.selectionOutcomes.WithLabelValues(state).Inc()
}

// RecordSelectionStale counts a result discarded by the generation check.
func RecordSelectionStale() { globalManager.selectionsStale.Inc() }

// RecordSelectionLoadLatency records how long the four lookups took.
func RecordSelectionLoadLatency(latencyMs float64) {
	globalManager.selectionLoadTime.Observe(latencyMs)
}

// UpdateTrackedViewers sets the number of viewers with selection state.
func UpdateTrackedViewers(count int) { globalManager.trackedViewers.Set(float64(count)) }

// RecordDashboardRendered counts a rendered view.
func RecordDashboardRendered(granularity string) {
	globalManager.dashboardsRendered.WithLabelValues(granularity).Inc()
}

// RecordAttributeUsers adds the size of an attribute tally input cohort.
func RecordAttributeUsers(cohort string, n int) {
	globalManager.attributeUsersTotal.WithLabelValues(cohort).Add(float64(n))
}

// Row Store Metrics Functions.

// RecordStoreQuery records the latency of a row store query.
func RecordStoreQuery(table, op string, latencyMs float64) {
	globalManager.storeQueryLatency.WithLabelValues(table, op).Observe(latencyMs)
}

// RecordStoreError counts a failed row store query.
func RecordStoreError(table, op string) {
	globalManager.storeErrors.WithLabelValues(table, op).Inc()
}

// RecordStoreRows adds the number of rows a query returned.
func RecordStoreRows(table string, n int) {
	globalManager.storeRowsReturned.WithLabelValues(table).Add(float64(n))
}

// UpdateBreakerState sets the circuit breaker state gauge.
func UpdateBreakerState(name string, state float64) {
	globalManager.breakerState.WithLabelValues(name).Set(state)
}

// RecordBreakerRequest counts a breaker-guarded request by result.
func RecordBreakerRequest(name, result string) {
	globalManager.breakerRequests.WithLabelValues(name, result).Inc()
}

// Queue and Worker Metrics Functions.

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueRejected counts a rejected enqueue.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the number of workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingMs.Observe(latencyMs)
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordSessionRedirect counts a redirect issued by the session middleware.
func RecordSessionRedirect(reason string) {
	globalManager.sessionRedirects.WithLabelValues(reason).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
