// Package metrics provides Prometheus metrics for the SkyGuard scheduler.
package metrics

import (
	"runtime"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the scheduler.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Safety and booking lifecycle
	safetyEvaluations *prometheus.CounterVec
	violations        *prometheus.CounterVec
	weatherChecks     *prometheus.CounterVec
	statusTransitions *prometheus.CounterVec
	activeBookings    *prometheus.GaugeVec

	// Rescheduling
	rescheduleGenerations   *prometheus.CounterVec
	rescheduleLatency       prometheus.Histogram
	rescheduleCandidates    prometheus.Histogram
	rescheduleConfirmations *prometheus.CounterVec

	// Forecast sources
	forecastRequests *prometheus.CounterVec
	forecastErrors   *prometheus.CounterVec
	forecastLatency  *prometheus.HistogramVec

	// Repository
	repositoryRecords       *prometheus.GaugeVec
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram
	versionConflicts        prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Notification queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Notification workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter
	notificationsDispatched *prometheus.CounterVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

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

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "skyguard",
		subsystem:        "scheduler",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	latencyMs := []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

	m.safetyEvaluations = m.counterVec("safety_evaluations_total",
		"Weather safety evaluations by training level and outcome", "training_level", "outcome")
	m.violations = m.counterVec("safety_violations_total",
		"Minima violations by code", "code")
	m.weatherChecks = m.counterVec("weather_checks_total",
		"Booking weather checks by outcome (safe, unsafe, skipped, error)", "outcome")
	m.statusTransitions = m.counterVec("booking_status_transitions_total",
		"Booking status transitions", "from", "to")
	m.activeBookings = m.gaugeVec("bookings",
		"Bookings currently stored, by status", "status")

	m.rescheduleGenerations = m.counterVec("reschedule_generations_total",
		"Reschedule option generations by outcome", "outcome")
	m.rescheduleLatency = m.histogram("reschedule_generation_duration_milliseconds",
		"Reschedule option generation duration in milliseconds", latencyMs)
	m.rescheduleCandidates = m.histogram("reschedule_candidates",
		"Number of candidates returned per generation", []float64{0, 1, 2, 3, 4, 5, 10})
	m.rescheduleConfirmations = m.counterVec("reschedule_confirmations_total",
		"Reschedule confirmations by outcome", "outcome")

	m.forecastRequests = m.counterVec("forecast_requests_total",
		"Forecast lookups by source", "source")
	m.forecastErrors = m.counterVec("forecast_errors_total",
		"Forecast lookups that failed, by source", "source")
	m.forecastLatency = m.histogramVec("forecast_latency_milliseconds",
		"Forecast lookup latency in milliseconds", m.histogramBuckets, "source")

	m.repositoryRecords = m.gaugeVec("repository_records",
		"Records held by the repository, by kind", "kind")
	m.repositoryUpdateLatency = m.histogram("repository_update_latency_milliseconds",
		"Repository update operation latency in milliseconds", m.histogramBuckets)
	m.repositoryQueryLatency = m.histogram("repository_query_latency_milliseconds",
		"Repository query operation latency in milliseconds", m.histogramBuckets)
	m.versionConflicts = m.counter("repository_version_conflicts_total",
		"Saves rejected because the stored version moved on")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", latencyMs, "endpoint", "method", "status_code")

	m.queueSize = m.gauge("queue_size", "Current size of the notification queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Total number of notifications enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Total number of notifications dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of enqueue errors")
	m.queueProcessingLatency = m.histogram("queue_processing_latency_milliseconds",
		"Queue operation latency in milliseconds", m.histogramBuckets)

	m.workerCount = m.gauge("worker_count", "Configured number of notification workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Number of running notification workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Notification dispatch latency in milliseconds", m.histogramBuckets)
	m.workerErrorRate = m.counter("worker_errors_total", "Total number of notification dispatch errors")
	m.notificationsDispatched = m.counterVec("notifications_dispatched_total",
		"Notifications delivered, by booking action", "action")

	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Total number of errors by component", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Total number of errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

func outcome(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}

// RecordSafetyEvaluation counts one verdict for level.
func RecordSafetyEvaluation(level string, safe bool) {
	globalManager.safetyEvaluations.WithLabelValues(level, outcome(safe, "safe", "unsafe")).Inc()
}

// RecordViolation counts one minima violation.
func RecordViolation(code string) {
	globalManager.violations.WithLabelValues(code).Inc()
}

// RecordWeatherCheck counts a booking weather check.
func RecordWeatherCheck(result string) {
	globalManager.weatherChecks.WithLabelValues(result).Inc()
}

// RecordStatusTransition counts a booking status change.
func RecordStatusTransition(from, to string) {
	globalManager.statusTransitions.WithLabelValues(from, to).Inc()
}

// UpdateActiveBookings sets the number of stored bookings in status.
func UpdateActiveBookings(status string, count int) {
	globalManager.activeBookings.WithLabelValues(status).Set(float64(count))
}

// RecordRescheduleGeneration records a finished option generation.
func RecordRescheduleGeneration(result string, durationMs float64, candidates int) {
	globalManager.rescheduleGenerations.WithLabelValues(result).Inc()
	globalManager.rescheduleLatency.Observe(durationMs)
	if result == "ok" {
		globalManager.rescheduleCandidates.Observe(float64(candidates))
	}
}

// RecordRescheduleConfirmation counts a confirmation attempt.
func RecordRescheduleConfirmation(result string) {
	globalManager.rescheduleConfirmations.WithLabelValues(result).Inc()
}

// RecordForecast records one forecast lookup.
func RecordForecast(source string, latencyMs float64, err error) {
	globalManager.forecastRequests.WithLabelValues(source).Inc()
	globalManager.forecastLatency.WithLabelValues(source).Observe(latencyMs)
	if err != nil {
		globalManager.forecastErrors.WithLabelValues(source).Inc()
	}
}

// Repository Metrics Functions.

// UpdateRepositoryRecords sets the number of records of kind.
func UpdateRepositoryRecords(kind string, count int) {
	globalManager.repositoryRecords.WithLabelValues(kind).Set(float64(count))
}

// RecordRepositoryUpdateLatency records repository update operation latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records repository query operation latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// RecordVersionConflict counts a rejected optimistic save.
func RecordVersionConflict() {
	globalManager.versionConflicts.Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method string, statusCode int, durationMs float64) {
	code := strconv.Itoa(statusCode)
	globalManager.httpRequests.WithLabelValues(endpoint, method, code).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, code).Observe(durationMs)
}

// Queue Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records queue processing latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Worker Metrics Functions.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records notification dispatch latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// RecordNotificationDispatched counts a delivered notification.
func RecordNotificationDispatched(action string) {
	globalManager.notificationsDispatched.WithLabelValues(action).Inc()
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Metrics Functions.

// UpdateSystemMetrics samples heap and goroutine counts.
func UpdateSystemMetrics() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	globalManager.systemMemoryUsage.Set(float64(ms.Alloc))
	globalManager.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
