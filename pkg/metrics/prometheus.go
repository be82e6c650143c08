// Package metrics provides Prometheus metrics for the rating service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ratingDeltaBuckets cover habit ELO swings (at most ±64) and the ±1 todo rule.
var ratingDeltaBuckets = []float64{-48, -32, -24, -16, -8, -4, -1, 0, 1, 4, 8, 16, 24, 32, 48, 64} //nolint:gochecknoglobals // fixed bucket layout

// Manager manages all Prometheus metrics for the rating service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Rating business metrics
	completionsProcessed *prometheus.CounterVec
	completionsDuplicate prometheus.Counter
	ratingDelta          *prometheus.HistogramVec
	rankChanges          *prometheus.CounterVec
	trackedUsers         prometheus.Gauge
	scoringErrors        prometheus.Counter

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Repository
	repositoryUpdateLatency    prometheus.Histogram
	repositoryQueryLatency     prometheus.Histogram
	repositorySnapshotDuration prometheus.Histogram
	repositorySnapshotLastUnix prometheus.Gauge
	repositorySnapshotCount    prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry *prometheus.Registry //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	Init()
}

// Init rebuilds the global manager on a fresh registry with opts applied.
// Call it once at startup, before any Record* or Update* call and before
// GetRegistry is handed to an exporter.
func Init(opts ...Option) {
	registry := prometheus.NewRegistry()
	customRegistry = registry
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(registry)}, opts...)...)
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "repentdaily",
		subsystem:        "rating",
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

func (m *Manager) initializeMetrics() {
	m.completionsProcessed = m.counterVec("completions_processed_total",
		"Completions applied to a rating record", "kind", "outcome")
	m.completionsDuplicate = m.counter("completions_duplicate_total",
		"Completions dropped as replays of an already seen event id")
	m.ratingDelta = m.histogramVec("rating_delta",
		"Signed rating change per applied completion", ratingDeltaBuckets, "kind")
	m.rankChanges = m.counterVec("rank_changes_total",
		"Tier promotions and demotions", "direction")
	m.trackedUsers = m.gauge("tracked_users", "Users with a rating record")
	m.scoringErrors = m.counter("scoring_errors_total", "Completions the engine refused to score")

	m.queueSize = m.gauge("queue_size", "Completions waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queued completions")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "queue_size / queue_capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Completions accepted by the queue")
	m.queueDequeued = m.counter("queue_dequeued_total", "Completions handed to workers")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Completions rejected by the queue")

	m.workerCount = m.gauge("worker_count", "Running scoring workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Time to score and apply one completion", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Completions a worker failed to apply")

	m.repositoryUpdateLatency = m.histogram("repository_update_latency_milliseconds",
		"Rating record update latency", m.histogramBuckets)
	m.repositoryQueryLatency = m.histogram("repository_query_latency_milliseconds",
		"Leaderboard and record read latency", m.histogramBuckets)
	m.repositorySnapshotDuration = m.histogram("repository_snapshot_rebuild_milliseconds",
		"Time to rebuild the population snapshot", m.histogramBuckets)
	m.repositorySnapshotLastUnix = m.gauge("repository_snapshot_last_unix", "Unix time of the last snapshot")
	m.repositorySnapshotCount = m.counter("repository_snapshots_total", "Population snapshots published")

	m.httpRequests = m.counterVec("http_requests_total",
		"HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration", m.histogramBuckets, "endpoint", "method", "status_code")
	m.httpErrors = m.counterVec("http_errors_total",
		"HTTP responses with status >= 400", "endpoint", "method", "error_type")

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordCompletion counts an applied completion and observes its delta.
func RecordCompletion(kind string, win bool, delta int) {
	outcome := "loss"
	if win {
		outcome = "win"
	}
	globalManager.completionsProcessed.WithLabelValues(kind, outcome).Inc()
	globalManager.ratingDelta.WithLabelValues(kind).Observe(float64(delta))
}

// RecordCompletionDuplicate counts a replayed completion.
func RecordCompletionDuplicate() {
	globalManager.completionsDuplicate.Inc()
}

// RecordRankChange counts a promotion (up) or demotion (down).
func RecordRankChange(up bool) {
	direction := "down"
	if up {
		direction = "up"
	}
	globalManager.rankChanges.WithLabelValues(direction).Inc()
}

// UpdateTrackedUsers sets the number of rating records.
func UpdateTrackedUsers(count int) {
	globalManager.trackedUsers.Set(float64(count))
}

// RecordScoringError counts a completion the engine refused.
func RecordScoringError() {
	globalManager.scoringErrors.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets queue size over capacity.
func UpdateQueueUtilization(ratio float64) {
	globalManager.queueUtilization.Set(ratio)
}

// RecordQueueEnqueue counts an accepted completion.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue counts a completion handed to a worker.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a rejected completion.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency observes per-completion processing time.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed completion.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordRepositoryUpdateLatency observes a record update.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency observes a read.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// RecordRepositorySnapshot records a published population snapshot.
func RecordRepositorySnapshot(durationMs float64, unix int64) {
	globalManager.repositorySnapshotDuration.Observe(durationMs)
	globalManager.repositorySnapshotLastUnix.Set(float64(unix))
	globalManager.repositorySnapshotCount.Inc()
}

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records an error response.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByComponent counts an error raised inside component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap bytes allocated.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime observes the average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry behind the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
