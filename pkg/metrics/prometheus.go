// Package metrics provides Prometheus metrics for the golfr service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exposed by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Rounds and entry flow
	roundsSubmitted    prometheus.Counter
	roundsDuplicate    prometheus.Counter
	roundSubmitErrors  prometheus.Counter
	entrySessions      prometheus.Gauge
	entryTransitions   *prometheus.CounterVec
	statsComputations  prometheus.Counter
	courseSearches     prometheus.Counter
	courseSearchResult prometheus.Histogram

	// Feed
	likesToggled    prometheus.Counter
	likeWriteErrors prometheus.Counter

	// Leaderboard
	leaderboardPlayers  prometheus.Gauge
	leaderboardUpdates  prometheus.Counter
	leaderboardRebuilds prometheus.Counter

	// Backend
	backendCalls   *prometheus.CounterVec
	backendLatency *prometheus.HistogramVec

	// Pipeline
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueRejected      *prometheus.CounterVec
	workerCount        prometheus.Gauge
	workerProcessed    *prometheus.CounterVec
	workerLatency      prometheus.Histogram
	errorsByComponent  *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpRequestLatency *prometheus.HistogramVec
}

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry served on /metrics

var globalManager *Manager //nolint:gochecknoglobals // singleton behind the package-level recorders

func init() { //nolint:gochecknoinits // collectors must exist before any recorder runs
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a Manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "golfr",
		subsystem:        "service",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
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

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.roundsSubmitted = m.counter("rounds_submitted_total", "Rounds persisted through the entry flow or the direct API")
	m.roundsDuplicate = m.counter("rounds_duplicate_total", "Round submissions dropped by idempotency key")
	m.roundSubmitErrors = m.counter("round_submit_errors_total", "Round submissions that failed to persist")
	m.entrySessions = m.gauge("entry_sessions", "Open round-entry sessions")
	m.entryTransitions = m.counterVec("entry_transitions_total", "Round-entry state transitions", "to")
	m.statsComputations = m.counter("stats_computations_total", "Profile and analytics aggregations")
	m.courseSearches = m.counter("course_searches_total", "Course catalog searches")
	m.courseSearchResult = m.histogram("course_search_results", "Courses returned per search", []float64{0, 1, 2, 5, 10, 25, 50})

	m.likesToggled = m.counter("likes_toggled_total", "Optimistic like toggles")
	m.likeWriteErrors = m.counter("like_write_errors_total", "Like writes that failed remotely and were not rolled back")

	m.leaderboardPlayers = m.gauge("leaderboard_players", "Players ranked on the best-round leaderboard")
	m.leaderboardUpdates = m.counter("leaderboard_updates_total", "Leaderboard best-score improvements")
	m.leaderboardRebuilds = m.counter("leaderboard_rebuilds_total", "Full leaderboard rebuilds from the backend")

	m.backendCalls = m.counterVec("backend_calls_total", "Backend row-store calls", "op", "table", "result")
	m.backendLatency = m.histogramVec("backend_latency_milliseconds", "Backend row-store latency in milliseconds", "op", "table")

	m.queueSize = m.gauge("queue_size", "Events waiting in the pipeline queue")
	m.queueCapacity = m.gauge("queue_capacity", "Pipeline queue capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Events accepted by the pipeline queue")
	m.queueRejected = m.counterVec("queue_rejected_total", "Events rejected by the pipeline queue", "reason")
	m.workerCount = m.gauge("worker_count", "Pipeline workers running")
	m.workerProcessed = m.counterVec("worker_events_total", "Events handled by workers", "kind", "result")
	m.workerLatency = m.histogram("worker_latency_milliseconds", "Per-event handling latency in milliseconds", m.histogramBuckets)
	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "type")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestLatency = m.histogramVec("http_request_duration_milliseconds", "HTTP request latency in milliseconds", "endpoint", "method")
}

// GetRegistry returns the registry served on /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

func on(f func(m *Manager)) {
	if globalManager != nil && globalManager.enabled {
		f(globalManager)
	}
}

// RecordRoundSubmitted counts a persisted round.
func RecordRoundSubmitted() { on(func(m *Manager) { m.roundsSubmitted.Inc() }) }

// RecordRoundDuplicate counts a submission dropped by idempotency key.
func RecordRoundDuplicate() { on(func(m *Manager) { m.roundsDuplicate.Inc() }) }

// RecordRoundSubmitError counts a failed persistence attempt.
func RecordRoundSubmitError() { on(func(m *Manager) { m.roundSubmitErrors.Inc() }) }

// UpdateEntrySessions sets the open round-entry session gauge.
func UpdateEntrySessions(n int) { on(func(m *Manager) { m.entrySessions.Set(float64(n)) }) }

// RecordEntryTransition counts a wizard transition into state.
func RecordEntryTransition(state string) {
	on(func(m *Manager) { m.entryTransitions.WithLabelValues(state).Inc() })
}

// RecordStatsComputation counts an aggregation over a round collection.
func RecordStatsComputation() { on(func(m *Manager) { m.statsComputations.Inc() }) }

// RecordCourseSearch counts a catalog search and its result size.
func RecordCourseSearch(results int) {
	on(func(m *Manager) {
		m.courseSearches.Inc()
		m.courseSearchResult.Observe(float64(results))
	})
}

// RecordLikeToggled counts an optimistic like toggle.
func RecordLikeToggled() { on(func(m *Manager) { m.likesToggled.Inc() }) }

// RecordLikeWriteError counts a like that failed to persist.
func RecordLikeWriteError() { on(func(m *Manager) { m.likeWriteErrors.Inc() }) }

// UpdateLeaderboardPlayers sets the ranked player gauge.
func UpdateLeaderboardPlayers(n int) { on(func(m *Manager) { m.leaderboardPlayers.Set(float64(n)) }) }

// RecordLeaderboardUpdate counts a best-score improvement.
func RecordLeaderboardUpdate() { on(func(m *Manager) { m.leaderboardUpdates.Inc() }) }

// RecordLeaderboardRebuild counts a full rebuild.
func RecordLeaderboardRebuild() { on(func(m *Manager) { m.leaderboardRebuilds.Inc() }) }

// RecordBackendCall records a row-store call outcome and its latency.
func RecordBackendCall(op, table string, err error, latencyMs float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	on(func(m *Manager) {
		m.backendCalls.WithLabelValues(op, table, result).Inc()
		m.backendLatency.WithLabelValues(op, table).Observe(latencyMs)
	})
}

// UpdateQueueSize sets the queued event gauge.
func UpdateQueueSize(n int) { on(func(m *Manager) { m.queueSize.Set(float64(n)) }) }

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(n int) { on(func(m *Manager) { m.queueCapacity.Set(float64(n)) }) }

// RecordQueueEnqueue counts an accepted event.
func RecordQueueEnqueue() { on(func(m *Manager) { m.queueEnqueued.Inc() }) }

// RecordQueueRejected counts a rejected event by reason.
func RecordQueueRejected(reason string) {
	on(func(m *Manager) { m.queueRejected.WithLabelValues(reason).Inc() })
}

// UpdateWorkerCount sets the running worker gauge.
func UpdateWorkerCount(n int) { on(func(m *Manager) { m.workerCount.Set(float64(n)) }) }

// RecordWorkerEvent records a handled event and its latency.
func RecordWorkerEvent(kind string, err error, latencyMs float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	on(func(m *Manager) {
		m.workerProcessed.WithLabelValues(kind, result).Inc()
		m.workerLatency.Observe(latencyMs)
	})
}

// RecordErrorByComponent counts an error attributed to a component.
func RecordErrorByComponent(component, errorType string) {
	on(func(m *Manager) { m.errorsByComponent.WithLabelValues(component, errorType).Inc() })
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	on(func(m *Manager) {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
		m.httpRequestLatency.WithLabelValues(endpoint, method).Observe(durationMs)
	})
}
