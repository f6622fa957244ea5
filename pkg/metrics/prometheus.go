// Package metrics provides Prometheus metrics for the reward and feedback
// service.
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

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Core business metrics - evaluation cycles and rewards
	cyclesEvaluated prometheus.Counter
	cycleErrors     prometheus.Counter
	rewardsComputed prometheus.Counter
	rewardValue     prometheus.Histogram
	evaluateLatency prometheus.Histogram
	runsTracked     prometheus.Gauge

	// Completion collaborator metrics
	completionRequests prometheus.Counter
	completionRetries  prometheus.Counter
	completionErrors   prometheus.Counter
	completionLatency  prometheus.Histogram

	// Feedback generation metrics
	feedbackGenerated prometheus.Counter
	feedbackErrors    prometheus.Counter
	feedbackLatency   prometheus.Histogram

	// HTTP performance metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking by component
	errorRateByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "rubric",
		subsystem:        "feedback",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
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
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Core business metrics
	m.cyclesEvaluated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cycles_evaluated_total",
		Help:      "Total number of evaluation cycles completed",
	})

	m.cycleErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cycle_errors_total",
		Help:      "Total number of evaluation cycles that failed",
	})

	m.rewardsComputed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rewards_computed_total",
		Help:      "Total number of per-agent rewards computed",
	})

	m.rewardValue = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reward_value",
		Help:      "Distribution of computed reward values in [0,1]",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	})

	m.evaluateLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "evaluate_latency_milliseconds",
		Help:      "End-to-end evaluation cycle latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.runsTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_tracked",
		Help:      "Number of runs currently tracked by the evaluator store",
	})

	// Completion collaborator metrics
	m.completionRequests = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "completion_requests_total",
		Help:      "Total number of LLM completion calls attempted",
	})

	m.completionRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "completion_retries_total",
		Help:      "Total number of completion retries after transient failures",
	})

	m.completionErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "completion_errors_total",
		Help:      "Total number of failed LLM completion calls",
	})

	m.completionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "completion_latency_milliseconds",
		Help:      "LLM completion call latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Feedback generation metrics
	m.feedbackGenerated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feedback_generated_total",
		Help:      "Total number of feedback texts generated",
	})

	m.feedbackErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feedback_errors_total",
		Help:      "Total number of feedback generations that degraded to an error note",
	})

	m.feedbackLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feedback_latency_milliseconds",
		Help:      "Per-cycle feedback generation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// HTTP performance metrics
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

	// Error tracking
	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "Current heap memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_milliseconds",
		Help:      "Average garbage collection pause time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// RecordCycleEvaluated increments the completed-cycle counter.
func RecordCycleEvaluated() {
	if globalManager.enabled {
		globalManager.cyclesEvaluated.Inc()
	}
}

// RecordCycleError increments the failed-cycle counter.
func RecordCycleError() {
	if globalManager.enabled {
		globalManager.cycleErrors.Inc()
	}
}

// RecordReward observes one computed reward value.
func RecordReward(value float64) {
	if globalManager.enabled {
		globalManager.rewardsComputed.Inc()
		globalManager.rewardValue.Observe(value)
	}
}

// RecordEvaluateLatency observes one cycle's end-to-end latency.
func RecordEvaluateLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.evaluateLatency.Observe(latencyMs)
	}
}

// UpdateRunsTracked sets the tracked-runs gauge.
func UpdateRunsTracked(count int) {
	if globalManager.enabled {
		globalManager.runsTracked.Set(float64(count))
	}
}

// RecordCompletionRequest increments the completion-call counter.
func RecordCompletionRequest() {
	if globalManager.enabled {
		globalManager.completionRequests.Inc()
	}
}

// RecordCompletionRetry increments the completion-retry counter.
func RecordCompletionRetry() {
	if globalManager.enabled {
		globalManager.completionRetries.Inc()
	}
}

// RecordCompletionError increments the completion-error counter.
func RecordCompletionError() {
	if globalManager.enabled {
		globalManager.completionErrors.Inc()
	}
}

// RecordCompletionLatency observes one completion call's latency.
func RecordCompletionLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.completionLatency.Observe(latencyMs)
	}
}

// RecordFeedbackGenerated increments the generated-feedback counter.
func RecordFeedbackGenerated() {
	if globalManager.enabled {
		globalManager.feedbackGenerated.Inc()
	}
}

// RecordFeedbackError increments the degraded-feedback counter.
func RecordFeedbackError() {
	if globalManager.enabled {
		globalManager.feedbackErrors.Inc()
	}
}

// RecordFeedbackLatency observes one cycle's feedback generation latency.
func RecordFeedbackLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.feedbackLatency.Observe(latencyMs)
	}
}

// RecordHTTPRequest records an HTTP request by endpoint, method, and status.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// RecordErrorByComponent records an error for a component.
func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled {
		globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets the heap-usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine-count gauge.
func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime observes an average GC pause time.
func RecordSystemGCPauseTime(pauseMs float64) {
	if globalManager.enabled {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the custom Prometheus registry used by the service.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
