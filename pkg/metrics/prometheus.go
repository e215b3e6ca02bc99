// Package metrics provides Prometheus metrics for the scorecast inference service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prediction outcomes used as the "outcome" label.
const (
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
	OutcomeTimeout   = "timeout"
	OutcomeNoPredict = "no_predict"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Inference
	predictions        *prometheus.CounterVec
	predictLatency     *prometheus.HistogramVec
	fanoutLatency      prometheus.Histogram
	validationFailures *prometheus.CounterVec

	// Registry
	modelsLoaded      prometheus.Gauge
	modelLoadFailures *prometheus.CounterVec
	modelLoadLatency  *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System
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
		namespace:        "scorecast",
		subsystem:        "inference",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.predictions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("predictions_total"),
		Help:        "Model predictions by model family and outcome",
		ConstLabels: labels,
	}, []string{"model", "outcome"})

	m.predictLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("predict_latency_milliseconds"),
		Help:        "Latency of a single model predict call in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"model"})

	m.fanoutLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("fanout_latency_milliseconds"),
		Help:        "Latency of the full fan-out across all loaded models in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.validationFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("validation_failures_total"),
		Help:        "Rejected match states by offending field",
		ConstLabels: labels,
	}, []string{"field"})

	m.modelsLoaded = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("models_loaded"),
		Help:        "Number of model families available in the registry",
		ConstLabels: labels,
	})

	m.modelLoadFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("model_load_failures_total"),
		Help:        "Model artifacts skipped at startup by family and reason",
		ConstLabels: labels,
	}, []string{"model", "reason"})

	m.modelLoadLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("model_load_latency_milliseconds"),
		Help:        "Time to read and decode a model artifact in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"model"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_requests_total"),
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_by_type_total"),
		Help:        "Total number of errors by type",
		ConstLabels: labels,
	}, []string{"error_type", "severity"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_by_endpoint_total"),
		Help:        "Total number of errors by endpoint",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "error_type"})

	m.errorLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("error_latency_milliseconds"),
		Help:        "Latency of operations that resulted in errors",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_memory_usage_bytes"),
		Help:        "System memory usage in bytes",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_goroutine_count"),
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_gc_pause_time_milliseconds"),
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: labels,
	})
}

// RecordPrediction counts one model call and observes its latency.
func RecordPrediction(model, outcome string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.predictions.WithLabelValues(model, outcome).Inc()
	globalManager.predictLatency.WithLabelValues(model).Observe(latencyMs)
}

// RecordFanoutLatency observes the wall time of one fan-out.
func RecordFanoutLatency(latencyMs float64) {
	globalManager.fanoutLatency.Observe(latencyMs)
}

// RecordValidationFailure counts a rejected request body.
func RecordValidationFailure(field string) {
	globalManager.validationFailures.WithLabelValues(field).Inc()
}

// UpdateModelsLoaded sets the number of models in the registry.
func UpdateModelsLoaded(count int) {
	globalManager.modelsLoaded.Set(float64(count))
}

// RecordModelLoadFailure counts an artifact that was skipped at startup.
func RecordModelLoadFailure(model, reason string) {
	globalManager.modelLoadFailures.WithLabelValues(model, reason).Inc()
}

// RecordModelLoadLatency observes the decode time of one artifact.
func RecordModelLoadLatency(model string, latencyMs float64) {
	globalManager.modelLoadLatency.WithLabelValues(model).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType records errors by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records errors by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records latency for operations that resulted in errors.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
