// Package metrics provides Prometheus metrics for the recordbook engine.
package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// defaultLatencyBuckets are upper bounds in milliseconds for the latency
// histograms.
var defaultLatencyBuckets = []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000} //nolint:gochecknoglobals // read-only bucket layout

// Manager manages all Prometheus metrics for the records engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Engine metrics
	engineRequests     *prometheus.CounterVec
	aggregationLatency *prometheus.HistogramVec
	eventsFolded       *prometheus.CounterVec
	anomalies          *prometheus.CounterVec
	snapshotLookups    *prometheus.CounterVec
	rowsReturned       prometheus.Histogram

	// Collaborator metrics
	collaboratorErrors  *prometheus.CounterVec
	collaboratorLatency *prometheus.HistogramVec

	// Dataset gauges
	catalogSize prometheus.Gauge
	datasetSize *prometheus.GaugeVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System Performance Metrics
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
		namespace:        "recordbook",
		subsystem:        "engine",
		histogramBuckets: defaultLatencyBuckets,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.engineRequests = auto.NewCounterVec(
		m.counterOpts("requests_total", "Records queries by metric and evaluation path"),
		[]string{"metric", "path"},
	)
	m.aggregationLatency = auto.NewHistogramVec(
		m.histogramOpts("aggregation_latency_milliseconds", "Time spent producing candidate rows, by metric and path", m.histogramBuckets),
		[]string{"metric", "path"},
	)
	m.eventsFolded = auto.NewCounterVec(
		m.counterOpts("events_folded_total", "Source events folded by the dynamic aggregator"),
		[]string{"metric"},
	)
	m.anomalies = auto.NewCounterVec(
		m.counterOpts("anomalies_total", "Rows skipped because of data anomalies"),
		[]string{"metric", "reason"},
	)
	m.snapshotLookups = auto.NewCounterVec(
		m.counterOpts("snapshot_lookups_total", "Snapshot store lookups by result"),
		[]string{"metric", "result"},
	)
	m.rowsReturned = auto.NewHistogram(
		m.histogramOpts("rows_returned", "Rows returned per records query", []float64{0, 1, 5, 10, 25, 50, 100, 250, 500}),
	)

	m.collaboratorErrors = auto.NewCounterVec(
		m.counterOpts("collaborator_errors_total", "Failures reported by upstream collaborators"),
		[]string{"collaborator"},
	)
	m.collaboratorLatency = auto.NewHistogramVec(
		m.histogramOpts("collaborator_read_milliseconds", "Collaborator read latency in milliseconds", m.histogramBuckets),
		[]string{"collaborator", "op"},
	)

	m.catalogSize = auto.NewGauge(m.gaugeOpts("catalog_metrics", "Number of metrics in the catalog"))
	m.datasetSize = auto.NewGaugeVec(
		m.gaugeOpts("dataset_rows", "Rows held by the in-memory dataset by table"),
		[]string{"table"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap memory in use in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

// RecordEngineRequest counts a records query answered on path ("snapshot" or "dynamic").
func RecordEngineRequest(metric, path string) {
	globalManager.engineRequests.WithLabelValues(metric, path).Inc()
}

// RecordAggregationLatency records how long candidate rows took to produce.
func RecordAggregationLatency(metric, path string, d time.Duration) {
	globalManager.aggregationLatency.WithLabelValues(metric, path).Observe(ms(d))
}

// RecordEventsFolded adds n folded source events for metric.
func RecordEventsFolded(metric string, n int) {
	if n > 0 {
		globalManager.eventsFolded.WithLabelValues(metric).Add(float64(n))
	}
}

// RecordAnomaly counts one skipped row.
func RecordAnomaly(metric, reason string) {
	globalManager.anomalies.WithLabelValues(metric, reason).Inc()
}

// RecordSnapshotHit counts a snapshot found for metric.
func RecordSnapshotHit(metric string) {
	globalManager.snapshotLookups.WithLabelValues(metric, "hit").Inc()
}

// RecordSnapshotMiss counts a snapshot lookup that fell back to dynamic evaluation.
func RecordSnapshotMiss(metric string) {
	globalManager.snapshotLookups.WithLabelValues(metric, "miss").Inc()
}

// RecordRowsReturned observes the size of a records response.
func RecordRowsReturned(n int) {
	globalManager.rowsReturned.Observe(float64(n))
}

// RecordCollaboratorError counts a failure of the named collaborator.
func RecordCollaboratorError(collaborator string) {
	globalManager.collaboratorErrors.WithLabelValues(collaborator).Inc()
}

// RecordCollaboratorRead records the latency of a collaborator read.
func RecordCollaboratorRead(collaborator, op string, d time.Duration) {
	globalManager.collaboratorLatency.WithLabelValues(collaborator, op).Observe(ms(d))
}

// UpdateCatalogSize sets the number of catalog metrics.
func UpdateCatalogSize(n int) {
	globalManager.catalogSize.Set(float64(n))
}

// UpdateDatasetSize sets the row count of a dataset table.
func UpdateDatasetSize(table string, n int) {
	globalManager.datasetSize.WithLabelValues(table).Set(float64(n))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap usage in bytes.
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

// CollectSystem samples runtime statistics once.
func CollectSystem() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	UpdateSystemMemoryUsage(stats.HeapInuse)
	UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if stats.NumGC > 0 {
		last := stats.PauseNs[(stats.NumGC+255)%256]
		RecordSystemGCPauseTime(float64(last) / float64(time.Millisecond))
	}
}

// RunSystemCollector samples runtime statistics on the global refresh interval until ctx ends.
func RunSystemCollector(ctx context.Context) {
	t := time.NewTicker(globalManager.refreshInterval)
	defer t.Stop()
	CollectSystem()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			CollectSystem()
		}
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
