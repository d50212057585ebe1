// Package metrics provides Prometheus metrics for the building extraction pipeline.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Pipeline throughput
	recordsParsed        prometheus.Counter
	recordsFiltered      *prometheus.CounterVec
	footprintsProcessed  prometheus.Counter
	footprintsDegenerate prometheus.Counter

	// Engine performance
	engineLatency prometheus.Histogram
	engineErrors  prometheus.Counter

	// Pending queue
	pendingSize     prometheus.Gauge
	pendingEnqueued prometheus.Counter
	pendingDequeued prometheus.Counter

	// Worker pool
	unitsTotal prometheus.Gauge
	unitsBusy  prometheus.Gauge

	// Output
	buildingsWritten prometheus.Gauge
	outputBytes      prometheus.Gauge
	runDuration      prometheus.Gauge

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram

	errorRateByComponent *prometheus.CounterVec
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
		namespace:        "nyc",
		subsystem:        "buildings",
		histogramBuckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 50},
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
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.recordsParsed = m.counter("records_parsed_total", "Total number of source records read")
	m.recordsFiltered = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_filtered_total",
		Help:      "Total number of source records rejected before processing, by reason",
	}, []string{"reason"})
	m.footprintsProcessed = m.counter("footprints_processed_total", "Total number of footprints whose rectangle computation completed")
	m.footprintsDegenerate = m.counter("footprints_degenerate_total", "Total number of footprints without a positive-area rectangle")

	m.engineLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "engine_latency_milliseconds",
		Help:      "Rectangle computation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.engineErrors = m.counter("engine_errors_total", "Total number of rectangle computations that failed unexpectedly")

	m.pendingSize = m.gauge("pending_size", "Current number of footprints waiting for an idle unit")
	m.pendingEnqueued = m.counter("pending_enqueued_total", "Total number of footprints parked in the pending queue")
	m.pendingDequeued = m.counter("pending_dequeued_total", "Total number of footprints taken from the pending queue")

	m.unitsTotal = m.gauge("units_total", "Number of compute units in the pool")
	m.unitsBusy = m.gauge("units_busy", "Number of compute units holding a footprint")

	m.buildingsWritten = m.gauge("buildings_written", "Number of buildings in the last written output")
	m.outputBytes = m.gauge("output_bytes", "Size of the last written output in bytes")
	m.runDuration = m.gauge("run_duration_seconds", "Wall time of the last pipeline run in seconds")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Current heap allocation in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Current number of goroutines")
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_milliseconds",
		Help:      "Average garbage collection pause in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Total number of errors by component and type",
	}, []string{"component", "error_type"})
}

// RecordParsed increments the parsed records counter.
func RecordParsed() {
	globalManager.recordsParsed.Inc()
}

// RecordFiltered increments the filtered records counter for reason.
func RecordFiltered(reason string) {
	globalManager.recordsFiltered.WithLabelValues(reason).Inc()
}

// RecordProcessed increments the processed footprints counter.
func RecordProcessed() {
	globalManager.footprintsProcessed.Inc()
}

// RecordDegenerate increments the degenerate footprints counter.
func RecordDegenerate() {
	globalManager.footprintsDegenerate.Inc()
}

// RecordEngineLatency records a rectangle computation latency.
func RecordEngineLatency(latencyMs float64) {
	globalManager.engineLatency.Observe(latencyMs)
}

// RecordEngineError increments the engine error counter.
func RecordEngineError() {
	globalManager.engineErrors.Inc()
}

// UpdatePendingSize updates the pending queue size gauge.
func UpdatePendingSize(size int) {
	globalManager.pendingSize.Set(float64(size))
}

// RecordPendingEnqueue increments the pending enqueue counter.
func RecordPendingEnqueue() {
	globalManager.pendingEnqueued.Inc()
}

// RecordPendingDequeue increments the pending dequeue counter.
func RecordPendingDequeue() {
	globalManager.pendingDequeued.Inc()
}

// UpdateUnitsTotal updates the pool size gauge.
func UpdateUnitsTotal(count int) {
	globalManager.unitsTotal.Set(float64(count))
}

// UpdateUnitsBusy updates the busy units gauge.
func UpdateUnitsBusy(count int) {
	globalManager.unitsBusy.Set(float64(count))
}

// UpdateBuildingsWritten updates the output record count gauge.
func UpdateBuildingsWritten(count int) {
	globalManager.buildingsWritten.Set(float64(count))
}

// UpdateOutputBytes updates the output size gauge.
func UpdateOutputBytes(size int) {
	globalManager.outputBytes.Set(float64(size))
}

// UpdateRunDuration updates the run duration gauge.
func UpdateRunDuration(seconds float64) {
	globalManager.runDuration.Set(seconds)
}

// UpdateSystemMemoryUsage updates the heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records an average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// RecordErrorByComponent records an error by component and type.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile writes the current metrics in the text exposition format to
// path, for collection by the node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteTextfile, err)
	}
	return nil
}
