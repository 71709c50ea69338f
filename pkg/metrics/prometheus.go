// Package metrics provides Prometheus metrics for the matchday rating and
// balancing engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus metric the engine emits.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Rating pipeline
	matchesProcessed prometheus.Counter
	drawsProcessed   prometheus.Counter
	idleInflations   prometheus.Counter

	// Pair statistics bookkeeping
	pairUpdates      prometheus.Counter
	pairUpdateErrors prometheus.Counter

	// Team balancing search quality
	balanceIterations prometheus.Histogram
	balanceObjective  prometheus.Histogram

	// Idle sweep health
	sweepDurationMs prometheus.Histogram
	playersTracked  prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "matchday",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// initializeMetrics registers all metrics on the configured registry.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.matchesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_processed_total",
		Help:      "Total number of decisive match outcomes applied",
	})
	m.drawsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "draws_processed_total",
		Help:      "Total number of drawn match outcomes applied",
	})
	m.idleInflations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "idle_inflations_total",
		Help:      "Total number of players whose sigma was inflated for inactivity",
	})
	m.pairUpdates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pair_updates_total",
		Help:      "Total number of pair statistic rows written",
	})
	m.pairUpdateErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pair_update_errors_total",
		Help:      "Total number of swallowed pair statistic failures",
	})
	m.balanceIterations = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "balance_iterations",
		Help:      "Local search iterations spent per balancing run",
		Buckets:   []float64{0, 10, 25, 50, 100, 200, 300, 400, 500},
	})
	m.balanceObjective = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "balance_objective",
		Help:      "Final objective value per balancing run",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	})
	m.sweepDurationMs = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "idle_sweep_duration_ms",
		Help:      "Idle inflation sweep duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.playersTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "players_tracked",
		Help:      "Number of players with rating state",
	})
}

// RecordMatchProcessed increments the decisive outcome counter.
func RecordMatchProcessed() {
	globalManager.matchesProcessed.Inc()
}

// RecordDrawProcessed increments the draw outcome counter.
func RecordDrawProcessed() {
	globalManager.drawsProcessed.Inc()
}

// RecordIdleInflations adds the count of inflated players from one sweep.
func RecordIdleInflations(count int) {
	globalManager.idleInflations.Add(float64(count))
}

// RecordPairUpdates adds the count of written pair rows.
func RecordPairUpdates(count int) {
	globalManager.pairUpdates.Add(float64(count))
}

// RecordPairUpdateError increments the swallowed pair failure counter.
func RecordPairUpdateError() {
	globalManager.pairUpdateErrors.Inc()
}

// ObserveBalanceIterations records the iterations of one balancing run.
func ObserveBalanceIterations(iterations int) {
	globalManager.balanceIterations.Observe(float64(iterations))
}

// ObserveBalanceObjective records the final objective of one balancing run.
func ObserveBalanceObjective(objective float64) {
	globalManager.balanceObjective.Observe(objective)
}

// ObserveSweepDuration records one idle sweep's duration in milliseconds.
func ObserveSweepDuration(ms float64) {
	globalManager.sweepDurationMs.Observe(ms)
}

// UpdatePlayersTracked sets the tracked player gauge.
func UpdatePlayersTracked(count int) {
	globalManager.playersTracked.Set(float64(count))
}

// GetRegistry returns the custom registry for serving /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
