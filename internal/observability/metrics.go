// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid; every Record method is then a no-op.
type Metrics struct {
	// Backtest metrics
	BacktestRunsTotal *prometheus.CounterVec
	BacktestDuration  *prometheus.HistogramVec
	BarsEvaluated     prometheus.Counter

	// Sweep metrics
	SweepsTotal        *prometheus.CounterVec
	SweepDuration      *prometheus.HistogramVec
	SweepCellsTotal    *prometheus.CounterVec
	SweepCellDuration  *prometheus.HistogramVec
	SweepWorkersActive prometheus.Gauge
	RollingCacheHits   prometheus.Counter
	RollingCacheMisses prometheus.Counter

	// Ingestion metrics
	BarsIngested *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulSweep prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered on reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "signal_backtest_lab"
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Backtest metrics
		BacktestRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Total number of backtest runs by variant and status",
		}, []string{"variant", "status"}),
		BacktestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "duration_seconds",
			Help:      "Single backtest duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"variant"}),
		BarsEvaluated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "bars_evaluated_total",
			Help:      "Total number of post warm-up bars evaluated",
		}),

		// Sweep metrics
		SweepsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "runs_total",
			Help:      "Total number of sweeps by variant and status",
		}, []string{"variant", "status"}),
		SweepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "duration_seconds",
			Help:      "Sweep duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"variant"}),
		SweepCellsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "cells_total",
			Help:      "Total number of sweep cells by variant and status",
		}, []string{"variant", "status"}),
		SweepCellDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "cell_duration_seconds",
			Help:      "Sweep cell duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"variant"}),
		SweepWorkersActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "workers_active",
			Help:      "Number of sweep workers currently computing a cell",
		}),
		RollingCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "rolling_cache_hits_total",
			Help:      "Rolling statistics served from the per-sweep cache",
		}),
		RollingCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "rolling_cache_misses_total",
			Help:      "Rolling statistics computed by the per-sweep cache",
		}),

		// Ingestion metrics
		BarsIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "bars_ingested_total",
			Help:      "Total number of bars stored by dataset",
		}, []string{"dataset"}),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulSweep: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_sweep_timestamp",
			Help:      "Unix timestamp of last successful sweep",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordBacktest records a single backtest run.
func (m *Metrics) RecordBacktest(variant string, seconds float64, bars int, err error) {
	if m == nil {
		return
	}
	m.BacktestRunsTotal.WithLabelValues(variant, status(err)).Inc()
	m.BacktestDuration.WithLabelValues(variant).Observe(seconds)
	m.BarsEvaluated.Add(float64(bars))
}

// RecordSweep records a finished sweep.
func (m *Metrics) RecordSweep(variant string, seconds float64, finishedUnix int64, err error) {
	if m == nil {
		return
	}
	m.SweepsTotal.WithLabelValues(variant, status(err)).Inc()
	m.SweepDuration.WithLabelValues(variant).Observe(seconds)
	if err == nil {
		m.LastSuccessfulSweep.Set(float64(finishedUnix))
	}
}

// RecordSweepCell records one computed cell.
func (m *Metrics) RecordSweepCell(variant string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.SweepCellsTotal.WithLabelValues(variant, status(err)).Inc()
	m.SweepCellDuration.WithLabelValues(variant).Observe(seconds)
}

// WorkerStarted increments the active worker gauge.
func (m *Metrics) WorkerStarted() {
	if m == nil {
		return
	}
	m.SweepWorkersActive.Inc()
}

// WorkerStopped decrements the active worker gauge.
func (m *Metrics) WorkerStopped() {
	if m == nil {
		return
	}
	m.SweepWorkersActive.Dec()
}

// RecordCacheStats adds rolling cache hit/miss counts.
func (m *Metrics) RecordCacheStats(hits, misses int64) {
	if m == nil {
		return
	}
	m.RollingCacheHits.Add(float64(hits))
	m.RollingCacheMisses.Add(float64(misses))
}

// RecordBarsIngested adds stored bars for a dataset.
func (m *Metrics) RecordBarsIngested(dataset string, n int) {
	if m == nil {
		return
	}
	m.BarsIngested.WithLabelValues(dataset).Add(float64(n))
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
