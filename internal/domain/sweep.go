package domain

import "time"

// Metric names a matrix produced by a sweep.
type Metric string

// Metric constants
const (
	MetricSharpeRatio            Metric = "sharpe_ratio"
	MetricCalmarRatio            Metric = "calmar_ratio"
	MetricNumberOfTrades         Metric = "number_of_trades"
	MetricLongShortDurationRatio Metric = "long_short_duration_ratio"
	MetricMaximumDrawdown        Metric = "maximum_drawdown"
	MetricBeta                   Metric = "beta"
)

// SweepMetrics lists every metric a sweep fills, in report order.
var SweepMetrics = []Metric{
	MetricSharpeRatio,
	MetricCalmarRatio,
	MetricNumberOfTrades,
	MetricLongShortDurationRatio,
	MetricMaximumDrawdown,
	MetricBeta,
}

// Matrix is a row-major rows×cols table of metric values.
type Matrix [][]float64

// NewMatrix allocates a rows×cols matrix filled with fill.
func NewMatrix(rows, cols int, fill float64) Matrix {
	m := make(Matrix, rows)
	for i := range m {
		m[i] = make([]float64, cols)
		for j := range m[i] {
			m[i][j] = fill
		}
	}
	return m
}

// Dims returns (rows, cols).
func (m Matrix) Dims() (int, int) {
	if len(m) == 0 {
		return 0, 0
	}
	return len(m), len(m[0])
}

// CellFailure records a parameter combination whose backtest failed.
type CellFailure struct {
	Row    int
	Col    int
	ParamA float64
	ParamB float64
	Err    error
}

// SweepResult holds one matrix per metric over the GridA × GridB product.
// Rows follow GridA, columns follow GridB.
type SweepResult struct {
	Variant  Variant
	GridA    []float64
	GridB    []float64
	Matrices map[Metric]Matrix
	Failures []CellFailure
}

// RunRecord is a persisted single backtest.
type RunRecord struct {
	RunID     string // deterministic, see idhash.ComputeRunID
	DatasetID string
	Span      Span // bars the run evaluated; zero means the whole dataset
	Config    BacktestConfig
	Summary   PerformanceSummary
	CreatedAt time.Time
}

// SweepCellRecord is one persisted sweep cell.
// Failure is empty for successful cells; metric fields are NaN otherwise.
type SweepCellRecord struct {
	SweepID   string // deterministic, see idhash.ComputeSweepID
	DatasetID string
	Variant   Variant
	Row       int
	Col       int
	ParamA    float64
	ParamB    float64

	SharpeRatio            float64
	CalmarRatio            float64
	MaxDrawdown            float64
	Beta                   float64
	TradeCount             float64
	LongShortDurationRatio float64

	Failure string
}
