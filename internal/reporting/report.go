package reporting

import (
	"time"

	"signal-backtest-lab/internal/domain"
)

// SweepReport is the heatmap report of one sweep.
type SweepReport struct {
	// Metadata
	GeneratedAt time.Time
	SweepID     string
	DatasetID   string
	TestSet     string // empty when the sweep ran over the whole dataset

	Result *domain.SweepResult

	// Top cells by Sharpe ratio, finite values only
	Best []CellRow
}

// CellRow is one sweep cell flattened for tables.
type CellRow struct {
	Row         int
	Col         int
	ParamA      float64
	ParamB      float64
	SharpeRatio float64
	CalmarRatio float64
	TradeCount  float64
	MaxDrawdown float64
}

// RunReport is the summary of one stored or fresh backtest.
type RunReport struct {
	GeneratedAt time.Time                 `yaml:"generated_at"`
	RunID       string                    `yaml:"run_id,omitempty"`
	DatasetID   string                    `yaml:"dataset_id,omitempty"`
	StrategyID  string                    `yaml:"strategy_id"`
	Config      domain.BacktestConfig     `yaml:"config"`
	Summary     domain.PerformanceSummary `yaml:"-"`
}

// AxisLabels names the grid axes of a sweep variant.
func AxisLabels(v domain.Variant) (rows, cols string) {
	switch v {
	case domain.VariantCrossover:
		return "short_window", "long_window"
	case domain.VariantBand:
		return "z_thresh", "rolling_period"
	default:
		return "param_a", "param_b"
	}
}
