package domain

// PerformanceSummary holds the scalar metrics of one backtest.
// Ratios with a zero denominator are ±Inf or NaN, never an error:
//   - SharpeRatio is non-finite when the period pnl std is 0
//   - CalmarRatio is non-finite when MaxDrawdown is 0
//   - Beta is non-finite when the benchmark variance is 0
//   - LongShortDurationRatio is +Inf with no short bars, NaN with neither long nor short bars
type PerformanceSummary struct {
	SharpeRatio float64
	CalmarRatio float64
	Beta        float64
	MaxDrawdown float64 // most negative bar-level drawdown, <= 0

	LongEntries  int // trades with Δposition > 0
	ShortEntries int // trades with Δposition < 0
	TradeCount   int // LongEntries + ShortEntries

	LongBars               int
	ShortBars              int
	LongShortDurationRatio float64

	AccumulatedReturn float64 // final cumulative pnl
	BarCount          int     // bars after warm-up
	PeriodCount       int     // aggregated evaluation periods
}

// Metric returns the named metric as float64.
// Returns NaN for unknown metrics.
func (s PerformanceSummary) Metric(m Metric) float64 {
	switch m {
	case MetricSharpeRatio:
		return s.SharpeRatio
	case MetricCalmarRatio:
		return s.CalmarRatio
	case MetricNumberOfTrades:
		return float64(s.TradeCount)
	case MetricLongShortDurationRatio:
		return s.LongShortDurationRatio
	case MetricMaximumDrawdown:
		return s.MaxDrawdown
	case MetricBeta:
		return s.Beta
	default:
		return nan()
	}
}
