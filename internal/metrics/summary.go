package metrics

import (
	"fmt"

	"signal-backtest-lab/internal/domain"
)

// Series is the per-bar input to Summarize. All slices are aligned.
type Series struct {
	Positions []float64
	Trades    []float64
	PnL       []float64

	// BenchmarkReturns is the buy-and-hold per-bar return (pct change).
	BenchmarkReturns []float64
}

// Summarize aggregates bar-level series into periods of barsPerPeriod bars
// and computes every metric of domain.PerformanceSummary.
func Summarize(s Series, barsPerPeriod int) (domain.PerformanceSummary, error) {
	n := len(s.PnL)
	if len(s.Positions) != n || len(s.Trades) != n || len(s.BenchmarkReturns) != n {
		return domain.PerformanceSummary{}, fmt.Errorf("%w: misaligned series", domain.ErrInvalidParameter)
	}

	periodPnL, err := AggregatePeriods(s.PnL, barsPerPeriod)
	if err != nil {
		return domain.PerformanceSummary{}, err
	}
	periodBench, err := AggregatePeriods(s.BenchmarkReturns, barsPerPeriod)
	if err != nil {
		return domain.PerformanceSummary{}, err
	}

	const perYear = float64(domain.PeriodsPerYear)
	mdd := MaxDrawdown(s.PnL)
	longEntries, shortEntries := CountTrades(s.Trades)
	longBars, shortBars := HeldBars(s.Positions)

	accumulated := 0.0
	for _, v := range s.PnL {
		accumulated += v
	}

	return domain.PerformanceSummary{
		SharpeRatio: SharpeRatio(periodPnL, perYear),
		CalmarRatio: CalmarRatio(periodPnL, mdd, perYear),
		Beta:        Beta(periodPnL, periodBench),
		MaxDrawdown: mdd,

		LongEntries:  longEntries,
		ShortEntries: shortEntries,
		TradeCount:   longEntries + shortEntries,

		LongBars:               longBars,
		ShortBars:              shortBars,
		LongShortDurationRatio: LongShortDurationRatio(s.Positions),

		AccumulatedReturn: accumulated,
		BarCount:          n,
		PeriodCount:       len(periodPnL),
	}, nil
}
