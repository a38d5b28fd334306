package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"signal-backtest-lab/internal/domain"
	"signal-backtest-lab/internal/ledger"
	"signal-backtest-lab/internal/metrics"
	"signal-backtest-lab/internal/rolling"
	"signal-backtest-lab/internal/strategy"
)

// Result holds backtest output.
type Result struct {
	StrategyID string
	Config     domain.BacktestConfig

	// Table is the enriched bar table, one row per post warm-up bar.
	Table   []domain.EnrichedBar
	Summary domain.PerformanceSummary
}

var validate = validator.New()

// ValidateConfig checks cost, direction, bars per period and the strategy
// parameters. Failures wrap domain.ErrInvalidParameter.
func ValidateConfig(cfg domain.BacktestConfig) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("%w: %s", domain.ErrInvalidParameter, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidParameter, err)
	}
	if !isFinite(cfg.TransactionCost) || !isFinite(cfg.Direction) {
		return fmt.Errorf("%w: cost and direction must be finite", domain.ErrInvalidParameter)
	}
	return nil
}

// Run executes one backtest over bars. Bars are read, never modified.
func Run(ctx context.Context, cfg domain.BacktestConfig, bars []domain.Bar) (*Result, error) {
	return RunWithStats(ctx, cfg, bars, nil)
}

// RunWithStats is Run with a shared rolling statistics source for the
// indicator column of bars. A nil stats computes directly.
func RunWithStats(ctx context.Context, cfg domain.BacktestConfig, bars []domain.Bar, stats rolling.Stats) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no bars", domain.ErrInsufficientData)
	}

	gen, err := strategy.FromConfig(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	sig, err := gen.Generate(strategy.Input{
		Bars:      bars,
		Direction: cfg.Direction,
		Stats:     stats,
	})
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", gen.ID(), err)
	}

	prices := make([]float64, len(sig.Bars))
	for i, b := range sig.Bars {
		prices[i] = b.Price
	}

	l, err := ledger.Build(prices, sig.Positions, cfg.TransactionCost)
	if err != nil {
		return nil, fmt.Errorf("ledger %s: %w", gen.ID(), err)
	}

	summary, err := metrics.Summarize(metrics.Series{
		Positions:        sig.Positions,
		Trades:           l.Trade,
		PnL:              l.PnL,
		BenchmarkReturns: l.PctChange,
	}, cfg.BarsPerPeriod)
	if err != nil {
		return nil, fmt.Errorf("summarize %s: %w", gen.ID(), err)
	}

	return &Result{
		StrategyID: gen.ID(),
		Config:     cfg,
		Table:      buildTable(sig, l),
		Summary:    summary,
	}, nil
}

// buildTable assembles the enriched bar rows. Columns a variant does not
// produce are NaN.
func buildTable(sig *strategy.Signals, l *ledger.Ledger) []domain.EnrichedBar {
	rows := make([]domain.EnrichedBar, sig.Len())
	for i, b := range sig.Bars {
		rows[i] = domain.EnrichedBar{
			Timestamp: b.Timestamp,
			Price:     b.Price,
			Indicator: b.Indicator,

			ShortMA:   at(sig.ShortMA, i),
			LongMA:    at(sig.LongMA, i),
			Mean:      at(sig.Mean, i),
			UpperBand: at(sig.UpperBand, i),
			LowerBand: at(sig.LowerBand, i),
			ZScore:    at(sig.ZScore, i),

			Position:     sig.Positions[i],
			PrevPosition: l.PrevPosition[i],
			PctChange:    l.PctChange[i],
			PriceChange:  l.PriceChange[i],
			Trade:        l.Trade[i],
			Cost:         l.Cost[i],
			Earnings:     l.Earnings[i],
			PnL:          l.PnL[i],
			CumPnL:       l.CumPnL[i],
			Drawdown:     l.Drawdown[i],

			BenchmarkCum:      l.BenchmarkCum[i],
			BenchmarkDrawdown: l.BenchmarkDrawdown[i],
		}
	}
	return rows
}

func at(col []float64, i int) float64 {
	if col == nil {
		return math.NaN()
	}
	return col[i]
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
