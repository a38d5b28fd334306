package metrics

import (
	"errors"
	"math"
	"testing"

	"signal-backtest-lab/internal/domain"
)

func TestSummarize_Counts(t *testing.T) {
	s := Series{
		Positions:        []float64{1, 1, -1, -1, 0, 1},
		Trades:           []float64{1, 0, -2, 0, 1, 1},
		PnL:              []float64{-0.001, 0.02, -0.012, 0.01, -0.001, -0.001},
		BenchmarkReturns: []float64{0, 0.02, 0.01, -0.01, 0.005, 0},
	}

	sum, err := Summarize(s, 2)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if sum.LongEntries != 3 || sum.ShortEntries != 1 || sum.TradeCount != 4 {
		t.Errorf("unexpected trade counts %d/%d/%d", sum.LongEntries, sum.ShortEntries, sum.TradeCount)
	}
	if sum.LongBars != 3 || sum.ShortBars != 2 {
		t.Errorf("unexpected held bars %d/%d", sum.LongBars, sum.ShortBars)
	}
	if sum.LongShortDurationRatio != 1.5 {
		t.Errorf("expected duration ratio 1.5, got %g", sum.LongShortDurationRatio)
	}
	if sum.BarCount != 6 || sum.PeriodCount != 3 {
		t.Errorf("expected 6 bars in 3 periods, got %d/%d", sum.BarCount, sum.PeriodCount)
	}
	if math.Abs(sum.AccumulatedReturn-0.015) > tol {
		t.Errorf("expected accumulated return 0.015, got %g", sum.AccumulatedReturn)
	}
	if sum.MaxDrawdown > 0 {
		t.Errorf("expected non-positive max drawdown, got %g", sum.MaxDrawdown)
	}
	for _, v := range []float64{sum.SharpeRatio, sum.CalmarRatio, sum.Beta} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("expected finite ratios, got %+v", sum)
		}
	}
}

func TestSummarize_NoActivityIsNonFinite(t *testing.T) {
	zeros := make([]float64, 48)
	sum, err := Summarize(Series{
		Positions:        zeros,
		Trades:           zeros,
		PnL:              zeros,
		BenchmarkReturns: zeros,
	}, 24)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if !math.IsNaN(sum.SharpeRatio) || !math.IsNaN(sum.CalmarRatio) || !math.IsNaN(sum.Beta) {
		t.Errorf("expected NaN ratios, got sharpe=%g calmar=%g beta=%g", sum.SharpeRatio, sum.CalmarRatio, sum.Beta)
	}
	if !math.IsNaN(sum.LongShortDurationRatio) {
		t.Errorf("expected NaN duration ratio, got %g", sum.LongShortDurationRatio)
	}
	if sum.TradeCount != 0 || sum.MaxDrawdown != 0 {
		t.Errorf("expected no trades and no drawdown, got %d/%g", sum.TradeCount, sum.MaxDrawdown)
	}
}

func TestSummarize_Errors(t *testing.T) {
	_, err := Summarize(Series{PnL: []float64{1}, Positions: []float64{1}}, 1)
	if !errors.Is(err, domain.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for misaligned series, got %v", err)
	}

	one := []float64{0}
	_, err = Summarize(Series{PnL: one, Positions: one, Trades: one, BenchmarkReturns: one}, 0)
	if !errors.Is(err, domain.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for zero period, got %v", err)
	}
}
