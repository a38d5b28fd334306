package ledger

import (
	"errors"
	"math"
	"testing"

	"signal-backtest-lab/internal/domain"
)

func TestBuild_ConstantPriceOnlyCostsAccrue(t *testing.T) {
	prices := []float64{100, 100, 100, 100, 100, 100}
	positions := []float64{0, 0, 1, 1, -1, -1}

	l, err := Build(prices, positions, 0.001)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	wantTrade := []float64{0, 0, 1, 0, -2, 0}
	wantCost := []float64{0, 0, 0.001, 0, 0.002, 0}
	wantCum := []float64{0, 0, -0.001, -0.001, -0.003, -0.003}

	for i := range prices {
		if l.PctChange[i] != 0 {
			t.Errorf("bar %d: expected zero pct change, got %g", i, l.PctChange[i])
		}
		if l.Trade[i] != wantTrade[i] {
			t.Errorf("bar %d: expected trade %g, got %g", i, wantTrade[i], l.Trade[i])
		}
		if math.Abs(l.Cost[i]-wantCost[i]) > 1e-12 {
			t.Errorf("bar %d: expected cost %g, got %g", i, wantCost[i], l.Cost[i])
		}
		if math.Abs(l.PnL[i]+l.Cost[i]) > 1e-12 {
			t.Errorf("bar %d: expected pnl = -cost, got %g", i, l.PnL[i])
		}
		if math.Abs(l.CumPnL[i]-wantCum[i]) > 1e-12 {
			t.Errorf("bar %d: expected cum pnl %g, got %g", i, wantCum[i], l.CumPnL[i])
		}
		if l.BenchmarkCum[i] != 0 || l.BenchmarkDrawdown[i] != 0 {
			t.Errorf("bar %d: expected flat benchmark", i)
		}
	}
}

func TestBuild_PrevPositionLagsOneBar(t *testing.T) {
	prices := []float64{10, 11, 12, 11}
	positions := []float64{1, 1, -1, 0}

	l, err := Build(prices, positions, 0)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	want := []float64{0, 1, 1, -1}
	for i := range want {
		if l.PrevPosition[i] != want[i] {
			t.Errorf("bar %d: expected prev position %g, got %g", i, want[i], l.PrevPosition[i])
		}
	}
	// Bar 1: long from bar 0 earns +10%
	if math.Abs(l.PnL[1]-0.1) > 1e-12 {
		t.Errorf("expected pnl 0.1, got %g", l.PnL[1])
	}
	// Bar 3: short from bar 2 earns when price falls 12 -> 11
	if math.Abs(l.PnL[3]-1.0/12) > 1e-12 {
		t.Errorf("expected pnl %g, got %g", 1.0/12, l.PnL[3])
	}
	if l.Earnings[3] != 1 {
		t.Errorf("expected earnings 1, got %g", l.Earnings[3])
	}
}

func TestBuild_CumPnLIsRunningSum(t *testing.T) {
	prices := []float64{100, 103, 99, 104, 101, 98, 105, 107}
	positions := []float64{1, -1, 1, 1, 0, -1, 1, 0}

	l, err := Build(prices, positions, 0.0006)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	sum := 0.0
	for i := range l.PnL {
		sum += l.PnL[i]
		if l.CumPnL[i] != sum {
			t.Errorf("bar %d: cum pnl %g != running sum %g", i, l.CumPnL[i], sum)
		}
	}
}

func TestDrawdown_NonPositiveAndZeroAtPeaks(t *testing.T) {
	cum := []float64{0.01, 0.03, 0.02, -0.01, 0.04, 0.04, 0.035}
	dd := Drawdown(cum)

	peak := math.Inf(-1)
	for i, v := range cum {
		if dd[i] > 0 {
			t.Errorf("bar %d: drawdown %g > 0", i, dd[i])
		}
		if v >= peak {
			peak = v
			if dd[i] != 0 {
				t.Errorf("bar %d: expected 0 at new peak, got %g", i, dd[i])
			}
		}
	}
	if math.Abs(dd[3]-(-0.04)) > 1e-12 {
		t.Errorf("expected -0.04 at bar 3, got %g", dd[3])
	}
}

func TestBuild_Errors(t *testing.T) {
	if _, err := Build(nil, nil, 0); !errors.Is(err, domain.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := Build([]float64{1, 2}, []float64{0}, 0); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for misaligned input, got %v", err)
	}
	if _, err := Build([]float64{1}, []float64{0}, -0.1); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for negative cost, got %v", err)
	}
}
