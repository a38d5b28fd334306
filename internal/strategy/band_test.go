package strategy

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"signal-backtest-lab/internal/domain"
)

func makeBars(indicator, price []float64) []domain.Bar {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, len(indicator))
	for i := range indicator {
		bars[i] = domain.Bar{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Price:     price[i],
			Indicator: indicator[i],
		}
	}
	return bars
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func equalPositions(t *testing.T, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d positions, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bar %d: expected position %g, got %g (all: %v)", i, want[i], got[i], got)
		}
	}
}

func TestHysteresis_TransitionTable(t *testing.T) {
	nan := math.NaN()
	z := []float64{0.5, 1.2, 0.8, 0.1, 0, 0.9, -1.0, -0.3, -0.99, 0.2, -2, nan, -0.5, 1.0, 1.0}
	want := []float64{0, 1, 1, 1, 0, 0, -1, -1, -1, 0, -1, 0, 0, 1, 1}

	equalPositions(t, Hysteresis(z, 1.0, 1), want)
}

func TestHysteresis_HoldsLongUntilZeroOrOppositeCrossing(t *testing.T) {
	// Enter long, then wander inside (0, thresh) for a long stretch
	z := []float64{2.0}
	for i := 0; i < 50; i++ {
		z = append(z, 0.01+float64(i%10)*0.1)
	}
	z = append(z, -0.01)

	positions := Hysteresis(z, 1.5, 1)
	for i := 0; i <= 50; i++ {
		if positions[i] != 1 {
			t.Fatalf("bar %d: expected hold at +1, got %g", i, positions[i])
		}
	}
	if positions[51] != 0 {
		t.Errorf("expected exit to flat on z<0, got %g", positions[51])
	}
}

func TestHysteresis_NegativeDirection(t *testing.T) {
	z := []float64{1.5, 0.5, -1.5, -0.5, 0.5}
	want := []float64{-1, -1, 1, 1, 0}

	equalPositions(t, Hysteresis(z, 1.0, -1), want)
}

func TestHysteresis_ZeroThreshold(t *testing.T) {
	z := []float64{0.3, -0.3, 0}
	want := []float64{1, -1, 1}

	equalPositions(t, Hysteresis(z, 0, 1), want)
}

func TestBand_StepIndicator(t *testing.T) {
	bars := makeBars([]float64{10, 10, 10, 10, 20, 20, 10, 10}, constant(8, 100))

	sig, err := NewBand(3, 1.0).Generate(Input{Bars: bars, Direction: 1})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if sig.Offset != 2 || len(sig.Bars) != 6 {
		t.Fatalf("expected 2 warm-up bars dropped, got offset %d len %d", sig.Offset, len(sig.Bars))
	}
	equalPositions(t, sig.Positions, []float64{0, 0, 1, 1, -1, -1})

	// Flat window: std 0, z undefined
	if !math.IsNaN(sig.ZScore[0]) || !math.IsNaN(sig.ZScore[1]) {
		t.Errorf("expected NaN z-score on constant window, got %g %g", sig.ZScore[0], sig.ZScore[1])
	}
	// Window [10, 10, 20]: mean 40/3, std sqrt(200/9)
	if math.Abs(sig.ZScore[2]-math.Sqrt2) > 1e-9 {
		t.Errorf("expected z %g, got %g", math.Sqrt2, sig.ZScore[2])
	}
	if sig.UpperBand[2] <= sig.Mean[2] || sig.LowerBand[2] >= sig.Mean[2] {
		t.Errorf("expected lower < mean < upper, got %g %g %g", sig.LowerBand[2], sig.Mean[2], sig.UpperBand[2])
	}
	if sig.ShortMA != nil || sig.LongMA != nil {
		t.Error("expected crossover columns to be nil")
	}
}

func TestBand_ConstantIndicatorStaysFlat(t *testing.T) {
	bars := makeBars(constant(10, 5), constant(10, 1))

	sig, err := NewBand(4, 0.5).Generate(Input{Bars: bars, Direction: 1})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	for i, p := range sig.Positions {
		if p != 0 {
			t.Errorf("bar %d: expected flat, got %g", i, p)
		}
	}
}

func TestBand_InsufficientData(t *testing.T) {
	bars := makeBars(constant(3, 1), constant(3, 1))

	_, err := NewBand(5, 1).Generate(Input{Bars: bars, Direction: 1})
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}

	_, err = NewBand(1, 1).Generate(Input{Direction: 1})
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData for empty series, got %v", err)
	}
}

func TestBand_InputNotModified(t *testing.T) {
	indicator := []float64{1, 3, 2, 5, 4, 6}
	bars := makeBars(indicator, constant(6, 10))
	orig := append([]domain.Bar(nil), bars...)

	if _, err := NewBand(2, 0.5).Generate(Input{Bars: bars, Direction: 1}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	for i := range bars {
		if bars[i] != orig[i] {
			t.Errorf("bar %d modified", i)
		}
	}
}

func TestBand_ConstantWindowIsFlatAfterJumps(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	indicator := make([]float64, 5000)
	v := 2.1e6
	for i := range indicator {
		if r.Float64() < 0.03 {
			v += r.NormFloat64() * 1234.567
		}
		indicator[i] = v
	}
	price := constant(len(indicator), 100)
	window := 24

	sig, err := NewBand(window, 1).Generate(Input{Bars: makeBars(indicator, price), Direction: 1})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	checked := 0
	for i := range sig.Bars {
		src := sig.Offset + i
		flat := true
		for _, x := range indicator[src-window+1 : src+1] {
			if x != indicator[src] {
				flat = false
				break
			}
		}
		if !flat {
			continue
		}
		checked++
		if !math.IsNaN(sig.ZScore[i]) || sig.Positions[i] != 0 {
			t.Fatalf("bar %d: constant window gave z=%g position=%g", src, sig.ZScore[i], sig.Positions[i])
		}
	}
	if checked == 0 {
		t.Fatal("expected constant windows in the series")
	}
}
