package strategy

import (
	"errors"
	"testing"

	"signal-backtest-lab/internal/domain"
	"signal-backtest-lab/internal/rolling"
)

func TestCrossover_Positions(t *testing.T) {
	// Falling then rising indicator
	indicator := []float64{9, 8, 7, 6, 5, 6, 7, 8, 9, 10}
	bars := makeBars(indicator, constant(len(indicator), 50))

	sig, err := NewCrossover(2, 4).Generate(Input{Bars: bars, Direction: 1})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if sig.Offset != 3 {
		t.Fatalf("expected offset 3, got %d", sig.Offset)
	}
	// short MA(2) vs long MA(4) from index 3:
	// 3: 6.5 vs 7.5  -> -1
	// 4: 5.5 vs 6.5  -> -1
	// 5: 5.5 vs 6.0  -> -1
	// 6: 6.5 vs 6.0  -> +1
	// 7..9 rising    -> +1
	equalPositions(t, sig.Positions, []float64{-1, -1, -1, 1, 1, 1, 1})

	if len(sig.ShortMA) != 7 || len(sig.LongMA) != 7 {
		t.Errorf("expected trimmed MA columns of length 7")
	}
	if sig.ZScore != nil {
		t.Error("expected band columns to be nil")
	}
}

func TestCrossover_EqualAveragesGoShort(t *testing.T) {
	bars := makeBars(constant(6, 3), constant(6, 1))

	sig, err := NewCrossover(2, 3).Generate(Input{Bars: bars, Direction: -1})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	// short == long is not "above": -k = +1 for k = -1
	for i, p := range sig.Positions {
		if p != 1 {
			t.Errorf("bar %d: expected 1, got %g", i, p)
		}
	}
}

func TestCrossover_ShortLongerThanLong(t *testing.T) {
	bars := makeBars([]float64{1, 2, 3, 4, 5, 6}, constant(6, 1))

	sig, err := NewCrossover(4, 2).Generate(Input{Bars: bars, Direction: 1})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if sig.Offset != 3 || sig.Len() != 3 {
		t.Errorf("expected warm-up of the slower window, got offset %d len %d", sig.Offset, sig.Len())
	}
}

func TestCrossover_UsesSharedStats(t *testing.T) {
	indicator := []float64{1, 2, 3, 2, 1, 2, 3, 4}
	bars := makeBars(indicator, constant(len(indicator), 1))
	cache := rolling.NewCache(indicator)

	a, err := NewCrossover(2, 3).Generate(Input{Bars: bars, Direction: 1, Stats: cache})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	b, err := NewCrossover(2, 3).Generate(Input{Bars: bars, Direction: 1})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	equalPositions(t, a.Positions, b.Positions)
	if cache.Misses() != 2 {
		t.Errorf("expected two computed windows, got %d", cache.Misses())
	}
}

func TestCrossover_InsufficientData(t *testing.T) {
	bars := makeBars(constant(4, 1), constant(4, 1))

	_, err := NewCrossover(2, 5).Generate(Input{Bars: bars, Direction: 1})
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}
