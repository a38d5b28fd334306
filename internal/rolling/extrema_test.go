package rolling

import (
	"math"
	"testing"
)

func TestMinMax_MatchNaiveWindow(t *testing.T) {
	x := []float64{5, 1, 4, 4, 9, 2, 6, 3, 8, 7, 0, 5}
	window := 3

	mins, err := Min(x, window)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	maxs, err := Max(x, window)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := window - 1; i < len(x); i++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range x[i-window+1 : i+1] {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if mins[i] != lo {
			t.Errorf("index %d: expected min %f, got %f", i, lo, mins[i])
		}
		if maxs[i] != hi {
			t.Errorf("index %d: expected max %f, got %f", i, hi, maxs[i])
		}
	}
	for i := 0; i < window-1; i++ {
		if !math.IsNaN(mins[i]) || !math.IsNaN(maxs[i]) {
			t.Errorf("index %d: expected NaN warm-up", i)
		}
	}
}

func TestMax_NaNPoisonsWindow(t *testing.T) {
	x := []float64{1, math.NaN(), 3, 4}
	maxs, err := Max(x, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsNaN(maxs[1]) || !math.IsNaN(maxs[2]) {
		t.Errorf("expected NaN where window holds NaN, got %v", maxs)
	}
	if maxs[3] != 4 {
		t.Errorf("expected 4, got %f", maxs[3])
	}
}
