package lookup

import (
	"testing"
	"time"

	"signal-backtest-lab/internal/domain"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func hourly(n int) []domain.Bar {
	bars := make([]domain.Bar, n)
	for i := range bars {
		bars[i] = domain.Bar{Timestamp: t0.Add(time.Duration(i) * time.Hour), Price: float64(i + 1)}
	}
	return bars
}

func TestWindow(t *testing.T) {
	bars := hourly(10)

	tests := []struct {
		name       string
		start, end time.Time
		first      float64
		n          int
	}{
		{"open both sides", time.Time{}, time.Time{}, 1, 10},
		{"inclusive bounds", t0.Add(2 * time.Hour), t0.Add(4 * time.Hour), 3, 3},
		{"unaligned bounds", t0.Add(90 * time.Minute), t0.Add(270 * time.Minute), 3, 3},
		{"open start", time.Time{}, t0.Add(time.Hour), 1, 2},
		{"open end", t0.Add(8 * time.Hour), time.Time{}, 9, 2},
		{"empty range", t0.Add(5 * time.Hour), t0.Add(4 * time.Hour), 0, 0},
		{"after series", t0.Add(20 * time.Hour), time.Time{}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Window(bars, tt.start, tt.end)
			if len(got) != tt.n {
				t.Fatalf("expected %d bars, got %d", tt.n, len(got))
			}
			if tt.n > 0 && got[0].Price != tt.first {
				t.Errorf("expected first price %v, got %v", tt.first, got[0].Price)
			}
		})
	}
}
