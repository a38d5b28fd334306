package strategy

import (
	"fmt"

	"signal-backtest-lab/internal/domain"
	"signal-backtest-lab/internal/rolling"
)

// indicators extracts the indicator column.
func indicators(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Indicator
	}
	return out
}

// statsFor returns the configured Stats or a direct one over the indicator column.
func statsFor(in Input) rolling.Stats {
	if in.Stats != nil {
		return in.Stats
	}
	return rolling.NewDirect(indicators(in.Bars))
}

// checkWindow reports ErrInsufficientData when the series cannot fill window.
func checkWindow(n, window int) error {
	if n == 0 {
		return fmt.Errorf("%w: empty series", domain.ErrInsufficientData)
	}
	if window > n {
		return fmt.Errorf("%w: window %d needs at least %d bars, got %d",
			domain.ErrInsufficientData, window, window, n)
	}
	return nil
}

// trim returns the tail of x starting at offset. The result aliases x.
func trim(x []float64, offset int) []float64 {
	return x[offset:]
}
