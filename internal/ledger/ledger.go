// Package ledger turns a position series into per-bar returns, costs,
// cumulative P&L and drawdown, alongside a buy-and-hold benchmark.
//
// The exposure applied to bar t's return is the position decided at t-1.
package ledger

import (
	"fmt"
	"math"

	"signal-backtest-lab/internal/domain"
)

// Ledger holds aligned per-bar accounting columns.
type Ledger struct {
	PrevPosition []float64
	PctChange    []float64
	PriceChange  []float64
	Trade        []float64
	Cost         []float64

	// Earnings is absolute P&L: prev_position*price_change - cost*price.
	Earnings []float64

	PnL      []float64
	CumPnL   []float64
	Drawdown []float64

	BenchmarkCum      []float64
	BenchmarkDrawdown []float64
}

// Len returns the number of bars.
func (l *Ledger) Len() int {
	return len(l.PnL)
}

// Build computes the ledger. prices and positions must be aligned.
func Build(prices, positions []float64, costRate float64) (*Ledger, error) {
	n := len(prices)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty price series", domain.ErrInsufficientData)
	}
	if len(positions) != n {
		return nil, fmt.Errorf("%w: %d positions for %d prices", domain.ErrInvalidParameter, len(positions), n)
	}
	if costRate < 0 || math.IsNaN(costRate) || math.IsInf(costRate, 0) {
		return nil, fmt.Errorf("%w: transaction cost %g", domain.ErrInvalidParameter, costRate)
	}

	l := &Ledger{
		PrevPosition: make([]float64, n),
		PctChange:    make([]float64, n),
		PriceChange:  make([]float64, n),
		Trade:        make([]float64, n),
		Cost:         make([]float64, n),
		Earnings:     make([]float64, n),
		PnL:          make([]float64, n),
	}

	prevPos := 0.0
	for t := 0; t < n; t++ {
		if t > 0 {
			l.PriceChange[t] = prices[t] - prices[t-1]
			l.PctChange[t] = l.PriceChange[t] / prices[t-1]
		}
		l.PrevPosition[t] = prevPos
		l.Trade[t] = positions[t] - prevPos
		l.Cost[t] = math.Abs(l.Trade[t]) * costRate
		l.PnL[t] = prevPos*l.PctChange[t] - l.Cost[t]
		l.Earnings[t] = prevPos*l.PriceChange[t] - l.Cost[t]*prices[t]
		prevPos = positions[t]
	}

	l.CumPnL = CumSum(l.PnL)
	l.Drawdown = Drawdown(l.CumPnL)
	l.BenchmarkCum = CumSum(l.PctChange)
	l.BenchmarkDrawdown = Drawdown(l.BenchmarkCum)
	return l, nil
}

// CumSum returns the running sum of x.
func CumSum(x []float64) []float64 {
	out := make([]float64, len(x))
	sum := 0.0
	for i, v := range x {
		sum += v
		out[i] = sum
	}
	return out
}

// Drawdown returns cum[t] minus the running maximum of cum up to t.
// Every value is <= 0 and exactly 0 at a new running maximum.
func Drawdown(cum []float64) []float64 {
	out := make([]float64, len(cum))
	peak := math.Inf(-1)
	for i, v := range cum {
		if v > peak {
			peak = v
		}
		out[i] = v - peak
	}
	return out
}
