// Package metrics reduces per-bar P&L into scalar performance metrics.
// All functions are pure; ratios with a zero denominator return ±Inf or NaN.
package metrics

import (
	"fmt"
	"math"

	"signal-backtest-lab/internal/domain"
)

// AggregatePeriods sums x into consecutive blocks of size n. A trailing
// partial block is summed and appended as a final shorter period.
func AggregatePeriods(x []float64, n int) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: bars per period %d must be positive", domain.ErrInvalidParameter, n)
	}

	out := make([]float64, 0, (len(x)+n-1)/n)
	for start := 0; start < len(x); start += n {
		end := min(start+n, len(x))
		sum := 0.0
		for _, v := range x[start:end] {
			sum += v
		}
		out = append(out, sum)
	}
	return out, nil
}

// SharpeRatio returns sqrt(periodsPerYear) * mean / std of period returns.
// Population std. NaN for an empty series.
func SharpeRatio(periodReturns []float64, periodsPerYear float64) float64 {
	if len(periodReturns) == 0 {
		return math.NaN()
	}
	mean := computeMean(periodReturns)
	std := computeStddev(periodReturns, mean)
	return math.Sqrt(periodsPerYear) * mean / std
}

// AnnualReturn compounds period returns and annualises:
// (prod(1+r))^(periodsPerYear/len) - 1.
func AnnualReturn(periodReturns []float64, periodsPerYear float64) float64 {
	if len(periodReturns) == 0 {
		return math.NaN()
	}
	growth := 1.0
	for _, r := range periodReturns {
		growth *= 1 + r
	}
	return math.Pow(growth, periodsPerYear/float64(len(periodReturns))) - 1
}

// CalmarRatio returns AnnualReturn / |maxDrawdown|.
func CalmarRatio(periodReturns []float64, maxDrawdown, periodsPerYear float64) float64 {
	return AnnualReturn(periodReturns, periodsPerYear) / math.Abs(maxDrawdown)
}

// Beta returns cov(strategy, benchmark) / var(benchmark), both population.
// Series must be aligned; NaN otherwise.
func Beta(strategy, benchmark []float64) float64 {
	if len(strategy) == 0 || len(strategy) != len(benchmark) {
		return math.NaN()
	}
	ms := computeMean(strategy)
	mb := computeMean(benchmark)

	var cov, variance float64
	for i := range benchmark {
		db := benchmark[i] - mb
		cov += (strategy[i] - ms) * db
		variance += db * db
	}
	n := float64(len(benchmark))
	return (cov / n) / (variance / n)
}

// MaxDrawdown returns the most negative drawdown of cumsum(pnl); 0 when
// pnl never falls below its running peak.
func MaxDrawdown(pnl []float64) float64 {
	mdd := 0.0
	cum := 0.0
	peak := math.Inf(-1)
	for _, v := range pnl {
		cum += v
		if cum > peak {
			peak = cum
		}
		if dd := cum - peak; dd < mdd {
			mdd = dd
		}
	}
	return mdd
}

// CountTrades counts non-zero trades by sign.
func CountTrades(trades []float64) (long, short int) {
	for _, t := range trades {
		switch {
		case t > 0:
			long++
		case t < 0:
			short++
		}
	}
	return long, short
}

// HeldBars counts bars with a positive and a negative position.
func HeldBars(positions []float64) (long, short int) {
	return CountTrades(positions)
}

// LongShortDurationRatio returns long bars / short bars:
// +Inf with long bars and no short bars, NaN with neither.
func LongShortDurationRatio(positions []float64) float64 {
	long, short := HeldBars(positions)
	return float64(long) / float64(short)
}

// computeMean calculates arithmetic mean.
func computeMean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

// computeStddev calculates population standard deviation.
func computeStddev(x []float64, mean float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sumSq := 0.0
	for _, v := range x {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(x)))
}
