// Package rolling computes windowed statistics over a numeric series.
//
// Every function returns a slice aligned to the input: entries before
// index window-1 are NaN (warm-up). Each call is O(n): the window is
// updated incrementally with Welford's algorithm as values enter and leave.
// Variance is the population variance (divides by window); a window of
// identical values has variance exactly 0.
// A NaN inside a window makes that window's output NaN.
package rolling

import (
	"fmt"
	"math"

	"signal-backtest-lab/internal/domain"
)

// Mean returns the rolling mean of x over window.
func Mean(x []float64, window int) ([]float64, error) {
	mean, _, err := meanVar(x, window)
	return mean, err
}

// Variance returns the rolling population variance of x over window.
func Variance(x []float64, window int) ([]float64, error) {
	_, variance, err := meanVar(x, window)
	return variance, err
}

// Std returns the rolling population standard deviation of x over window.
func Std(x []float64, window int) ([]float64, error) {
	_, variance, err := meanVar(x, window)
	if err != nil {
		return nil, err
	}
	sqrtInPlace(variance)
	return variance, nil
}

// MeanStd returns rolling mean and population standard deviation in one pass.
func MeanStd(x []float64, window int) (mean, std []float64, err error) {
	mean, std, err = meanVar(x, window)
	if err != nil {
		return nil, nil, err
	}
	sqrtInPlace(std)
	return mean, std, nil
}

// validateWindow enforces 1 <= window <= len(x).
func validateWindow(n, window int) error {
	if window <= 0 {
		return fmt.Errorf("%w: window %d must be positive", domain.ErrInvalidParameter, window)
	}
	if window > n {
		return fmt.Errorf("%w: window %d exceeds series length %d", domain.ErrInvalidParameter, window, n)
	}
	return nil
}

// welford tracks mean and sum of squared deviations of the finite values
// currently in the window, plus how many NaNs the window holds.
type welford struct {
	count int
	mean  float64
	m2    float64
	nans  int
}

func (w *welford) add(v float64) {
	if math.IsNaN(v) {
		w.nans++
		return
	}
	w.count++
	delta := v - w.mean
	w.mean += delta / float64(w.count)
	w.m2 += delta * (v - w.mean)
}

func (w *welford) remove(v float64) {
	if math.IsNaN(v) {
		w.nans--
		return
	}
	w.count--
	if w.count == 0 {
		w.mean, w.m2 = 0, 0
		return
	}
	delta := v - w.mean
	w.mean -= delta / float64(w.count)
	w.m2 -= delta * (v - w.mean)
	if w.m2 < 0 {
		w.m2 = 0
	}
}

func meanVar(x []float64, window int) (mean, variance []float64, err error) {
	if err := validateWindow(len(x), window); err != nil {
		return nil, nil, err
	}

	n := len(x)
	mean = make([]float64, n)
	variance = make([]float64, n)

	var w welford
	// equal counts the trailing run of identical values ending at i
	equal := 0
	for i := 0; i < n; i++ {
		w.add(x[i])
		if i >= window {
			w.remove(x[i-window])
		}
		if i > 0 && x[i] == x[i-1] {
			equal++
		} else {
			equal = 1
		}
		if i < window-1 || w.nans > 0 {
			mean[i] = math.NaN()
			variance[i] = math.NaN()
			continue
		}
		// removals leave rounding residue in m2; a constant window is exact
		if equal >= window {
			mean[i] = x[i]
			variance[i] = 0
			continue
		}
		mean[i] = w.mean
		variance[i] = w.m2 / float64(window)
	}
	return mean, variance, nil
}

func sqrtInPlace(x []float64) {
	for i, v := range x {
		x[i] = math.Sqrt(v)
	}
}
