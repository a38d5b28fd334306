package rolling

import "math"

// Min returns the rolling minimum of x over window.
func Min(x []float64, window int) ([]float64, error) {
	return extrema(x, window, func(a, b float64) bool { return a <= b })
}

// Max returns the rolling maximum of x over window.
func Max(x []float64, window int) ([]float64, error) {
	return extrema(x, window, func(a, b float64) bool { return a >= b })
}

// extrema keeps a monotonic deque of indices; keep(a, b) reports whether
// a newer value b lets an older value a stay in the queue.
func extrema(x []float64, window int, keep func(a, b float64) bool) ([]float64, error) {
	if err := validateWindow(len(x), window); err != nil {
		return nil, err
	}

	n := len(x)
	out := make([]float64, n)
	deque := make([]int, 0, window)
	head := 0
	nans := 0

	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) {
			nans++
		} else {
			for len(deque) > head && !keep(x[deque[len(deque)-1]], x[i]) {
				deque = deque[:len(deque)-1]
			}
			deque = append(deque, i)
		}
		if i >= window {
			if math.IsNaN(x[i-window]) {
				nans--
			}
			if head < len(deque) && deque[head] <= i-window {
				head++
			}
		}
		// compact once the consumed prefix dominates the buffer
		if head > window {
			deque = append(deque[:0], deque[head:]...)
			head = 0
		}

		if i < window-1 || nans > 0 || head >= len(deque) {
			out[i] = math.NaN()
			continue
		}
		out[i] = x[deque[head]]
	}
	return out, nil
}
