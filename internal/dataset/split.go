package dataset

import "signal-backtest-lab/internal/domain"

// TestSet is a named contiguous slice of a dataset.
type TestSet struct {
	Name string
	Bars []domain.Bar
}

// TestSets returns the full series followed by its first, middle and last
// thirds. Boundaries use integer division of the row count, so the last
// third absorbs the remainder. The returned slices alias bars.
func TestSets(bars []domain.Bar) []TestSet {
	n := len(bars)
	a, b := n/3, 2*n/3
	return []TestSet{
		{Name: "full", Bars: bars},
		{Name: "first_third", Bars: bars[:a]},
		{Name: "middle_third", Bars: bars[a:b]},
		{Name: "last_third", Bars: bars[b:]},
	}
}
