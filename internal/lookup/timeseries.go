// Package lookup finds bars by time in a series ordered by timestamp.
package lookup

import (
	"sort"
	"time"

	"signal-backtest-lab/internal/domain"
)

// Window returns the bars within [start, end] (inclusive). A zero start or
// end leaves that side open. The result aliases bars.
func Window(bars []domain.Bar, start, end time.Time) []domain.Bar {
	lo := 0
	if !start.IsZero() {
		lo = sort.Search(len(bars), func(i int) bool { return !bars[i].Timestamp.Before(start) })
	}
	hi := len(bars)
	if !end.IsZero() {
		hi = sort.Search(len(bars), func(i int) bool { return bars[i].Timestamp.After(end) })
	}
	if lo >= hi {
		return nil
	}
	return bars[lo:hi]
}
