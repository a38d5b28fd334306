package domain

// Bars per calendar day for the supported bar intervals.
var barsPerDay = map[string]int{
	"1m":  24 * 60,
	"5m":  24 * 12,
	"15m": 24 * 4,
	"30m": 24 * 2,
	"1h":  24,
}

// BarsPerDay returns how many bars of the given interval make one day.
// Unknown intervals (e.g. "1d") return 1.
func BarsPerDay(interval string) int {
	if n, ok := barsPerDay[interval]; ok {
		return n
	}
	return 1
}

// PeriodsPerYear is the annualisation factor for daily periods.
// Crypto markets trade every day of the year.
const PeriodsPerYear = 365
