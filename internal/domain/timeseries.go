package domain

import "time"

// Bar is one observation of the input dataset.
// Bars are ordered by Timestamp ASC with no duplicates; callers never mutate them.
type Bar struct {
	Timestamp time.Time // bar open time (UTC)
	Price     float64   // traded asset price, > 0
	Indicator float64   // signal variable (e.g. exchange balance), any sign
}

// EnrichedBar is one row of a backtest's diagnostic table.
// Rows start after the strategy warm-up; the first row is the first bar
// with fully defined rolling statistics.
type EnrichedBar struct {
	Timestamp time.Time
	Price     float64
	Indicator float64

	// Crossover columns (NaN for band runs)
	ShortMA float64
	LongMA  float64

	// Band columns (NaN for crossover runs)
	Mean      float64
	UpperBand float64
	LowerBand float64
	ZScore    float64 // NaN when the window std is zero

	Position     float64 // exposure decided at this bar, applied to the next bar
	PrevPosition float64 // exposure applied to this bar's return
	PctChange    float64
	PriceChange  float64
	Trade        float64 // position[t] - position[t-1]
	Cost         float64 // |trade| * cost rate
	Earnings     float64 // prev_position * price_change - cost * price
	PnL          float64 // prev_position * pct_change - cost
	CumPnL       float64
	Drawdown     float64 // always <= 0

	BenchmarkCum      float64 // buy-and-hold cumulative pct change
	BenchmarkDrawdown float64
}

// Span is the inclusive time range covered by an ordered bar series.
type Span struct {
	From time.Time
	To   time.Time
}

// SpanOf returns the span from the first to the last bar, or the zero Span.
func SpanOf(bars []Bar) Span {
	if len(bars) == 0 {
		return Span{}
	}
	return Span{From: bars[0].Timestamp, To: bars[len(bars)-1].Timestamp}
}

// IsZero reports whether the span is unset.
func (s Span) IsZero() bool {
	return s.From.IsZero() && s.To.IsZero()
}

// String renders the span as from..to in RFC 3339 (UTC), or "" when unset.
func (s Span) String() string {
	if s.IsZero() {
		return ""
	}
	return s.From.UTC().Format(time.RFC3339Nano) + ".." + s.To.UTC().Format(time.RFC3339Nano)
}
