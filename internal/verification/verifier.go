// Package verification re-runs stored backtests and checks that the stored
// summaries are reproduced from the stored bars.
package verification

import (
	"context"
	"math"

	"signal-backtest-lab/internal/domain"
)

// FloatTolerance is the absolute tolerance for metric comparisons.
const FloatTolerance = 1e-9

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string
	Expected any // stored value
	Actual   any // replayed value
}

// VerificationResult contains the result of verifying a single run.
type VerificationResult struct {
	RunID       string
	Match       bool
	Divergences []FieldDivergence

	StoredSharpe   float64
	ReplayedSharpe float64
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	TotalRuns     int
	MatchedRuns   int
	DivergentRuns int
	Results       []VerificationResult
}

// Verifier checks stored runs against a fresh backtest.
type Verifier interface {
	// VerifyRun reloads the run's dataset, re-executes the backtest with the
	// stored configuration and compares every summary field.
	VerifyRun(ctx context.Context, runID string) (*VerificationResult, error)

	// VerifyDataset verifies every stored run of a dataset.
	VerifyDataset(ctx context.Context, datasetID string) (*VerificationReport, error)
}

// CompareSummaries returns the fields in which replayed differs from stored.
// Float fields use FloatTolerance; NaN matches NaN and infinities match by sign.
func CompareSummaries(stored, replayed domain.PerformanceSummary) []FieldDivergence {
	var divergences []FieldDivergence

	floats := []struct {
		field string
		a, b  float64
	}{
		{"SharpeRatio", stored.SharpeRatio, replayed.SharpeRatio},
		{"CalmarRatio", stored.CalmarRatio, replayed.CalmarRatio},
		{"Beta", stored.Beta, replayed.Beta},
		{"MaxDrawdown", stored.MaxDrawdown, replayed.MaxDrawdown},
		{"LongShortDurationRatio", stored.LongShortDurationRatio, replayed.LongShortDurationRatio},
		{"AccumulatedReturn", stored.AccumulatedReturn, replayed.AccumulatedReturn},
	}
	for _, f := range floats {
		if !floatEquals(f.a, f.b) {
			divergences = append(divergences, FieldDivergence{Field: f.field, Expected: f.a, Actual: f.b})
		}
	}

	ints := []struct {
		field string
		a, b  int
	}{
		{"LongEntries", stored.LongEntries, replayed.LongEntries},
		{"ShortEntries", stored.ShortEntries, replayed.ShortEntries},
		{"TradeCount", stored.TradeCount, replayed.TradeCount},
		{"LongBars", stored.LongBars, replayed.LongBars},
		{"ShortBars", stored.ShortBars, replayed.ShortBars},
		{"BarCount", stored.BarCount, replayed.BarCount},
		{"PeriodCount", stored.PeriodCount, replayed.PeriodCount},
	}
	for _, f := range ints {
		if f.a != f.b {
			divergences = append(divergences, FieldDivergence{Field: f.field, Expected: f.a, Actual: f.b})
		}
	}

	return divergences
}

func floatEquals(a, b float64) bool {
	switch {
	case math.IsNaN(a) || math.IsNaN(b):
		return math.IsNaN(a) && math.IsNaN(b)
	case math.IsInf(a, 0) || math.IsInf(b, 0):
		return a == b
	default:
		return math.Abs(a-b) <= FloatTolerance
	}
}
