package strategy

import (
	"signal-backtest-lab/internal/domain"
	"signal-backtest-lab/internal/rolling"
)

// SignalGenerator derives a position series from bars.
type SignalGenerator interface {
	// Generate runs the rule over the full bar series and returns the
	// post warm-up signals. Deterministic for identical input.
	Generate(in Input) (*Signals, error)

	// Warmup returns how many leading bars are dropped.
	Warmup() int

	// Variant identifies the rule family.
	Variant() domain.Variant

	// ID returns strategy identifier (includes parameters).
	ID() string
}

// Input holds everything a generator reads. Bars are never modified.
type Input struct {
	Bars []domain.Bar

	// Direction is the signed multiplier k applied to every position.
	Direction float64

	// Stats serves rolling statistics of the indicator column of Bars.
	// Nil means compute directly.
	Stats rolling.Stats
}

// Signals is the trimmed output of a generator. Every slice has the
// same length as Bars. Columns that do not apply to a variant are nil.
type Signals struct {
	// Offset is the index in the input of the first retained bar.
	Offset    int
	Bars      []domain.Bar
	Positions []float64

	// crossover
	ShortMA []float64
	LongMA  []float64

	// band
	Mean      []float64
	UpperBand []float64
	LowerBand []float64
	ZScore    []float64
}

// Len returns the number of retained bars.
func (s *Signals) Len() int {
	return len(s.Positions)
}
