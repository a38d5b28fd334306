package strategy

import (
	"fmt"

	"signal-backtest-lab/internal/domain"
)

// Crossover is long (k) while the short moving average of the indicator is
// above the long one, short (-k) otherwise. Stateless per bar.
type Crossover struct {
	ShortWindow int
	LongWindow  int
}

// NewCrossover creates a crossover generator.
func NewCrossover(shortWindow, longWindow int) *Crossover {
	return &Crossover{ShortWindow: shortWindow, LongWindow: longWindow}
}

// Warmup returns max(short, long) - 1.
func (c *Crossover) Warmup() int {
	return max(c.ShortWindow, c.LongWindow) - 1
}

// Variant implements SignalGenerator.
func (c *Crossover) Variant() domain.Variant { return domain.VariantCrossover }

// ID implements SignalGenerator.
func (c *Crossover) ID() string {
	return fmt.Sprintf("crossover_%d_%d", c.ShortWindow, c.LongWindow)
}

// Generate implements SignalGenerator.
func (c *Crossover) Generate(in Input) (*Signals, error) {
	if err := checkWindow(len(in.Bars), max(c.ShortWindow, c.LongWindow)); err != nil {
		return nil, err
	}

	stats := statsFor(in)
	shortMA, err := stats.Mean(c.ShortWindow)
	if err != nil {
		return nil, fmt.Errorf("short moving average: %w", err)
	}
	longMA, err := stats.Mean(c.LongWindow)
	if err != nil {
		return nil, fmt.Errorf("long moving average: %w", err)
	}

	offset := c.Warmup()
	shortMA = trim(shortMA, offset)
	longMA = trim(longMA, offset)

	positions := make([]float64, len(shortMA))
	for i := range positions {
		// NaN compares false and falls to the short side.
		if shortMA[i] > longMA[i] {
			positions[i] = in.Direction
		} else {
			positions[i] = -in.Direction
		}
	}

	return &Signals{
		Offset:    offset,
		Bars:      in.Bars[offset:],
		Positions: positions,
		ShortMA:   shortMA,
		LongMA:    longMA,
	}, nil
}

var _ SignalGenerator = (*Crossover)(nil)
