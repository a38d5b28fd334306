package strategy

import (
	"fmt"
	"math"

	"signal-backtest-lab/internal/domain"
)

// FromConfig creates a SignalGenerator from domain.StrategyParams.
// Validates required parameters per variant; every failure wraps
// domain.ErrInvalidParameter.
func FromConfig(p domain.StrategyParams) (SignalGenerator, error) {
	switch p.Variant {
	case domain.VariantCrossover:
		return fromCrossoverParams(p)
	case domain.VariantBand:
		return fromBandParams(p)
	default:
		return nil, fmt.Errorf("%w: unknown strategy variant %q", domain.ErrInvalidParameter, p.Variant)
	}
}

func fromCrossoverParams(p domain.StrategyParams) (*Crossover, error) {
	if p.ShortWindow <= 0 {
		return nil, fmt.Errorf("%w: crossover requires short_window > 0, got %d", domain.ErrInvalidParameter, p.ShortWindow)
	}
	if p.LongWindow <= 0 {
		return nil, fmt.Errorf("%w: crossover requires long_window > 0, got %d", domain.ErrInvalidParameter, p.LongWindow)
	}
	return NewCrossover(p.ShortWindow, p.LongWindow), nil
}

func fromBandParams(p domain.StrategyParams) (*Band, error) {
	if p.RollingPeriod <= 0 {
		return nil, fmt.Errorf("%w: band requires rolling_period > 0, got %d", domain.ErrInvalidParameter, p.RollingPeriod)
	}
	if p.ZThresh < 0 || math.IsNaN(p.ZThresh) || math.IsInf(p.ZThresh, 0) {
		return nil, fmt.Errorf("%w: band requires finite z_thresh >= 0, got %g", domain.ErrInvalidParameter, p.ZThresh)
	}
	return NewBand(p.RollingPeriod, p.ZThresh), nil
}
