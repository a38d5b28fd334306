package domain

import (
	"fmt"
	"strings"
)

// Variant selects a signal generator.
type Variant string

// Variant constants
const (
	VariantCrossover Variant = "crossover" // short/long moving-average crossover
	VariantBand      Variant = "band"      // mean-reversion band with hysteresis
)

// ParseVariant normalizes a user-supplied variant name.
// Accepts the aliases used by the research scripts ("sma_cross", "bband").
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "crossover", "sma_cross", "sma-cross":
		return VariantCrossover, nil
	case "band", "bband":
		return VariantBand, nil
	default:
		return "", fmt.Errorf("%w: unknown variant %q", ErrInvalidParameter, s)
	}
}

// StrategyParams holds the rule parameters for one backtest.
// Only the fields relevant to Variant are read.
type StrategyParams struct {
	Variant Variant `validate:"required,oneof=crossover band" yaml:"variant"`

	// Crossover parameters
	ShortWindow int `validate:"gte=0" yaml:"short_window,omitempty"`
	LongWindow  int `validate:"gte=0" yaml:"long_window,omitempty"`

	// Band parameters
	RollingPeriod int     `validate:"gte=0" yaml:"rolling_period,omitempty"`
	ZThresh       float64 `validate:"gte=0" yaml:"z_thresh,omitempty"`
}

// ID returns strategy identifier including parameters.
func (p StrategyParams) ID() string {
	switch p.Variant {
	case VariantCrossover:
		return fmt.Sprintf("crossover_%d_%d", p.ShortWindow, p.LongWindow)
	case VariantBand:
		return fmt.Sprintf("band_%d_z%g", p.RollingPeriod, p.ZThresh)
	default:
		return string(p.Variant)
	}
}

// BacktestConfig is the full input of a single backtest run besides the bars.
type BacktestConfig struct {
	Strategy StrategyParams `yaml:"strategy"`

	// TransactionCost is charged per unit of exposure change.
	TransactionCost float64 `validate:"gte=0" yaml:"transaction_cost"`

	// Direction is the position multiplier k; positions take values in {-k, 0, +k}.
	Direction float64 `validate:"ne=0" yaml:"direction"`

	// BarsPerPeriod folds bar-level pnl into evaluation periods (24 for hourly bars → daily).
	BarsPerPeriod int `validate:"gt=0" yaml:"bars_per_period"`
}
