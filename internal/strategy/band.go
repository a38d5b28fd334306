package strategy

import (
	"fmt"
	"math"

	"signal-backtest-lab/internal/domain"
)

// Band is a mean-reversion rule on the z-score of the indicator against its
// rolling mean and standard deviation, with hysteresis: a position opened on
// a threshold crossing is held while z stays on the same side of zero.
type Band struct {
	RollingPeriod int
	ZThresh       float64
}

// NewBand creates a band generator.
func NewBand(rollingPeriod int, zThresh float64) *Band {
	return &Band{RollingPeriod: rollingPeriod, ZThresh: zThresh}
}

// Warmup returns rolling_period - 1.
func (b *Band) Warmup() int {
	return b.RollingPeriod - 1
}

// Variant implements SignalGenerator.
func (b *Band) Variant() domain.Variant { return domain.VariantBand }

// ID implements SignalGenerator.
func (b *Band) ID() string {
	return fmt.Sprintf("band_%d_z%g", b.RollingPeriod, b.ZThresh)
}

// Generate implements SignalGenerator.
func (b *Band) Generate(in Input) (*Signals, error) {
	if err := checkWindow(len(in.Bars), b.RollingPeriod); err != nil {
		return nil, err
	}

	mean, std, err := statsFor(in).MeanStd(b.RollingPeriod)
	if err != nil {
		return nil, fmt.Errorf("rolling mean/std: %w", err)
	}

	offset := b.Warmup()
	bars := in.Bars[offset:]
	mean = trim(mean, offset)
	std = trim(std, offset)

	n := len(bars)
	upper := make([]float64, n)
	lower := make([]float64, n)
	z := make([]float64, n)
	for i := 0; i < n; i++ {
		upper[i] = mean[i] + b.ZThresh*std[i]
		lower[i] = mean[i] - b.ZThresh*std[i]
		z[i] = zScore(bars[i].Indicator, mean[i], std[i])
	}

	return &Signals{
		Offset:    offset,
		Bars:      bars,
		Positions: Hysteresis(z, b.ZThresh, in.Direction),
		Mean:      mean,
		UpperBand: upper,
		LowerBand: lower,
		ZScore:    z,
	}, nil
}

// zScore returns NaN when std is zero or undefined.
func zScore(value, mean, std float64) float64 {
	if !(std > 0) {
		return math.NaN()
	}
	return (value - mean) / std
}

// Hysteresis scans a z-score path and returns the held position at every
// bar. The only state is the current position, starting flat:
//
//	z >= thresh               -> +k
//	z <= -thresh              -> -k
//	0 < z < thresh, held +k   -> +k
//	-thresh < z < 0, held -k  -> -k
//	otherwise (incl. NaN)     -> 0
func Hysteresis(z []float64, thresh, k float64) []float64 {
	positions := make([]float64, len(z))
	position := 0.0
	for i, v := range z {
		position = nextPosition(v, thresh, k, position)
		positions[i] = position
	}
	return positions
}

func nextPosition(z, thresh, k, held float64) float64 {
	switch {
	case math.IsNaN(z):
		return 0
	case z >= thresh:
		return k
	case z <= -thresh:
		return -k
	case z > 0 && held == k:
		return k
	case z < 0 && held == -k:
		return -k
	default:
		return 0
	}
}

var _ SignalGenerator = (*Band)(nil)
