package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"signal-backtest-lab/internal/domain"
)

// EnvPrefix prefixes every environment override, e.g. SBL_BACKTEST_Z_THRESH.
const EnvPrefix = "SBL"

type Config struct {
	Log      Logger   `mapstructure:"logger"`
	Backtest Backtest `mapstructure:"backtest"`
	Sweep    Sweep    `mapstructure:"sweep"`
	Storage  Storage  `mapstructure:"storage"`
}

type Logger struct {
	Level    string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Encoding string `mapstructure:"encoding" validate:"oneof=json console"`
}

// Backtest holds single-run parameters.
type Backtest struct {
	Variant         string  `mapstructure:"variant" validate:"required"`
	Interval        string  `mapstructure:"interval"`
	TransactionCost float64 `mapstructure:"transaction_cost" validate:"gte=0"`
	Direction       float64 `mapstructure:"direction" validate:"ne=0"`

	ShortWindow   int     `mapstructure:"short_window" validate:"gte=0"`
	LongWindow    int     `mapstructure:"long_window" validate:"gte=0"`
	RollingPeriod int     `mapstructure:"rolling_period" validate:"gte=0"`
	ZThresh       float64 `mapstructure:"z_thresh" validate:"gte=0"`

	// BarsPerPeriod overrides the interval table when > 0.
	BarsPerPeriod int `mapstructure:"bars_per_period" validate:"gte=0"`
}

// Sweep holds parameter grids and pool sizing. Empty grids fall back to
// the variant defaults.
type Sweep struct {
	GridA       []float64 `mapstructure:"grid_a"`
	GridB       []float64 `mapstructure:"grid_b"`
	Workers     int       `mapstructure:"workers" validate:"gte=0"`
	AllTestSets bool      `mapstructure:"all_test_sets"`
}

// Storage selects where bars, runs and sweep cells live.
type Storage struct {
	Backend       string `mapstructure:"backend" validate:"oneof=memory sqlite postgres"`
	SQLitePath    string `mapstructure:"sqlite_path" validate:"required_if=Backend sqlite"`
	PostgresDSN   string `mapstructure:"postgres_dsn" validate:"required_if=Backend postgres"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn"`
}

// Default grids reproduce the original parameter study.
var (
	DefaultZThreshGrid = []float64{0, 0.2, 0.4, 0.6, 0.8, 1, 1.2, 1.4, 1.6, 1.8, 2, 2.2, 2.4, 2.6, 2.8, 3}

	DefaultRollingPeriodGrid = []float64{24, 48, 96, 144, 192, 240, 360, 480, 600, 720, 840, 960, 1200, 1440, 1680, 1920, 2160, 2400}

	DefaultShortWindowGrid = []float64{6, 12, 24, 48, 72, 96}

	DefaultLongWindowGrid = []float64{120, 168, 240, 336, 480, 720}
)

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "console")

	v.SetDefault("backtest.variant", string(domain.VariantBand))
	v.SetDefault("backtest.interval", "1h")
	v.SetDefault("backtest.transaction_cost", 0.0006)
	v.SetDefault("backtest.direction", -1.0)
	v.SetDefault("backtest.short_window", 24)
	v.SetDefault("backtest.long_window", 168)
	v.SetDefault("backtest.rolling_period", 1680)
	v.SetDefault("backtest.z_thresh", 1.8)
	v.SetDefault("backtest.bars_per_period", 0)

	v.SetDefault("sweep.grid_a", []float64{})
	v.SetDefault("sweep.grid_b", []float64{})
	v.SetDefault("sweep.workers", 0)
	v.SetDefault("sweep.all_test_sets", false)

	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.sqlite_path", "")
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.clickhouse_dsn", "")
	return v
}

// Load reads the optional YAML file at path into v, unmarshals and validates.
// Validation failures wrap domain.ErrInvalidParameter.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks struct tags and maps failures to domain.ErrInvalidParameter.
func Validate(s any) error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("%w: %s", domain.ErrInvalidParameter, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidParameter, err)
	}
	return nil
}

// ToDomain converts the backtest section to a domain.BacktestConfig.
func (b Backtest) ToDomain() (domain.BacktestConfig, error) {
	variant, err := domain.ParseVariant(b.Variant)
	if err != nil {
		return domain.BacktestConfig{}, err
	}

	barsPerPeriod := b.BarsPerPeriod
	if barsPerPeriod == 0 {
		barsPerPeriod = domain.BarsPerDay(b.Interval)
	}

	return domain.BacktestConfig{
		Strategy: domain.StrategyParams{
			Variant:       variant,
			ShortWindow:   b.ShortWindow,
			LongWindow:    b.LongWindow,
			RollingPeriod: b.RollingPeriod,
			ZThresh:       b.ZThresh,
		},
		TransactionCost: b.TransactionCost,
		Direction:       b.Direction,
		BarsPerPeriod:   barsPerPeriod,
	}, nil
}

// Grids returns the configured grids or the defaults for variant.
func (s Sweep) Grids(variant domain.Variant) (gridA, gridB []float64) {
	gridA, gridB = s.GridA, s.GridB
	if len(gridA) == 0 {
		gridA = DefaultZThreshGrid
		if variant == domain.VariantCrossover {
			gridA = DefaultShortWindowGrid
		}
	}
	if len(gridB) == 0 {
		gridB = DefaultRollingPeriodGrid
		if variant == domain.VariantCrossover {
			gridB = DefaultLongWindowGrid
		}
	}
	return gridA, gridB
}

// ParseGrid parses a comma-separated list of grid values such as "0,0.2,0.4".
// An empty string yields a nil grid.
func ParseGrid(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	grid := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: grid value %q", domain.ErrInvalidParameter, p)
		}
		grid = append(grid, v)
	}
	return grid, nil
}
