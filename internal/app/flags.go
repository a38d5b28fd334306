package app

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// CommonFlags registers logging and storage flags on fs, with defaults taken
// from v. The returned map feeds BindFlags.
func CommonFlags(fs *pflag.FlagSet, v *viper.Viper) map[string]string {
	fs.String("log-level", v.GetString("logger.level"), "log level: debug, info, warn, error")
	fs.String("log-encoding", v.GetString("logger.encoding"), "log encoding: console or json")
	fs.String("storage", v.GetString("storage.backend"), "storage backend: memory, sqlite, postgres")
	fs.String("sqlite-path", v.GetString("storage.sqlite_path"), "SQLite database file")
	fs.String("postgres-dsn", v.GetString("storage.postgres_dsn"), "PostgreSQL connection string")
	fs.String("clickhouse-dsn", v.GetString("storage.clickhouse_dsn"), "ClickHouse connection string for bars and sweep cells")

	return map[string]string{
		"log-level":      "logger.level",
		"log-encoding":   "logger.encoding",
		"storage":        "storage.backend",
		"sqlite-path":    "storage.sqlite_path",
		"postgres-dsn":   "storage.postgres_dsn",
		"clickhouse-dsn": "storage.clickhouse_dsn",
	}
}

// BacktestFlags registers the cost model and strategy flags on fs.
func BacktestFlags(fs *pflag.FlagSet, v *viper.Viper) map[string]string {
	fs.String("variant", v.GetString("backtest.variant"), "strategy variant: band or crossover")
	fs.String("interval", v.GetString("backtest.interval"), "bar interval: 1m, 5m, 15m, 30m, 1h")
	fs.Float64("cost", v.GetFloat64("backtest.transaction_cost"), "transaction cost per unit of exposure change")
	fs.Float64("direction", v.GetFloat64("backtest.direction"), "position multiplier; negative inverts the signal")
	fs.Int("bars-per-period", v.GetInt("backtest.bars_per_period"), "bars per evaluation period (0 derives it from --interval)")
	fs.Int("short-window", v.GetInt("backtest.short_window"), "crossover short moving-average window")
	fs.Int("long-window", v.GetInt("backtest.long_window"), "crossover long moving-average window")
	fs.Int("rolling-period", v.GetInt("backtest.rolling_period"), "band rolling window")
	fs.Float64("z-thresh", v.GetFloat64("backtest.z_thresh"), "band z-score entry threshold")

	return map[string]string{
		"variant":         "backtest.variant",
		"interval":        "backtest.interval",
		"cost":            "backtest.transaction_cost",
		"direction":       "backtest.direction",
		"bars-per-period": "backtest.bars_per_period",
		"short-window":    "backtest.short_window",
		"long-window":     "backtest.long_window",
		"rolling-period":  "backtest.rolling_period",
		"z-thresh":        "backtest.z_thresh",
	}
}
