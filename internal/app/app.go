// Package app wires configuration, logging, metrics and stores for the
// command-line binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"signal-backtest-lab/internal/config"
	"signal-backtest-lab/internal/logger"
	"signal-backtest-lab/internal/observability"
	"signal-backtest-lab/internal/storage"
	chstore "signal-backtest-lab/internal/storage/clickhouse"
	"signal-backtest-lab/internal/storage/memory"
	"signal-backtest-lab/internal/storage/migrations"
	pgstore "signal-backtest-lab/internal/storage/postgres"
	"signal-backtest-lab/internal/storage/sqlite"
)

// Dependencies is everything a command needs after startup.
type Dependencies struct {
	Cfg      *config.Config
	Log      *logger.Logger
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	Bars   storage.BarStore
	Runs   storage.RunStore
	Sweeps storage.SweepStore

	closers []func() error
}

// BindFlags binds each flag named in keys to its viper key.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for flag, key := range keys {
		f := flags.Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag %q", flag)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// New loads configuration from v (and the optional file at configPath),
// builds the logger and metrics, and opens the configured stores.
//
// Backend selects where runs and sweep cells live. Bars live in the same
// backend for memory and sqlite. A non-empty ClickhouseDSN moves bars and
// sweep cells to ClickHouse; runs stay on Backend.
func New(ctx context.Context, v *viper.Viper, configPath string) (*Dependencies, error) {
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	d := &Dependencies{
		Cfg:      cfg,
		Log:      log,
		Registry: reg,
		Metrics:  observability.NewMetrics("", reg),
	}

	if err := d.openStores(ctx); err != nil {
		_ = d.Close()
		log.Error("Failed to open storage", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
		return nil, err
	}
	return d, nil
}

func (d *Dependencies) openStores(ctx context.Context) error {
	st := d.Cfg.Storage

	switch st.Backend {
	case "memory":
		d.Bars = memory.NewBarStore()
		d.Runs = memory.NewRunStore()
		d.Sweeps = memory.NewSweepStore()

	case "sqlite":
		db, err := sqlite.Open(ctx, st.SQLitePath)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		d.closers = append(d.closers, db.Close)
		d.Bars = sqlite.NewBarStore(db)
		d.Runs = sqlite.NewRunStore(db)
		d.Sweeps = sqlite.NewSweepStore(db)

	case "postgres":
		pool, err := pgstore.NewPool(ctx, st.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		d.closers = append(d.closers, func() error { pool.Close(); return nil })
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return err
		}
		// postgres keeps no bars; without ClickHouse they only live for the process
		d.Bars = memory.NewBarStore()
		d.Runs = pgstore.NewRunStore(pool)
		d.Sweeps = pgstore.NewSweepStore(pool)

	default:
		return fmt.Errorf("unknown storage backend %q", st.Backend)
	}

	if st.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, st.ClickhouseDSN)
		if err != nil {
			return err
		}
		d.closers = append(d.closers, conn.Close)
		d.Bars = chstore.NewBarStore(conn)
		d.Sweeps = chstore.NewSweepStore(conn)
	}

	d.Log.Debug("Storage ready",
		zap.String("backend", st.Backend),
		zap.Bool("clickhouse", st.ClickhouseDSN != ""),
	)
	return nil
}

// Close releases every open store in reverse order.
func (d *Dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	if d.Log != nil {
		_ = d.Log.Sync()
	}
	return errors.Join(errs...)
}

// WriteFile creates path, hands it to write and closes it. "-" writes to out.
func WriteFile(path string, out io.Writer, write func(io.Writer) error) (err error) {
	if path == "-" {
		return write(out)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}
