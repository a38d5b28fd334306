package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"signal-backtest-lab/internal/app"
	"signal-backtest-lab/internal/config"
	"signal-backtest-lab/internal/dataset"
	"signal-backtest-lab/internal/domain"
	"signal-backtest-lab/internal/idhash"
	"signal-backtest-lab/internal/reporting"
	"signal-backtest-lab/internal/storage"
	"signal-backtest-lab/internal/sweep"
)

type options struct {
	configPath  string
	source      app.BarSource
	gridA       string
	gridB       string
	outDir      string
	metricsAddr string
	bestCells   int
	persist     bool
	noCache     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Evaluate a strategy over a two-parameter grid and write heatmap matrices",
		Long: `sweep runs one backtest per (grid-a, grid-b) cell and collects a matrix per
metric. For the band variant grid-a is the z-score threshold and grid-b the
rolling period; for crossover they are the short and long windows. Failed
cells are reported and left empty; they never stop the sweep.`,
		Example: `  sweep --input data/cleaned.csv --out-dir out --all-test-sets
  sweep --dataset-id btc_1h --clickhouse-dsn clickhouse://localhost:9000/lab --variant crossover --grid-a 12,24 --grid-b 120,168`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), v, opts, cmd.OutOrStdout())
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&opts.configPath, "config", "", "YAML config file")
	opts.source.Flags(fs)
	fs.StringVar(&opts.gridA, "grid-a", "", "comma-separated row grid (default depends on --variant)")
	fs.StringVar(&opts.gridB, "grid-b", "", "comma-separated column grid (default depends on --variant)")
	fs.StringVar(&opts.outDir, "out-dir", "", "directory for matrix CSVs and Markdown reports (stdout when empty)")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	fs.IntVar(&opts.bestCells, "best", reporting.DefaultBestCells, "number of top cells listed in the report")
	fs.BoolVar(&opts.persist, "persist", true, "store sweep cells")
	fs.BoolVar(&opts.noCache, "no-cache", false, "recompute rolling statistics for every cell")
	fs.Int("workers", v.GetInt("sweep.workers"), "worker pool size (0 uses every CPU)")
	fs.Bool("all-test-sets", v.GetBool("sweep.all_test_sets"), "also sweep the first, middle and last thirds of the dataset")

	keys := app.CommonFlags(fs, v)
	for flag, key := range app.BacktestFlags(fs, v) {
		keys[flag] = key
	}
	keys["workers"] = "sweep.workers"
	keys["all-test-sets"] = "sweep.all_test_sets"
	cobra.CheckErr(app.BindFlags(v, fs, keys))
	return cmd
}

func run(ctx context.Context, v *viper.Viper, opts *options, out io.Writer) error {
	if opts.source.Empty() {
		return errors.New("--input or --dataset-id is required")
	}
	if err := setGrid(v, "sweep.grid_a", opts.gridA); err != nil {
		return err
	}
	if err := setGrid(v, "sweep.grid_b", opts.gridB); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.New(ctx, v, opts.configPath)
	if err != nil {
		return err
	}
	defer deps.Close()
	log := deps.Log.Named("sweep")

	if opts.metricsAddr != "" {
		srv, err := app.StartMetricsServer(deps, opts.metricsAddr)
		if err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		defer srv.Stop()
	}

	fixed, err := deps.Cfg.Backtest.ToDomain()
	if err != nil {
		return err
	}
	variant := fixed.Strategy.Variant
	gridA, gridB := deps.Cfg.Sweep.Grids(variant)

	bars, datasetID, err := deps.LoadBars(ctx, opts.source)
	if err != nil {
		return err
	}

	sets := []dataset.TestSet{{Name: "full", Bars: bars}}
	if deps.Cfg.Sweep.AllTestSets {
		sets = dataset.TestSets(bars)
	}

	sweepOpts := []sweep.Option{
		sweep.WithWorkers(deps.Cfg.Sweep.Workers),
		sweep.WithLogger(log),
		sweep.WithMetrics(deps.Metrics),
	}
	if opts.noCache {
		sweepOpts = append(sweepOpts, sweep.WithoutCache())
	}
	gen := reporting.NewGenerator(deps.Runs, deps.Sweeps).WithBestCells(opts.bestCells)

	for _, ts := range sets {
		if len(ts.Bars) == 0 {
			log.Warn("Skipping empty test set", zap.String("test_set", ts.Name), zap.Int("dataset_bars", len(bars)))
			continue
		}
		setID := datasetID
		if ts.Name != "full" {
			setID = datasetID + ":" + ts.Name
		}
		sweepID := idhash.ComputeSweepID(setID, domain.SpanOf(ts.Bars), variant, gridA, gridB, fixed)

		res, err := sweep.Run(ctx, sweep.Request{
			Variant: variant,
			Bars:    ts.Bars,
			GridA:   gridA,
			GridB:   gridB,
			Fixed:   fixed,
		}, sweepOpts...)
		if err != nil {
			return fmt.Errorf("sweep %s: %w", ts.Name, err)
		}

		if opts.persist {
			if err := persist(ctx, deps, res, sweepID, setID); err != nil {
				return err
			}
		}

		report := gen.BuildSweepReport(res, sweepID, datasetID, ts.Name)
		if err := writeReport(opts.outDir, ts.Name, report, out); err != nil {
			return err
		}
		log.Info("Test set complete",
			zap.String("test_set", ts.Name),
			zap.String("sweep_id", sweepID),
			zap.Int("bars", len(ts.Bars)),
			zap.Int("failed_cells", len(res.Failures)),
		)
	}
	return nil
}

func setGrid(v *viper.Viper, key, raw string) error {
	grid, err := config.ParseGrid(raw)
	if err != nil {
		return err
	}
	if grid != nil {
		v.Set(key, grid)
	}
	return nil
}

func persist(ctx context.Context, deps *app.Dependencies, res *domain.SweepResult, sweepID, datasetID string) error {
	start := time.Now()
	err := deps.Sweeps.InsertCells(ctx, sweep.ToRecords(res, sweepID, datasetID))
	deps.Metrics.RecordDBQuery("sweeps", "insert_cells", time.Since(start).Seconds(), err)
	switch {
	case errors.Is(err, storage.ErrDuplicateKey):
		deps.Log.Info("Sweep already stored", zap.String("sweep_id", sweepID))
		return nil
	case err != nil:
		return fmt.Errorf("store sweep %s: %w", sweepID, err)
	}
	return nil
}

// writeReport writes the report files of one test set into dir, or the
// Markdown report alone to out when dir is empty.
func writeReport(dir, name string, report *reporting.SweepReport, out io.Writer) error {
	if dir == "" {
		_, err := io.WriteString(out, reporting.RenderSweepMarkdown(report))
		return err
	}
	return reporting.WriteSweepFiles(dir, name, report)
}
