package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"signal-backtest-lab/internal/app"
	"signal-backtest-lab/internal/backtest"
	"signal-backtest-lab/internal/config"
	"signal-backtest-lab/internal/domain"
	"signal-backtest-lab/internal/reporting"
)

type options struct {
	configPath   string
	source       app.BarSource
	format       string
	tableCSV     string
	tableParquet string
	persist      bool
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
		Use:   "backtest",
		Short: "Run a single strategy backtest and print its performance summary",
		Example: `  backtest --input data/cleaned.csv --variant band --rolling-period 1680 --z-thresh 1.8
  backtest --dataset-id btc_1h --storage sqlite --sqlite-path lab.db --variant crossover --format yaml`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), v, opts, cmd.OutOrStdout())
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&opts.configPath, "config", "", "YAML config file")
	opts.source.Flags(fs)
	fs.StringVar(&opts.format, "format", "markdown", "summary format: markdown or yaml")
	fs.StringVar(&opts.tableCSV, "table-csv", "", "write the enriched bar table as CSV (- for stdout)")
	fs.StringVar(&opts.tableParquet, "table-parquet", "", "write the enriched bar table as Parquet")
	fs.BoolVar(&opts.persist, "persist", true, "store the run summary")

	keys := app.CommonFlags(fs, v)
	for flag, key := range app.BacktestFlags(fs, v) {
		keys[flag] = key
	}
	cobra.CheckErr(app.BindFlags(v, fs, keys))
	return cmd
}

func run(ctx context.Context, v *viper.Viper, opts *options, out io.Writer) error {
	if opts.source.Empty() {
		return errors.New("--input or --dataset-id is required")
	}
	if opts.format != "markdown" && opts.format != "yaml" {
		return fmt.Errorf("%w: unknown format %q", domain.ErrInvalidParameter, opts.format)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.New(ctx, v, opts.configPath)
	if err != nil {
		return err
	}
	defer deps.Close()
	log := deps.Log.Named("backtest")

	cfg, err := deps.Cfg.Backtest.ToDomain()
	if err != nil {
		return err
	}

	runs := deps.Runs
	if !opts.persist {
		runs = nil
	}
	runner := backtest.NewRunner(deps.Bars, runs, deps.Metrics)

	bars, datasetID, err := deps.LoadBars(ctx, opts.source)
	if err != nil {
		return err
	}
	res, rec, err := runner.RunBars(ctx, datasetID, cfg, bars)
	if err != nil {
		return err
	}

	log.Info("Backtest complete",
		zap.String("run_id", rec.RunID),
		zap.String("strategy", res.StrategyID),
		zap.Int("bars", len(res.Table)),
		zap.Float64("sharpe", rec.Summary.SharpeRatio),
	)

	report := reporting.NewGenerator(nil, nil).BuildRunReport(rec)
	switch opts.format {
	case "yaml":
		b, err := reporting.RenderSummaryYAML(report)
		if err != nil {
			return err
		}
		if _, err := out.Write(b); err != nil {
			return err
		}
	default:
		if _, err := io.WriteString(out, reporting.RenderRunMarkdown(report)); err != nil {
			return err
		}
	}

	if opts.tableCSV != "" {
		err := app.WriteFile(opts.tableCSV, out, func(w io.Writer) error {
			return reporting.WriteTableCSV(w, res.Table)
		})
		if err != nil {
			return fmt.Errorf("write table csv: %w", err)
		}
		log.Info("Wrote bar table", zap.String("path", opts.tableCSV))
	}
	if opts.tableParquet != "" {
		err := app.WriteFile(opts.tableParquet, out, func(w io.Writer) error {
			return reporting.WriteTableParquet(w, res.Table)
		})
		if err != nil {
			return fmt.Errorf("write table parquet: %w", err)
		}
		log.Info("Wrote bar table", zap.String("path", opts.tableParquet))
	}
	return nil
}
