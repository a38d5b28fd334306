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
	"signal-backtest-lab/internal/idhash"
	"signal-backtest-lab/internal/storage"
)

type options struct {
	configPath string
	input      string
	datasetID  string
	normalized string
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
		Use:   "ingest",
		Short: "Validate a cleaned bar CSV and store it as a dataset",
		Example: `  ingest --input data/cleaned.csv --dataset-id btc_1h --storage sqlite --sqlite-path lab.db
  ingest --input data/cleaned.csv --clickhouse-dsn clickhouse://localhost:9000/lab`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), v, opts, cmd.OutOrStdout())
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&opts.configPath, "config", "", "YAML config file")
	fs.StringVar(&opts.input, "input", "", "cleaned CSV with time, price and indicator columns (required)")
	fs.StringVar(&opts.datasetID, "dataset-id", "", "dataset ID (defaults to a content hash)")
	fs.StringVar(&opts.normalized, "write-normalized", "", "also write the parsed bars as timestamp,price,indicator CSV (- for stdout)")
	cobra.CheckErr(cmd.MarkFlagRequired("input"))

	cobra.CheckErr(app.BindFlags(v, fs, app.CommonFlags(fs, v)))
	return cmd
}

func run(ctx context.Context, v *viper.Viper, opts *options, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.New(ctx, v, opts.configPath)
	if err != nil {
		return err
	}
	defer deps.Close()
	log := deps.Log.Named("ingest")

	if deps.Cfg.Storage.Backend == "memory" && deps.Cfg.Storage.ClickhouseDSN == "" {
		log.Warn("Memory storage: the dataset is discarded when ingest exits")
	}

	bars, err := dataset.LoadFile(opts.input)
	if err != nil {
		return err
	}
	datasetID := opts.datasetID
	if datasetID == "" {
		datasetID = idhash.ComputeDatasetID(bars)
	}

	start := time.Now()
	err = deps.Bars.InsertBulk(ctx, datasetID, bars)
	deps.Metrics.RecordDBQuery("bars", "insert_bulk", time.Since(start).Seconds(), err)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("dataset %s already holds some of these bars: %w", datasetID, err)
		}
		return fmt.Errorf("store dataset %s: %w", datasetID, err)
	}
	deps.Metrics.RecordBarsIngested(datasetID, len(bars))

	log.Info("Dataset stored",
		zap.String("dataset_id", datasetID),
		zap.Int("bars", len(bars)),
		zap.Time("first", bars[0].Timestamp),
		zap.Time("last", bars[len(bars)-1].Timestamp),
		zap.Duration("elapsed", time.Since(start)),
	)

	if opts.normalized != "" {
		err := app.WriteFile(opts.normalized, out, func(w io.Writer) error {
			return dataset.Write(w, bars)
		})
		if err != nil {
			return fmt.Errorf("write normalized csv: %w", err)
		}
	}

	if opts.normalized != "-" {
		fmt.Fprintln(out, datasetID)
	}
	return nil
}
