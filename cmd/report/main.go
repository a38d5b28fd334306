package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"signal-backtest-lab/internal/app"
	"signal-backtest-lab/internal/config"
	"signal-backtest-lab/internal/domain"
	"signal-backtest-lab/internal/reporting"
	"signal-backtest-lab/internal/verification"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()

	root := &cobra.Command{
		Use:          "report",
		Short:        "Rebuild reports from stored runs and sweeps",
		SilenceUsage: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML config file")
	cobra.CheckErr(app.BindFlags(v, pf, app.CommonFlags(pf, v)))

	root.AddCommand(newSweepCmd(v), newRunsCmd(v), newListCmd(v), newVerifyCmd(v))
	return root
}

// withDeps opens the configured stores for the duration of fn.
func withDeps(ctx context.Context, v *viper.Viper, fn func(context.Context, *app.Dependencies) error) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.New(ctx, v, configPath)
	if err != nil {
		return err
	}
	defer deps.Close()
	return fn(ctx, deps)
}

func newSweepCmd(v *viper.Viper) *cobra.Command {
	var (
		sweepID string
		outDir  string
		best    int
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Render the heatmap report of a stored sweep",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd.Context(), v, func(ctx context.Context, deps *app.Dependencies) error {
				report, err := reporting.NewGenerator(deps.Runs, deps.Sweeps).
					WithBestCells(best).
					SweepReport(ctx, sweepID)
				if err != nil {
					return fmt.Errorf("load sweep %s: %w", sweepID, err)
				}
				deps.Log.Info("Sweep loaded",
					zap.String("sweep_id", sweepID),
					zap.Int("failed_cells", len(report.Result.Failures)),
				)
				return writeSweep(cmd.OutOrStdout(), outDir, report)
			})
		},
	}
	cmd.Flags().StringVar(&sweepID, "sweep-id", "", "stored sweep ID (required)")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "directory for matrix CSVs and the Markdown report (stdout when empty)")
	cmd.Flags().IntVar(&best, "best", reporting.DefaultBestCells, "number of top cells listed in the report")
	cobra.CheckErr(cmd.MarkFlagRequired("sweep-id"))
	return cmd
}

func writeSweep(out io.Writer, dir string, report *reporting.SweepReport) error {
	if dir == "" {
		_, err := io.WriteString(out, reporting.RenderSweepMarkdown(report))
		return err
	}
	prefix := report.SweepID
	if len(prefix) > 12 {
		prefix = prefix[:12]
	}
	return reporting.WriteSweepFiles(dir, prefix, report)
}

func newRunsCmd(v *viper.Viper) *cobra.Command {
	var (
		datasetID string
		format    string
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored backtest summaries of a dataset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "csv" && format != "markdown" {
				return fmt.Errorf("%w: unknown format %q", domain.ErrInvalidParameter, format)
			}
			return withDeps(cmd.Context(), v, func(ctx context.Context, deps *app.Dependencies) error {
				runs, err := reporting.NewGenerator(deps.Runs, deps.Sweeps).RunReports(ctx, datasetID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if format == "csv" {
					_, err = io.WriteString(out, reporting.RenderRunsCSV(runs))
					return err
				}
				for i := range runs {
					if _, err := io.WriteString(out, reporting.RenderRunMarkdown(&runs[i])); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&datasetID, "dataset-id", "", "dataset ID (required)")
	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv or markdown")
	cobra.CheckErr(cmd.MarkFlagRequired("dataset-id"))
	return cmd
}

func newListCmd(v *viper.Viper) *cobra.Command {
	var datasetID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored datasets, or the sweeps of one dataset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd.Context(), v, func(ctx context.Context, deps *app.Dependencies) error {
				var (
					ids []string
					err error
				)
				if datasetID == "" {
					ids, err = deps.Bars.ListDatasets(ctx)
				} else {
					ids, err = deps.Sweeps.ListSweeps(ctx, datasetID)
				}
				if err != nil {
					return err
				}
				if len(ids) > 0 {
					fmt.Fprintln(cmd.OutOrStdout(), strings.Join(ids, "\n"))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&datasetID, "dataset-id", "", "list the sweeps of this dataset instead of datasets")
	return cmd
}

func newVerifyCmd(v *viper.Viper) *cobra.Command {
	var runID, datasetID string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Replay stored runs and check their summaries are reproduced",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (runID == "") == (datasetID == "") {
				return errors.New("exactly one of --run-id or --dataset-id is required")
			}
			return withDeps(cmd.Context(), v, func(ctx context.Context, deps *app.Dependencies) error {
				verifier := verification.NewReplayVerifier(deps.Bars, deps.Runs)

				report := &verification.VerificationReport{}
				if runID != "" {
					result, err := verifier.VerifyRun(ctx, runID)
					if err != nil {
						return err
					}
					report.TotalRuns = 1
					report.Results = []verification.VerificationResult{*result}
					if result.Match {
						report.MatchedRuns = 1
					} else {
						report.DivergentRuns = 1
					}
				} else {
					var err error
					if report, err = verifier.VerifyDataset(ctx, datasetID); err != nil {
						return err
					}
				}

				out := cmd.OutOrStdout()
				for _, r := range report.Results {
					status := "ok"
					if !r.Match {
						status = "DIVERGED"
					}
					fmt.Fprintf(out, "%s %s\n", r.RunID, status)
					for _, d := range r.Divergences {
						fmt.Fprintf(out, "  %s: stored %v, replayed %v\n", d.Field, d.Expected, d.Actual)
					}
				}
				deps.Log.Info("Verification complete",
					zap.Int("runs", report.TotalRuns),
					zap.Int("matched", report.MatchedRuns),
					zap.Int("divergent", report.DivergentRuns),
				)
				if report.DivergentRuns > 0 {
					return fmt.Errorf("%d of %d runs diverged", report.DivergentRuns, report.TotalRuns)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "verify a single run")
	cmd.Flags().StringVar(&datasetID, "dataset-id", "", "verify every run of a dataset")
	return cmd
}
