package verification

import (
	"context"
	"errors"
	"fmt"

	"signal-backtest-lab/internal/backtest"
	"signal-backtest-lab/internal/domain"
	"signal-backtest-lab/internal/idhash"
	"signal-backtest-lab/internal/storage"
)

// ErrRunNotFound is returned when the run ID doesn't exist.
var ErrRunNotFound = errors.New("run not found")

// ReplayVerifier implements Verifier on top of the bar and run stores.
type ReplayVerifier struct {
	bars storage.BarStore
	runs storage.RunStore
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(bars storage.BarStore, runs storage.RunStore) *ReplayVerifier {
	return &ReplayVerifier{bars: bars, runs: runs}
}

var _ Verifier = (*ReplayVerifier)(nil)

// VerifyRun verifies a single run by replaying its backtest.
func (v *ReplayVerifier) VerifyRun(ctx context.Context, runID string) (*VerificationResult, error) {
	stored, err := v.runs.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	bars, err := v.loadBars(ctx, stored)
	if err != nil {
		return nil, err
	}
	return replay(ctx, stored, bars)
}

// loadBars returns the bars a run evaluated: its recorded span, or the
// whole dataset for runs without one.
func (v *ReplayVerifier) loadBars(ctx context.Context, run *domain.RunRecord) ([]domain.Bar, error) {
	var (
		bars []domain.Bar
		err  error
	)
	if run.Span.IsZero() {
		bars, err = v.bars.GetByDataset(ctx, run.DatasetID)
	} else {
		bars, err = v.bars.GetByTimeRange(ctx, run.DatasetID, run.Span.From, run.Span.To)
	}
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", run.DatasetID, err)
	}
	return bars, nil
}

// VerifyDataset verifies all stored runs of a dataset. Runs that fail to
// replay are reported as divergent with an "Error" field.
func (v *ReplayVerifier) VerifyDataset(ctx context.Context, datasetID string) (*VerificationReport, error) {
	runs, err := v.runs.GetByDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	report := &VerificationReport{
		TotalRuns: len(runs),
		Results:   make([]VerificationResult, 0, len(runs)),
	}
	if len(runs) == 0 {
		return report, nil
	}

	loaded := make(map[domain.Span][]domain.Bar)
	for _, run := range runs {
		bars, ok := loaded[run.Span]
		var err error
		if !ok {
			if bars, err = v.loadBars(ctx, run); err != nil {
				return nil, err
			}
			loaded[run.Span] = bars
		}

		result, err := replay(ctx, run, bars)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			report.Results = append(report.Results, VerificationResult{
				RunID:        run.RunID,
				StoredSharpe: run.Summary.SharpeRatio,
				Divergences: []FieldDivergence{
					{Field: "Error", Expected: nil, Actual: err.Error()},
				},
			})
			report.DivergentRuns++
			continue
		}

		report.Results = append(report.Results, *result)
		if result.Match {
			report.MatchedRuns++
		} else {
			report.DivergentRuns++
		}
	}
	return report, nil
}

// replay re-executes stored's configuration on bars and compares the result.
// A run ID that no longer matches its configuration is itself a divergence.
func replay(ctx context.Context, stored *domain.RunRecord, bars []domain.Bar) (*VerificationResult, error) {
	res, err := backtest.Run(ctx, stored.Config, bars)
	if err != nil {
		return nil, err
	}

	divergences := CompareSummaries(stored.Summary, res.Summary)
	if id := idhash.ComputeRunID(stored.DatasetID, domain.SpanOf(bars), stored.Config); id != stored.RunID {
		divergences = append(divergences, FieldDivergence{Field: "RunID", Expected: stored.RunID, Actual: id})
	}

	return &VerificationResult{
		RunID:          stored.RunID,
		Match:          len(divergences) == 0,
		Divergences:    divergences,
		StoredSharpe:   stored.Summary.SharpeRatio,
		ReplayedSharpe: res.Summary.SharpeRatio,
	}, nil
}
