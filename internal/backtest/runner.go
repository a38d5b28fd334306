package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"signal-backtest-lab/internal/domain"
	"signal-backtest-lab/internal/idhash"
	"signal-backtest-lab/internal/observability"
	"signal-backtest-lab/internal/storage"
)

// Runner executes backtests against stored datasets and persists summaries.
type Runner struct {
	bars    storage.BarStore
	runs    storage.RunStore
	metrics *observability.Metrics
	now     func() time.Time
}

// NewRunner creates a new backtest runner. runs may be nil to skip persistence.
func NewRunner(bars storage.BarStore, runs storage.RunStore, m *observability.Metrics) *Runner {
	return &Runner{
		bars:    bars,
		runs:    runs,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RunDataset loads a dataset, runs the backtest and stores the run record.
// A run that was already stored under the same deterministic ID is not
// stored again.
func (r *Runner) RunDataset(ctx context.Context, datasetID string, cfg domain.BacktestConfig) (*Result, *domain.RunRecord, error) {
	bars, err := r.bars.GetByDataset(ctx, datasetID)
	if err != nil {
		return nil, nil, fmt.Errorf("load dataset %s: %w", datasetID, err)
	}
	return r.RunBars(ctx, datasetID, cfg, bars)
}

// RunBars runs the backtest on bars already in memory and stores the run record.
// The run ID covers the time span of bars, so a run over part of a dataset
// never collides with a run over the whole of it.
func (r *Runner) RunBars(ctx context.Context, datasetID string, cfg domain.BacktestConfig, bars []domain.Bar) (*Result, *domain.RunRecord, error) {
	start := time.Now()
	res, err := Run(ctx, cfg, bars)
	evaluated := 0
	if res != nil {
		evaluated = len(res.Table)
	}
	r.metrics.RecordBacktest(string(cfg.Strategy.Variant), time.Since(start).Seconds(), evaluated, err)
	if err != nil {
		return nil, nil, err
	}

	span := domain.SpanOf(bars)
	rec := &domain.RunRecord{
		RunID:     idhash.ComputeRunID(datasetID, span, cfg),
		DatasetID: datasetID,
		Span:      span,
		Config:    cfg,
		Summary:   res.Summary,
		CreatedAt: r.now(),
	}

	if r.runs != nil {
		start = time.Now()
		err = r.runs.Insert(ctx, rec)
		r.metrics.RecordDBQuery("runs", "insert", time.Since(start).Seconds(), err)
		if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return nil, nil, fmt.Errorf("store run %s: %w", rec.RunID, err)
		}
	}

	return res, rec, nil
}
