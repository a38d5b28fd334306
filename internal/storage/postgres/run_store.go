package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"signal-backtest-lab/internal/domain"
	"signal-backtest-lab/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

const runColumns = `
	run_id, dataset_id, span_from, span_to, variant,
	short_window, long_window, rolling_period, z_thresh,
	transaction_cost, direction, bars_per_period,
	sharpe_ratio, calmar_ratio, beta, max_drawdown,
	long_entries, short_entries, trade_count, long_bars, short_bars,
	long_short_duration_ratio, accumulated_return, bar_count, period_count,
	created_at
`

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.RunRecord) error {
	query := `
		INSERT INTO backtest_runs (` + runColumns + `) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12,
			$13, $14, $15, $16,
			$17, $18, $19, $20, $21,
			$22, $23, $24, $25,
			$26
		)
	`

	p, sum := r.Config.Strategy, r.Summary
	_, err := s.pool.Exec(ctx, query,
		r.RunID, r.DatasetID, nullTime(r.Span.From), nullTime(r.Span.To), string(p.Variant),
		p.ShortWindow, p.LongWindow, p.RollingPeriod, p.ZThresh,
		r.Config.TransactionCost, r.Config.Direction, r.Config.BarsPerPeriod,
		sum.SharpeRatio, sum.CalmarRatio, sum.Beta, sum.MaxDrawdown,
		sum.LongEntries, sum.ShortEntries, sum.TradeCount, sum.LongBars, sum.ShortBars,
		sum.LongShortDurationRatio, sum.AccumulatedReturn, sum.BarCount, sum.PeriodCount,
		r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert backtest run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM backtest_runs WHERE run_id = $1`

	r, err := scanRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get backtest run by id: %w", err)
	}
	return r, nil
}

// GetByDataset retrieves all runs of a dataset, ordered by run_id ASC.
func (s *RunStore) GetByDataset(ctx context.Context, datasetID string) ([]*domain.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM backtest_runs WHERE dataset_id = $1 ORDER BY run_id ASC`

	rows, err := s.pool.Query(ctx, query, datasetID)
	if err != nil {
		return nil, fmt.Errorf("get backtest runs by dataset: %w", err)
	}
	defer rows.Close()

	var runs []*domain.RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan backtest run row: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backtest run rows: %w", err)
	}
	return runs, nil
}

// nullTime maps the zero time to NULL.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// scanRun scans a single row into a RunRecord.
func scanRun(row pgx.Row) (*domain.RunRecord, error) {
	var r domain.RunRecord
	var variant string
	var from, to *time.Time
	p, sum := &r.Config.Strategy, &r.Summary

	err := row.Scan(
		&r.RunID, &r.DatasetID, &from, &to, &variant,
		&p.ShortWindow, &p.LongWindow, &p.RollingPeriod, &p.ZThresh,
		&r.Config.TransactionCost, &r.Config.Direction, &r.Config.BarsPerPeriod,
		&sum.SharpeRatio, &sum.CalmarRatio, &sum.Beta, &sum.MaxDrawdown,
		&sum.LongEntries, &sum.ShortEntries, &sum.TradeCount, &sum.LongBars, &sum.ShortBars,
		&sum.LongShortDurationRatio, &sum.AccumulatedReturn, &sum.BarCount, &sum.PeriodCount,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Variant = domain.Variant(variant)
	if from != nil && to != nil {
		r.Span = domain.Span{From: from.UTC(), To: to.UTC()}
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}
