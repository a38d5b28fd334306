package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"signal-backtest-lab/internal/domain"
	"signal-backtest-lab/internal/storage"
)

// RunStore implements storage.RunStore using SQLite.
type RunStore struct {
	db *DB
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

const runColumns = `
	run_id, dataset_id, span_from_ns, span_to_ns, variant,
	short_window, long_window, rolling_period, z_thresh,
	transaction_cost, direction, bars_per_period,
	sharpe_ratio, calmar_ratio, beta, max_drawdown,
	long_entries, short_entries, trade_count, long_bars, short_bars,
	long_short_duration_ratio, accumulated_return, bar_count, period_count,
	created_at_ms
`

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.RunRecord) error {
	p, sum := r.Config.Strategy, r.Summary
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO backtest_runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.RunID, r.DatasetID, unixNanoOrNull(r.Span.From), unixNanoOrNull(r.Span.To), string(p.Variant),
		p.ShortWindow, p.LongWindow, p.RollingPeriod, p.ZThresh,
		r.Config.TransactionCost, r.Config.Direction, r.Config.BarsPerPeriod,
		toNull(sum.SharpeRatio), toNull(sum.CalmarRatio), toNull(sum.Beta), toNull(sum.MaxDrawdown),
		sum.LongEntries, sum.ShortEntries, sum.TradeCount, sum.LongBars, sum.ShortBars,
		toNull(sum.LongShortDurationRatio), toNull(sum.AccumulatedReturn), sum.BarCount, sum.PeriodCount,
		r.CreatedAt.UnixMilli(),
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
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM backtest_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get backtest run by id: %w", err)
	}
	return r, nil
}

// GetByDataset retrieves all runs of a dataset, ordered by run_id ASC.
func (s *RunStore) GetByDataset(ctx context.Context, datasetID string) ([]*domain.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM backtest_runs WHERE dataset_id = ? ORDER BY run_id ASC`, datasetID)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*domain.RunRecord, error) {
	var r domain.RunRecord
	var variant string
	var sharpe, calmar, beta, mdd, lsdr, acc sql.NullFloat64
	var createdMs int64
	var from, to sql.NullInt64
	p, sum := &r.Config.Strategy, &r.Summary

	err := row.Scan(
		&r.RunID, &r.DatasetID, &from, &to, &variant,
		&p.ShortWindow, &p.LongWindow, &p.RollingPeriod, &p.ZThresh,
		&r.Config.TransactionCost, &r.Config.Direction, &r.Config.BarsPerPeriod,
		&sharpe, &calmar, &beta, &mdd,
		&sum.LongEntries, &sum.ShortEntries, &sum.TradeCount, &sum.LongBars, &sum.ShortBars,
		&lsdr, &acc, &sum.BarCount, &sum.PeriodCount,
		&createdMs,
	)
	if err != nil {
		return nil, err
	}

	p.Variant = domain.Variant(variant)
	sum.SharpeRatio = fromNull(sharpe)
	sum.CalmarRatio = fromNull(calmar)
	sum.Beta = fromNull(beta)
	sum.MaxDrawdown = fromNull(mdd)
	sum.LongShortDurationRatio = fromNull(lsdr)
	sum.AccumulatedReturn = fromNull(acc)
	if from.Valid && to.Valid {
		r.Span = domain.Span{From: time.Unix(0, from.Int64).UTC(), To: time.Unix(0, to.Int64).UTC()}
	}
	r.CreatedAt = time.UnixMilli(createdMs).UTC()
	return &r, nil
}

func unixNanoOrNull(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}
