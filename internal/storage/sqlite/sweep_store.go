package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"signal-backtest-lab/internal/domain"
	"signal-backtest-lab/internal/storage"
)

// SweepStore implements storage.SweepStore using SQLite.
type SweepStore struct {
	db *DB
}

// NewSweepStore creates a new SweepStore.
func NewSweepStore(db *DB) *SweepStore {
	return &SweepStore{db: db}
}

// Compile-time interface check.
var _ storage.SweepStore = (*SweepStore)(nil)

// InsertCells adds sweep cells atomically. Fails entire batch on any duplicate.
func (s *SweepStore) InsertCells(ctx context.Context, cells []*domain.SweepCellRecord) error {
	if len(cells) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sweep_cells (
			sweep_id, dataset_id, variant, row_idx, col_idx, param_a, param_b,
			sharpe_ratio, calmar_ratio, max_drawdown, beta, trade_count,
			long_short_duration_ratio, failure
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range cells {
		if c.SweepID == "" || c.Row < 0 || c.Col < 0 {
			return storage.ErrInvalidInput
		}
		_, err := stmt.ExecContext(ctx,
			c.SweepID, c.DatasetID, string(c.Variant), c.Row, c.Col, toNull(c.ParamA), toNull(c.ParamB),
			toNull(c.SharpeRatio), toNull(c.CalmarRatio), toNull(c.MaxDrawdown), toNull(c.Beta), toNull(c.TradeCount),
			toNull(c.LongShortDurationRatio), c.Failure,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert sweep cell: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetCells retrieves all cells of a sweep, ordered by row ASC, col ASC.
func (s *SweepStore) GetCells(ctx context.Context, sweepID string) ([]*domain.SweepCellRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			sweep_id, dataset_id, variant, row_idx, col_idx, param_a, param_b,
			sharpe_ratio, calmar_ratio, max_drawdown, beta, trade_count,
			long_short_duration_ratio, failure
		FROM sweep_cells
		WHERE sweep_id = ?
		ORDER BY row_idx ASC, col_idx ASC
	`, sweepID)
	if err != nil {
		return nil, fmt.Errorf("get sweep cells: %w", err)
	}
	defer rows.Close()

	var cells []*domain.SweepCellRecord
	for rows.Next() {
		var c domain.SweepCellRecord
		var variant string
		var a, b, sharpe, calmar, mdd, beta, trades, lsdr sql.NullFloat64

		err := rows.Scan(
			&c.SweepID, &c.DatasetID, &variant, &c.Row, &c.Col, &a, &b,
			&sharpe, &calmar, &mdd, &beta, &trades,
			&lsdr, &c.Failure,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sweep cell row: %w", err)
		}

		c.Variant = domain.Variant(variant)
		c.ParamA, c.ParamB = fromNull(a), fromNull(b)
		c.SharpeRatio = fromNull(sharpe)
		c.CalmarRatio = fromNull(calmar)
		c.MaxDrawdown = fromNull(mdd)
		c.Beta = fromNull(beta)
		c.TradeCount = fromNull(trades)
		c.LongShortDurationRatio = fromNull(lsdr)
		cells = append(cells, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sweep cell rows: %w", err)
	}

	if len(cells) == 0 {
		return nil, storage.ErrNotFound
	}
	return cells, nil
}

// ListSweeps returns the sweep IDs recorded for a dataset, sorted ASC.
func (s *SweepStore) ListSweeps(ctx context.Context, datasetID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT sweep_id FROM sweep_cells WHERE dataset_id = ? ORDER BY sweep_id ASC`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("list sweeps: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}
