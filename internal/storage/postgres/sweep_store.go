package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"signal-backtest-lab/internal/domain"
	"signal-backtest-lab/internal/storage"
)

// SweepStore implements storage.SweepStore using PostgreSQL.
type SweepStore struct {
	pool *Pool
}

// NewSweepStore creates a new SweepStore.
func NewSweepStore(pool *Pool) *SweepStore {
	return &SweepStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SweepStore = (*SweepStore)(nil)

// InsertCells adds sweep cells atomically. Fails entire batch on any duplicate.
func (s *SweepStore) InsertCells(ctx context.Context, cells []*domain.SweepCellRecord) error {
	if len(cells) == 0 {
		return nil
	}

	query := `
		INSERT INTO sweep_cells (
			sweep_id, dataset_id, variant, row_idx, col_idx, param_a, param_b,
			sharpe_ratio, calmar_ratio, max_drawdown, beta, trade_count,
			long_short_duration_ratio, failure
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14
		)
	`

	batch := &pgx.Batch{}
	for _, c := range cells {
		if c.SweepID == "" || c.Row < 0 || c.Col < 0 {
			return storage.ErrInvalidInput
		}
		batch.Queue(query,
			c.SweepID, c.DatasetID, string(c.Variant), c.Row, c.Col, c.ParamA, c.ParamB,
			c.SharpeRatio, c.CalmarRatio, c.MaxDrawdown, c.Beta, c.TradeCount,
			c.LongShortDurationRatio, c.Failure,
		)
	}

	return s.pool.inTx(ctx, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		defer results.Close()
		for range cells {
			if _, err := results.Exec(); err != nil {
				if isDuplicateKeyError(err) {
					return storage.ErrDuplicateKey
				}
				return fmt.Errorf("insert sweep cell in bulk: %w", err)
			}
		}
		return results.Close()
	})
}

// GetCells retrieves all cells of a sweep, ordered by row ASC, col ASC.
// Returns ErrNotFound if the sweep has no cells.
func (s *SweepStore) GetCells(ctx context.Context, sweepID string) ([]*domain.SweepCellRecord, error) {
	query := `
		SELECT
			sweep_id, dataset_id, variant, row_idx, col_idx, param_a, param_b,
			sharpe_ratio, calmar_ratio, max_drawdown, beta, trade_count,
			long_short_duration_ratio, failure
		FROM sweep_cells
		WHERE sweep_id = $1
		ORDER BY row_idx ASC, col_idx ASC
	`

	rows, err := s.pool.Query(ctx, query, sweepID)
	if err != nil {
		return nil, fmt.Errorf("get sweep cells: %w", err)
	}
	defer rows.Close()

	var cells []*domain.SweepCellRecord
	for rows.Next() {
		var c domain.SweepCellRecord
		var variant string

		err := rows.Scan(
			&c.SweepID, &c.DatasetID, &variant, &c.Row, &c.Col, &c.ParamA, &c.ParamB,
			&c.SharpeRatio, &c.CalmarRatio, &c.MaxDrawdown, &c.Beta, &c.TradeCount,
			&c.LongShortDurationRatio, &c.Failure,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sweep cell row: %w", err)
		}

		c.Variant = domain.Variant(variant)
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
	query := `
		SELECT DISTINCT sweep_id FROM sweep_cells
		WHERE dataset_id = $1
		ORDER BY sweep_id ASC
	`

	rows, err := s.pool.Query(ctx, query, datasetID)
	if err != nil {
		return nil, fmt.Errorf("list sweeps: %w", err)
	}
	defer rows.Close()

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect sweep ids: %w", err)
	}
	return ids, nil
}
