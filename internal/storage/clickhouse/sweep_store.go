package clickhouse

import (
	"context"
	"fmt"

	"signal-backtest-lab/internal/domain"
	"signal-backtest-lab/internal/storage"
)

// SweepStore implements storage.SweepStore using ClickHouse.
type SweepStore struct {
	conn *Conn
}

// NewSweepStore creates a new SweepStore.
func NewSweepStore(conn *Conn) *SweepStore {
	return &SweepStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SweepStore = (*SweepStore)(nil)

// InsertCells adds sweep cells atomically. Fails entire batch on any duplicate (sweep_id, row, col).
func (s *SweepStore) InsertCells(ctx context.Context, cells []*domain.SweepCellRecord) error {
	if len(cells) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(cells))
	sweeps := make(map[string]struct{})
	for _, c := range cells {
		if c.SweepID == "" || c.Row < 0 || c.Col < 0 {
			return storage.ErrInvalidInput
		}
		key := fmt.Sprintf("%s|%d|%d", c.SweepID, c.Row, c.Col)
		if _, exists := seen[key]; exists {
			return storage.ErrDuplicateKey
		}
		seen[key] = struct{}{}
		sweeps[c.SweepID] = struct{}{}
	}

	// Check for duplicates against existing DB rows, one query per sweep
	for sweepID := range sweeps {
		existing, err := s.cellKeys(ctx, sweepID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		for _, key := range existing {
			if _, clash := seen[key]; clash {
				return storage.ErrDuplicateKey
			}
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO sweep_cells (
			sweep_id, dataset_id, variant, row_idx, col_idx, param_a, param_b,
			sharpe_ratio, calmar_ratio, max_drawdown, beta, trade_count,
			long_short_duration_ratio, failure
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range cells {
		err = batch.Append(
			c.SweepID, c.DatasetID, string(c.Variant), uint32(c.Row), uint32(c.Col), c.ParamA, c.ParamB,
			c.SharpeRatio, c.CalmarRatio, c.MaxDrawdown, c.Beta, c.TradeCount,
			c.LongShortDurationRatio, c.Failure,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetCells retrieves all cells of a sweep, ordered by row ASC, col ASC.
func (s *SweepStore) GetCells(ctx context.Context, sweepID string) ([]*domain.SweepCellRecord, error) {
	query := `
		SELECT
			sweep_id, dataset_id, variant, row_idx, col_idx, param_a, param_b,
			sharpe_ratio, calmar_ratio, max_drawdown, beta, trade_count,
			long_short_duration_ratio, failure
		FROM sweep_cells
		WHERE sweep_id = ?
		ORDER BY row_idx ASC, col_idx ASC
	`

	rows, err := s.conn.Query(ctx, query, sweepID)
	if err != nil {
		return nil, fmt.Errorf("query sweep cells: %w", err)
	}
	defer rows.Close()

	cells, err := scanSweepCells(rows)
	if err != nil {
		return nil, err
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
		WHERE dataset_id = ?
		ORDER BY sweep_id ASC
	`

	rows, err := s.conn.Query(ctx, query, datasetID)
	if err != nil {
		return nil, fmt.Errorf("list sweeps: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan sweep id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sweep ids: %w", err)
	}
	return ids, nil
}

func (s *SweepStore) cellKeys(ctx context.Context, sweepID string) ([]string, error) {
	rows, err := s.conn.Query(ctx, `SELECT row_idx, col_idx FROM sweep_cells WHERE sweep_id = ?`, sweepID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var row, col uint32
		if err := rows.Scan(&row, &col); err != nil {
			return nil, err
		}
		keys = append(keys, fmt.Sprintf("%s|%d|%d", sweepID, row, col))
	}
	return keys, rows.Err()
}

// scanSweepCells scans multiple rows into a slice.
func scanSweepCells(rows chRows) ([]*domain.SweepCellRecord, error) {
	var cells []*domain.SweepCellRecord

	for rows.Next() {
		var c domain.SweepCellRecord
		var variant string
		var row, col uint32

		err := rows.Scan(
			&c.SweepID, &c.DatasetID, &variant, &row, &col, &c.ParamA, &c.ParamB,
			&c.SharpeRatio, &c.CalmarRatio, &c.MaxDrawdown, &c.Beta, &c.TradeCount,
			&c.LongShortDurationRatio, &c.Failure,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sweep cell row: %w", err)
		}

		c.Variant = domain.Variant(variant)
		c.Row = int(row)
		c.Col = int(col)
		cells = append(cells, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sweep cell rows: %w", err)
	}

	return cells, nil
}
