package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"signal-backtest-lab/internal/domain"
	"signal-backtest-lab/internal/storage"
)

// BarStore implements storage.BarStore using SQLite.
type BarStore struct {
	db *DB
}

// NewBarStore creates a new BarStore.
func NewBarStore(db *DB) *BarStore {
	return &BarStore{db: db}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// InsertBulk appends bars to a dataset atomically. Fails entire batch on any duplicate.
func (s *BarStore) InsertBulk(ctx context.Context, datasetID string, bars []domain.Bar) error {
	if datasetID == "" {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bars (dataset_id, timestamp_ms, price, indicator)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, datasetID, b.Timestamp.UnixMilli(), b.Price, b.Indicator); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert bar: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByDataset retrieves all bars of a dataset, ordered by timestamp ASC.
func (s *BarStore) GetByDataset(ctx context.Context, datasetID string) ([]domain.Bar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp_ms, price, indicator FROM bars
		WHERE dataset_id = ?
		ORDER BY timestamp_ms ASC
	`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("get bars by dataset: %w", err)
	}
	defer rows.Close()

	bars, err := scanBars(rows)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, storage.ErrNotFound
	}
	return bars, nil
}

// GetByTimeRange retrieves bars of a dataset within [start, end] (inclusive).
func (s *BarStore) GetByTimeRange(ctx context.Context, datasetID string, start, end time.Time) ([]domain.Bar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp_ms, price, indicator FROM bars
		WHERE dataset_id = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`, datasetID, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("get bars by time range: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// ListDatasets returns all dataset IDs, sorted ASC.
func (s *BarStore) ListDatasets(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT dataset_id FROM bars ORDER BY dataset_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

func scanBars(rows *sql.Rows) ([]domain.Bar, error) {
	var bars []domain.Bar
	for rows.Next() {
		var b domain.Bar
		var ts int64
		if err := rows.Scan(&ts, &b.Price, &b.Indicator); err != nil {
			return nil, fmt.Errorf("scan bar row: %w", err)
		}
		b.Timestamp = time.UnixMilli(ts).UTC()
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bar rows: %w", err)
	}
	return bars, nil
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
