package clickhouse

import (
	"context"
	"fmt"
	"time"

	"signal-backtest-lab/internal/domain"
	"signal-backtest-lab/internal/storage"
)

// BarStore implements storage.BarStore using ClickHouse.
type BarStore struct {
	conn *Conn
}

// NewBarStore creates a new BarStore.
func NewBarStore(conn *Conn) *BarStore {
	return &BarStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// InsertBulk appends bars to a dataset. Fails entire batch on duplicate (dataset_id, timestamp).
func (s *BarStore) InsertBulk(ctx context.Context, datasetID string, bars []domain.Bar) error {
	if datasetID == "" {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[int64]struct{}, len(bars))
	lo, hi := bars[0].Timestamp.UnixMilli(), bars[0].Timestamp.UnixMilli()
	for _, b := range bars {
		ts := b.Timestamp.UnixMilli()
		if _, exists := seen[ts]; exists {
			return storage.ErrDuplicateKey
		}
		seen[ts] = struct{}{}
		lo, hi = min(lo, ts), max(hi, ts)
	}

	// Check for duplicates against existing rows in the batch's span
	existing, err := s.timestamps(ctx, datasetID, lo, hi)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	for _, ts := range existing {
		if _, clash := seen[ts]; clash {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO bars (
			dataset_id, timestamp_ms, price, indicator
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, b := range bars {
		if err := batch.Append(datasetID, b.Timestamp.UnixMilli(), b.Price, b.Indicator); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByDataset retrieves all bars of a dataset, ordered by timestamp ASC.
func (s *BarStore) GetByDataset(ctx context.Context, datasetID string) ([]domain.Bar, error) {
	query := `
		SELECT timestamp_ms, price, indicator
		FROM bars
		WHERE dataset_id = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, datasetID)
	if err != nil {
		return nil, fmt.Errorf("query by dataset: %w", err)
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
	query := `
		SELECT timestamp_ms, price, indicator
		FROM bars
		WHERE dataset_id = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, datasetID, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// ListDatasets returns all dataset IDs, sorted ASC.
func (s *BarStore) ListDatasets(ctx context.Context) ([]string, error) {
	rows, err := s.conn.Query(ctx, `SELECT DISTINCT dataset_id FROM bars ORDER BY dataset_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan dataset id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dataset ids: %w", err)
	}
	return ids, nil
}

// timestamps returns the stored timestamps of a dataset within [lo, hi] ms.
func (s *BarStore) timestamps(ctx context.Context, datasetID string, lo, hi int64) ([]int64, error) {
	query := `
		SELECT timestamp_ms FROM bars
		WHERE dataset_id = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
	`

	rows, err := s.conn.Query(ctx, query, datasetID, lo, hi)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var ts int64
		if err := rows.Scan(&ts); err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// scanBars scans multiple rows.
func scanBars(rows chRows) ([]domain.Bar, error) {
	var bars []domain.Bar

	for rows.Next() {
		var b domain.Bar
		var timestampMs int64

		if err := rows.Scan(&timestampMs, &b.Price, &b.Indicator); err != nil {
			return nil, fmt.Errorf("scan bar row: %w", err)
		}

		b.Timestamp = time.UnixMilli(timestampMs).UTC()
		bars = append(bars, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bar rows: %w", err)
	}

	return bars, nil
}
