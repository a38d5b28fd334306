package storage

import (
	"context"
	"time"

	"signal-backtest-lab/internal/domain"
)

// BarStore provides access to ingested datasets of bars.
type BarStore interface {
	// InsertBulk appends bars to a dataset atomically.
	// Returns ErrDuplicateKey if any (dataset_id, timestamp) exists; nothing is written then.
	InsertBulk(ctx context.Context, datasetID string, bars []domain.Bar) error

	// GetByDataset retrieves all bars of a dataset, ordered by timestamp ASC.
	// Returns ErrNotFound if the dataset has no bars.
	GetByDataset(ctx context.Context, datasetID string) ([]domain.Bar, error)

	// GetByTimeRange retrieves bars of a dataset within [start, end] (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, datasetID string, start, end time.Time) ([]domain.Bar, error)

	// ListDatasets returns all dataset IDs, sorted ASC.
	ListDatasets(ctx context.Context) ([]string, error)
}

// RunStore provides access to persisted single backtests.
type RunStore interface {
	// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.RunRecord) error

	// GetByID retrieves a run by ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunRecord, error)

	// GetByDataset retrieves all runs of a dataset, ordered by run_id ASC.
	GetByDataset(ctx context.Context, datasetID string) ([]*domain.RunRecord, error)
}

// SweepStore provides access to persisted sweep cells.
type SweepStore interface {
	// InsertCells adds the cells of one or more sweeps atomically.
	// Returns ErrDuplicateKey if any (sweep_id, row, col) exists; nothing is written then.
	InsertCells(ctx context.Context, cells []*domain.SweepCellRecord) error

	// GetCells retrieves all cells of a sweep, ordered by row ASC, col ASC.
	// Returns ErrNotFound if the sweep has no cells.
	GetCells(ctx context.Context, sweepID string) ([]*domain.SweepCellRecord, error)

	// ListSweeps returns the sweep IDs recorded for a dataset, sorted ASC.
	ListSweeps(ctx context.Context, datasetID string) ([]string, error)
}
