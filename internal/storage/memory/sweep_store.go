package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"signal-backtest-lab/internal/domain"
	"signal-backtest-lab/internal/storage"
)

// SweepStore is an in-memory implementation of storage.SweepStore.
type SweepStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SweepCellRecord // keyed by (sweep_id, row, col)
}

// NewSweepStore creates a new in-memory sweep store.
func NewSweepStore() *SweepStore {
	return &SweepStore{
		data: make(map[string]*domain.SweepCellRecord),
	}
}

// cellKey generates a unique key for a sweep cell.
func cellKey(sweepID string, row, col int) string {
	return fmt.Sprintf("%s|%d|%d", sweepID, row, col)
}

// InsertCells adds cells. Fails entire batch on duplicate.
func (s *SweepStore) InsertCells(_ context.Context, cells []*domain.SweepCellRecord) error {
	if len(cells) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(cells))
	for _, c := range cells {
		if c == nil || c.SweepID == "" {
			return storage.ErrInvalidInput
		}
		key := cellKey(c.SweepID, c.Row, c.Col)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, c := range cells {
		cellCopy := *c
		s.data[cellKey(c.SweepID, c.Row, c.Col)] = &cellCopy
	}
	return nil
}

// GetCells retrieves all cells of a sweep, ordered by row, col.
func (s *SweepStore) GetCells(_ context.Context, sweepID string) ([]*domain.SweepCellRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SweepCellRecord
	for _, c := range s.data {
		if c.SweepID == sweepID {
			cellCopy := *c
			result = append(result, &cellCopy)
		}
	}
	if len(result) == 0 {
		return nil, storage.ErrNotFound
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Row != result[j].Row {
			return result[i].Row < result[j].Row
		}
		return result[i].Col < result[j].Col
	})
	return result, nil
}

// ListSweeps returns sweep IDs recorded for a dataset, sorted ASC.
func (s *SweepStore) ListSweeps(_ context.Context, datasetID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, c := range s.data {
		if c.DatasetID == datasetID {
			seen[c.SweepID] = struct{}{}
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

var _ storage.SweepStore = (*SweepStore)(nil)
