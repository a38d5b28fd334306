package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"signal-backtest-lab/internal/domain"
	"signal-backtest-lab/internal/storage"
)

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu   sync.RWMutex
	data map[string]map[int64]domain.Bar // dataset_id -> unix nanos -> bar
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{
		data: make(map[string]map[int64]domain.Bar),
	}
}

// InsertBulk adds bars to a dataset. Fails entire batch on duplicate.
func (s *BarStore) InsertBulk(_ context.Context, datasetID string, bars []domain.Bar) error {
	if datasetID == "" {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[datasetID]

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[int64]struct{}, len(bars))
	for _, b := range bars {
		key := b.Timestamp.UnixNano()
		if _, exists := existing[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	if existing == nil {
		existing = make(map[int64]domain.Bar, len(bars))
		s.data[datasetID] = existing
	}
	for _, b := range bars {
		b.Timestamp = b.Timestamp.UTC()
		existing[b.Timestamp.UnixNano()] = b
	}

	return nil
}

// GetByDataset retrieves all bars of a dataset, ordered by timestamp ASC.
func (s *BarStore) GetByDataset(_ context.Context, datasetID string) ([]domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bars, ok := s.data[datasetID]
	if !ok || len(bars) == 0 {
		return nil, storage.ErrNotFound
	}

	result := make([]domain.Bar, 0, len(bars))
	for _, b := range bars {
		result = append(result, b)
	}
	sortBars(result)
	return result, nil
}

// GetByTimeRange retrieves bars within [start, end] (inclusive).
func (s *BarStore) GetByTimeRange(_ context.Context, datasetID string, start, end time.Time) ([]domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Bar
	for _, b := range s.data[datasetID] {
		if !b.Timestamp.Before(start) && !b.Timestamp.After(end) {
			result = append(result, b)
		}
	}
	sortBars(result)
	return result, nil
}

// ListDatasets returns all dataset IDs, sorted ASC.
func (s *BarStore) ListDatasets(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func sortBars(bars []domain.Bar) {
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
}

var _ storage.BarStore = (*BarStore)(nil)
