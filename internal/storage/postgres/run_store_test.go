package postgres

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-backtest-lab/internal/domain"
	"signal-backtest-lab/internal/storage"
)

func createTestRun(runID, datasetID string) *domain.RunRecord {
	return &domain.RunRecord{
		RunID:     runID,
		DatasetID: datasetID,
		Span: domain.Span{
			From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		Config: domain.BacktestConfig{
			Strategy: domain.StrategyParams{
				Variant:       domain.VariantBand,
				RollingPeriod: 1680,
				ZThresh:       1.8,
			},
			TransactionCost: 0.0006,
			Direction:       -1,
			BarsPerPeriod:   24,
		},
		Summary: domain.PerformanceSummary{
			SharpeRatio:            1.42,
			CalmarRatio:            math.Inf(1),
			Beta:                   math.NaN(),
			MaxDrawdown:            0,
			LongEntries:            4,
			ShortEntries:           3,
			TradeCount:             7,
			LongBars:               120,
			ShortBars:              0,
			LongShortDurationRatio: math.Inf(1),
			AccumulatedReturn:      0.18,
			BarCount:               500,
			PeriodCount:            21,
		},
		CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestRunStore_InsertAndGetByID(t *testing.T) {
	pool := setupTestDB(t)

	store := NewRunStore(pool)
	ctx := context.Background()

	run := createTestRun("run-001", "btc-1h")
	require.NoError(t, store.Insert(ctx, run))

	got, err := store.GetByID(ctx, "run-001")
	require.NoError(t, err)

	assert.Equal(t, run.RunID, got.RunID)
	assert.Equal(t, run.DatasetID, got.DatasetID)
	assert.Equal(t, run.Config, got.Config)
	assert.Equal(t, run.Span, got.Span)
	assert.Equal(t, run.Summary.SharpeRatio, got.Summary.SharpeRatio)
	assert.Equal(t, run.Summary.TradeCount, got.Summary.TradeCount)
	assert.True(t, math.IsInf(got.Summary.CalmarRatio, 1))
	assert.True(t, math.IsNaN(got.Summary.Beta))
	assert.True(t, math.IsInf(got.Summary.LongShortDurationRatio, 1))
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))
}

func TestRunStore_DuplicateKey(t *testing.T) {
	pool := setupTestDB(t)

	store := NewRunStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, createTestRun("run-001", "btc-1h")))
	err := store.Insert(ctx, createTestRun("run-001", "btc-1h"))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestRunStore_NotFound(t *testing.T) {
	pool := setupTestDB(t)

	_, err := NewRunStore(pool).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunStore_GetByDataset(t *testing.T) {
	pool := setupTestDB(t)

	store := NewRunStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, createTestRun("run-c", "btc-1h")))
	require.NoError(t, store.Insert(ctx, createTestRun("run-a", "btc-1h")))
	require.NoError(t, store.Insert(ctx, createTestRun("run-b", "eth-1h")))

	runs, err := store.GetByDataset(ctx, "btc-1h")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-a", runs[0].RunID)
	assert.Equal(t, "run-c", runs[1].RunID)

	runs, err = store.GetByDataset(ctx, "sol-1h")
	require.NoError(t, err)
	assert.Empty(t, runs)
}
