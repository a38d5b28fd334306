package sweep

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-backtest-lab/internal/domain"
	"signal-backtest-lab/internal/storage/memory"
)

func TestRecords_RoundTripThroughStore(t *testing.T) {
	ctx := context.Background()
	req := Request{
		Variant: domain.VariantBand,
		Bars:    synthetic(30),
		GridA:   []float64{0.5, 1.0},
		GridB:   []float64{3, 5, 40},
		Fixed:   fixed(),
	}
	res, err := Run(ctx, req, WithWorkers(2))
	require.NoError(t, err)
	require.Len(t, res.Failures, 2)

	store := memory.NewSweepStore()
	require.NoError(t, store.InsertCells(ctx, ToRecords(res, "s1", "synthetic")))

	cells, err := store.GetCells(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cells, 6)

	rebuilt, err := FromRecords(cells)
	require.NoError(t, err)

	assert.Equal(t, res.GridA, rebuilt.GridA)
	assert.Equal(t, res.GridB, rebuilt.GridB)
	assert.Equal(t, domain.VariantBand, rebuilt.Variant)
	for _, m := range domain.SweepMetrics {
		sameMatrix(t, res.Matrices[m], rebuilt.Matrices[m])
	}
	require.Len(t, rebuilt.Failures, 2)
	assert.Equal(t, 2, rebuilt.Failures[0].Col)
	assert.True(t, errors.Is(rebuilt.Failures[0].Err, domain.ErrSweepCellFailure))
}

func TestFromRecords_Errors(t *testing.T) {
	_, err := FromRecords(nil)
	assert.True(t, errors.Is(err, domain.ErrInsufficientData))

	_, err = FromRecords([]*domain.SweepCellRecord{
		{SweepID: "a", Variant: domain.VariantBand},
		{SweepID: "b", Variant: domain.VariantBand, Row: 1},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidParameter))
}

func TestFromRecords_MissingCellStaysNaN(t *testing.T) {
	res, err := FromRecords([]*domain.SweepCellRecord{
		{SweepID: "s", Variant: domain.VariantBand, Row: 0, Col: 0, ParamA: 1, ParamB: 3, SharpeRatio: 0.5},
		{SweepID: "s", Variant: domain.VariantBand, Row: 1, Col: 1, ParamA: 2, ParamB: 5, SharpeRatio: 0.7},
	})
	require.NoError(t, err)

	sharpe := res.Matrices[domain.MetricSharpeRatio]
	assert.Equal(t, 0.5, sharpe[0][0])
	assert.True(t, math.IsNaN(sharpe[0][1]))
	assert.Equal(t, 0.7, sharpe[1][1])
}
