package sweep

import (
	"fmt"
	"math"
	"sort"

	"signal-backtest-lab/internal/domain"
)

// ToRecords flattens a sweep result into one record per cell, row-major.
func ToRecords(res *domain.SweepResult, sweepID, datasetID string) []*domain.SweepCellRecord {
	failures := make(map[[2]int]error, len(res.Failures))
	for _, f := range res.Failures {
		failures[[2]int{f.Row, f.Col}] = f.Err
	}

	value := func(m domain.Metric, i, j int) float64 {
		return res.Matrices[m][i][j]
	}

	records := make([]*domain.SweepCellRecord, 0, len(res.GridA)*len(res.GridB))
	for i, a := range res.GridA {
		for j, b := range res.GridB {
			rec := &domain.SweepCellRecord{
				SweepID:   sweepID,
				DatasetID: datasetID,
				Variant:   res.Variant,
				Row:       i,
				Col:       j,
				ParamA:    a,
				ParamB:    b,

				SharpeRatio:            value(domain.MetricSharpeRatio, i, j),
				CalmarRatio:            value(domain.MetricCalmarRatio, i, j),
				MaxDrawdown:            value(domain.MetricMaximumDrawdown, i, j),
				Beta:                   value(domain.MetricBeta, i, j),
				TradeCount:             value(domain.MetricNumberOfTrades, i, j),
				LongShortDurationRatio: value(domain.MetricLongShortDurationRatio, i, j),
			}
			if err, ok := failures[[2]int{i, j}]; ok {
				rec.Failure = err.Error()
			}
			records = append(records, rec)
		}
	}
	return records
}

// FromRecords rebuilds a sweep result from stored cells. Grid values are
// recovered from the row and column indices; missing cells stay NaN.
func FromRecords(cells []*domain.SweepCellRecord) (*domain.SweepResult, error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("%w: no sweep cells", domain.ErrInsufficientData)
	}

	gridA := map[int]float64{}
	gridB := map[int]float64{}
	for _, c := range cells {
		if c.Row < 0 || c.Col < 0 {
			return nil, fmt.Errorf("%w: cell (%d, %d)", domain.ErrInvalidParameter, c.Row, c.Col)
		}
		if c.Variant != cells[0].Variant || c.SweepID != cells[0].SweepID {
			return nil, fmt.Errorf("%w: cells from different sweeps", domain.ErrInvalidParameter)
		}
		gridA[c.Row] = c.ParamA
		gridB[c.Col] = c.ParamB
	}

	res := &domain.SweepResult{
		Variant:  cells[0].Variant,
		GridA:    denseGrid(gridA),
		GridB:    denseGrid(gridB),
		Matrices: make(map[domain.Metric]domain.Matrix, len(domain.SweepMetrics)),
	}
	for _, m := range domain.SweepMetrics {
		res.Matrices[m] = domain.NewMatrix(len(res.GridA), len(res.GridB), math.NaN())
	}

	for _, c := range cells {
		if c.Failure != "" {
			res.Failures = append(res.Failures, domain.CellFailure{
				Row:    c.Row,
				Col:    c.Col,
				ParamA: c.ParamA,
				ParamB: c.ParamB,
				Err:    fmt.Errorf("%w: %s", domain.ErrSweepCellFailure, c.Failure),
			})
			continue
		}
		res.Matrices[domain.MetricSharpeRatio][c.Row][c.Col] = c.SharpeRatio
		res.Matrices[domain.MetricCalmarRatio][c.Row][c.Col] = c.CalmarRatio
		res.Matrices[domain.MetricNumberOfTrades][c.Row][c.Col] = c.TradeCount
		res.Matrices[domain.MetricLongShortDurationRatio][c.Row][c.Col] = c.LongShortDurationRatio
		res.Matrices[domain.MetricMaximumDrawdown][c.Row][c.Col] = c.MaxDrawdown
		res.Matrices[domain.MetricBeta][c.Row][c.Col] = c.Beta
	}

	sort.Slice(res.Failures, func(i, j int) bool {
		if res.Failures[i].Row != res.Failures[j].Row {
			return res.Failures[i].Row < res.Failures[j].Row
		}
		return res.Failures[i].Col < res.Failures[j].Col
	})
	return res, nil
}

// denseGrid orders values by index; gaps become NaN.
func denseGrid(byIndex map[int]float64) []float64 {
	n := 0
	for idx := range byIndex {
		n = max(n, idx+1)
	}
	grid := make([]float64, n)
	for i := range grid {
		v, ok := byIndex[i]
		if !ok {
			v = math.NaN()
		}
		grid[i] = v
	}
	return grid
}
