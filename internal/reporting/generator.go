package reporting

import (
	"context"
	"math"
	"sort"
	"time"

	"signal-backtest-lab/internal/domain"
	"signal-backtest-lab/internal/storage"
	"signal-backtest-lab/internal/sweep"
)

// DefaultBestCells is the number of top cells listed in a sweep report.
const DefaultBestCells = 5

// Generator produces reports from fresh results or stored data.
type Generator struct {
	runStore   storage.RunStore
	sweepStore storage.SweepStore
	bestCells  int
	now        func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
// Either store may be nil when only in-memory results are reported.
func NewGenerator(runStore storage.RunStore, sweepStore storage.SweepStore) *Generator {
	return &Generator{
		runStore:   runStore,
		sweepStore: sweepStore,
		bestCells:  DefaultBestCells,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithBestCells sets how many top cells a sweep report lists.
func (g *Generator) WithBestCells(n int) *Generator {
	g.bestCells = n
	return g
}

// BuildSweepReport wraps a sweep result.
func (g *Generator) BuildSweepReport(res *domain.SweepResult, sweepID, datasetID, testSet string) *SweepReport {
	return &SweepReport{
		GeneratedAt: g.now(),
		SweepID:     sweepID,
		DatasetID:   datasetID,
		TestSet:     testSet,
		Result:      res,
		Best:        bestCells(res, g.bestCells),
	}
}

// SweepReport rebuilds the report of a stored sweep.
func (g *Generator) SweepReport(ctx context.Context, sweepID string) (*SweepReport, error) {
	cells, err := g.sweepStore.GetCells(ctx, sweepID)
	if err != nil {
		return nil, err
	}
	res, err := sweep.FromRecords(cells)
	if err != nil {
		return nil, err
	}
	return g.BuildSweepReport(res, sweepID, cells[0].DatasetID, ""), nil
}

// BuildRunReport wraps a fresh backtest summary.
func (g *Generator) BuildRunReport(rec *domain.RunRecord) *RunReport {
	return &RunReport{
		GeneratedAt: g.now(),
		RunID:       rec.RunID,
		DatasetID:   rec.DatasetID,
		StrategyID:  rec.Config.Strategy.ID(),
		Config:      rec.Config,
		Summary:     rec.Summary,
	}
}

// RunReports loads every stored run of a dataset, ordered by run ID.
func (g *Generator) RunReports(ctx context.Context, datasetID string) ([]RunReport, error) {
	runs, err := g.runStore.GetByDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	reports := make([]RunReport, 0, len(runs))
	for _, r := range runs {
		reports = append(reports, *g.BuildRunReport(r))
	}
	return reports, nil
}

// bestCells returns up to n cells with a finite Sharpe ratio, highest first.
// Ties keep grid order.
func bestCells(res *domain.SweepResult, n int) []CellRow {
	sharpe := res.Matrices[domain.MetricSharpeRatio]
	var rows []CellRow
	for i, a := range res.GridA {
		for j, b := range res.GridB {
			if math.IsNaN(sharpe[i][j]) || math.IsInf(sharpe[i][j], 0) {
				continue
			}
			rows = append(rows, CellRow{
				Row:         i,
				Col:         j,
				ParamA:      a,
				ParamB:      b,
				SharpeRatio: sharpe[i][j],
				CalmarRatio: res.Matrices[domain.MetricCalmarRatio][i][j],
				TradeCount:  res.Matrices[domain.MetricNumberOfTrades][i][j],
				MaxDrawdown: res.Matrices[domain.MetricMaximumDrawdown][i][j],
			})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].SharpeRatio > rows[j].SharpeRatio
	})
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}
