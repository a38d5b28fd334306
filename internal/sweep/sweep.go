// Package sweep evaluates a strategy over the Cartesian product of two
// parameter grids and collects one matrix per metric.
//
// Cells are independent: a fixed pool of workers pulls (row, col) jobs
// from a channel and sends summaries back to a single coordinator, which
// is the only writer of the result matrices. A failing cell is recorded
// and stored as NaN; it never stops the sweep.
package sweep

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"signal-backtest-lab/internal/backtest"
	"signal-backtest-lab/internal/domain"
	"signal-backtest-lab/internal/rolling"
)

// Request describes one sweep.
type Request struct {
	Variant domain.Variant
	Bars    []domain.Bar

	// GridA indexes matrix rows, GridB columns.
	// band: GridA = z_thresh, GridB = rolling_period.
	// crossover: GridA = short_window, GridB = long_window.
	GridA []float64
	GridB []float64

	// Fixed supplies cost, direction and bars per period for every cell.
	// Its Strategy field is ignored.
	Fixed domain.BacktestConfig
}

type job struct {
	row, col int
	a, b     float64
}

type cellResult struct {
	job
	summary domain.PerformanceSummary
	err     error
}

// Run executes the sweep. It returns an error only for invalid requests or
// a canceled context; per-cell failures are reported in the result.
func Run(ctx context.Context, req Request, opts ...Option) (*domain.SweepResult, error) {
	o := buildOptions(opts)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	rows, cols := len(req.GridA), len(req.GridB)
	result := &domain.SweepResult{
		Variant:  req.Variant,
		GridA:    append([]float64(nil), req.GridA...),
		GridB:    append([]float64(nil), req.GridB...),
		Matrices: make(map[domain.Metric]domain.Matrix, len(domain.SweepMetrics)),
	}
	for _, m := range domain.SweepMetrics {
		result.Matrices[m] = domain.NewMatrix(rows, cols, math.NaN())
	}

	var stats *rolling.Cache
	if o.useCache {
		indicator := make([]float64, len(req.Bars))
		for i, b := range req.Bars {
			indicator[i] = b.Indicator
		}
		stats = rolling.NewCache(indicator)
	}

	workers := min(o.workers, rows*cols)
	log := o.log.With(
		zap.String("variant", string(req.Variant)),
		zap.Int("rows", rows),
		zap.Int("cols", cols),
		zap.Int("workers", workers),
	)
	log.Info("sweep started", zap.Int("bars", len(req.Bars)))
	started := time.Now()

	jobs := make(chan job)
	results := make(chan cellResult)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for i, a := range req.GridA {
			for j, b := range req.GridB {
				select {
				case jobs <- job{row: i, col: j, a: a, b: b}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		}
		return nil
	})

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			o.metrics.WorkerStarted()
			defer o.metrics.WorkerStopped()

			for jb := range jobs {
				cellStart := time.Now()
				summary, err := evaluate(gctx, req, jb, stats)
				o.metrics.RecordSweepCell(string(req.Variant), time.Since(cellStart).Seconds(), err)

				select {
				case results <- cellResult{job: jb, summary: summary, err: err}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		if r.err != nil {
			result.Failures = append(result.Failures, domain.CellFailure{
				Row:    r.row,
				Col:    r.col,
				ParamA: r.a,
				ParamB: r.b,
				Err:    fmt.Errorf("%w: (%g, %g): %w", domain.ErrSweepCellFailure, r.a, r.b, r.err),
			})
			log.Warn("sweep cell failed",
				zap.Float64("param_a", r.a),
				zap.Float64("param_b", r.b),
				zap.Error(r.err),
			)
			continue
		}
		for _, m := range domain.SweepMetrics {
			result.Matrices[m][r.row][r.col] = r.summary.Metric(m)
		}
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if stats != nil {
		o.metrics.RecordCacheStats(stats.Hits(), stats.Misses())
	}
	o.metrics.RecordSweep(string(req.Variant), time.Since(started).Seconds(), time.Now().Unix(), err)
	if err != nil {
		log.Warn("sweep canceled", zap.Error(err))
		return nil, err
	}

	sort.Slice(result.Failures, func(i, j int) bool {
		if result.Failures[i].Row != result.Failures[j].Row {
			return result.Failures[i].Row < result.Failures[j].Row
		}
		return result.Failures[i].Col < result.Failures[j].Col
	})

	log.Info("sweep finished",
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("failures", len(result.Failures)),
	)
	return result, nil
}

// evaluate runs one cell, converting panics into errors.
func evaluate(ctx context.Context, req Request, jb job, stats *rolling.Cache) (summary domain.PerformanceSummary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	params, err := CellParams(req.Variant, jb.a, jb.b)
	if err != nil {
		return summary, err
	}

	cfg := req.Fixed
	cfg.Strategy = params

	var s rolling.Stats
	if stats != nil {
		s = stats
	}
	res, err := backtest.RunWithStats(ctx, cfg, req.Bars, s)
	if err != nil {
		return summary, err
	}
	return res.Summary, nil
}

// CellParams binds a grid pair to strategy parameters.
// Window values must be integral.
func CellParams(variant domain.Variant, a, b float64) (domain.StrategyParams, error) {
	switch variant {
	case domain.VariantBand:
		period, err := window(b)
		if err != nil {
			return domain.StrategyParams{}, fmt.Errorf("rolling_period: %w", err)
		}
		return domain.StrategyParams{Variant: variant, RollingPeriod: period, ZThresh: a}, nil
	case domain.VariantCrossover:
		short, err := window(a)
		if err != nil {
			return domain.StrategyParams{}, fmt.Errorf("short_window: %w", err)
		}
		long, err := window(b)
		if err != nil {
			return domain.StrategyParams{}, fmt.Errorf("long_window: %w", err)
		}
		return domain.StrategyParams{Variant: variant, ShortWindow: short, LongWindow: long}, nil
	default:
		return domain.StrategyParams{}, fmt.Errorf("%w: unknown variant %q", domain.ErrInvalidParameter, variant)
	}
}

func window(v float64) (int, error) {
	if v != math.Trunc(v) || math.IsInf(v, 0) || v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("%w: window %g is not an integer", domain.ErrInvalidParameter, v)
	}
	return int(v), nil
}

func validateRequest(req Request) error {
	if req.Variant != domain.VariantBand && req.Variant != domain.VariantCrossover {
		return fmt.Errorf("%w: unknown variant %q", domain.ErrInvalidParameter, req.Variant)
	}
	if len(req.GridA) == 0 || len(req.GridB) == 0 {
		return fmt.Errorf("%w: empty parameter grid (%d×%d)", domain.ErrInvalidParameter, len(req.GridA), len(req.GridB))
	}
	if len(req.Bars) == 0 {
		return fmt.Errorf("%w: no bars", domain.ErrInsufficientData)
	}

	probe := req.Fixed
	probe.Strategy = domain.StrategyParams{Variant: req.Variant}
	return backtest.ValidateConfig(probe)
}
