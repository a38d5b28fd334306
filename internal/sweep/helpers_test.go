package sweep

import (
	"context"

	"signal-backtest-lab/internal/backtest"
	"signal-backtest-lab/internal/domain"
)

func runSingle(cfg domain.BacktestConfig, bars []domain.Bar) (domain.PerformanceSummary, error) {
	res, err := backtest.Run(context.Background(), cfg, bars)
	if err != nil {
		return domain.PerformanceSummary{}, err
	}
	return res.Summary, nil
}
