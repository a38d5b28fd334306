package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"signal-backtest-lab/internal/domain"
)

// RenderMatrixCSV renders one metric matrix of a sweep as CSV.
// The header row carries the column grid, the first column the row grid.
func RenderMatrixCSV(res *domain.SweepResult, metric domain.Metric) string {
	var sb strings.Builder

	rowLabel, colLabel := AxisLabels(res.Variant)
	sb.WriteString(rowLabel + "\\" + colLabel)
	for _, b := range res.GridB {
		sb.WriteString("," + formatParam(b))
	}
	sb.WriteString("\n")

	m := res.Matrices[metric]
	for i, a := range res.GridA {
		sb.WriteString(formatParam(a))
		for j := range res.GridB {
			sb.WriteString("," + formatParam(m[i][j]))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// RenderRunsCSV renders run summaries as CSV.
func RenderRunsCSV(runs []RunReport) string {
	var sb strings.Builder

	// Header
	sb.WriteString("run_id,dataset_id,strategy_id,transaction_cost,direction,bars_per_period,")
	sb.WriteString("sharpe_ratio,calmar_ratio,beta,max_drawdown,trade_count,long_entries,short_entries,")
	sb.WriteString("long_short_duration_ratio,accumulated_return,bar_count,period_count\n")

	// Rows
	for _, r := range runs {
		s := r.Summary
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%d,%s,%s,%s,%s,%d,%d,%d,%s,%s,%d,%d\n",
			r.RunID,
			r.DatasetID,
			r.StrategyID,
			formatParam(r.Config.TransactionCost),
			formatParam(r.Config.Direction),
			r.Config.BarsPerPeriod,
			formatParam(s.SharpeRatio),
			formatParam(s.CalmarRatio),
			formatParam(s.Beta),
			formatParam(s.MaxDrawdown),
			s.TradeCount,
			s.LongEntries,
			s.ShortEntries,
			formatParam(s.LongShortDurationRatio),
			formatParam(s.AccumulatedReturn),
			s.BarCount,
			s.PeriodCount,
		))
	}

	return sb.String()
}

var tableHeader = []string{
	"timestamp", "price", "indicator",
	"short_ma", "long_ma", "mean", "upper_band", "lower_band", "z_score",
	"position", "prev_position", "pct_change", "price_change", "trade", "cost",
	"earnings", "pnl", "cum_pnl", "drawdown", "benchmark_cum", "benchmark_drawdown",
}

// WriteTableCSV writes the enriched bar table of a backtest.
func WriteTableCSV(w io.Writer, table []domain.EnrichedBar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tableHeader); err != nil {
		return err
	}

	row := make([]string, len(tableHeader))
	for _, b := range table {
		row[0] = b.Timestamp.UTC().Format(time.DateTime)
		for i, v := range []float64{
			b.Price, b.Indicator,
			b.ShortMA, b.LongMA, b.Mean, b.UpperBand, b.LowerBand, b.ZScore,
			b.Position, b.PrevPosition, b.PctChange, b.PriceChange, b.Trade, b.Cost,
			b.Earnings, b.PnL, b.CumPnL, b.Drawdown, b.BenchmarkCum, b.BenchmarkDrawdown,
		} {
			row[i+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
