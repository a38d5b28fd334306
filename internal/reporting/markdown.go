package reporting

import (
	"fmt"
	"strings"
	"time"

	"signal-backtest-lab/internal/domain"
)

var metricTitles = map[domain.Metric]string{
	domain.MetricSharpeRatio:            "Sharpe Ratio",
	domain.MetricCalmarRatio:            "Calmar Ratio",
	domain.MetricNumberOfTrades:         "Number of Trades",
	domain.MetricLongShortDurationRatio: "Long/Short Duration Ratio",
	domain.MetricMaximumDrawdown:        "Maximum Drawdown",
	domain.MetricBeta:                   "Beta",
}

// RenderSweepMarkdown renders a sweep report as Markdown string.
func RenderSweepMarkdown(r *SweepReport) string {
	var sb strings.Builder
	res := r.Result
	rowLabel, colLabel := AxisLabels(res.Variant)

	// Header
	sb.WriteString(fmt.Sprintf("# Parameter Sweep: %s\n\n", res.Variant))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	if r.SweepID != "" {
		sb.WriteString(fmt.Sprintf("| Sweep | %s |\n", r.SweepID))
	}
	if r.DatasetID != "" {
		sb.WriteString(fmt.Sprintf("| Dataset | %s |\n", r.DatasetID))
	}
	if r.TestSet != "" {
		sb.WriteString(fmt.Sprintf("| Test Set | %s |\n", r.TestSet))
	}
	sb.WriteString(fmt.Sprintf("| Grid | %d × %d (%s × %s) |\n", len(res.GridA), len(res.GridB), rowLabel, colLabel))
	sb.WriteString(fmt.Sprintf("| Failed Cells | %d |\n", len(res.Failures)))
	sb.WriteString("\n")

	// Best cells
	sb.WriteString("## Best Cells by Sharpe Ratio\n\n")
	if len(r.Best) > 0 {
		sb.WriteString(fmt.Sprintf("| %s | %s | Sharpe | Calmar | Trades | MaxDD |\n", rowLabel, colLabel))
		sb.WriteString("|---|---|--------|--------|--------|-------|\n")
		for _, c := range r.Best {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
				formatParam(c.ParamA), formatParam(c.ParamB),
				formatValue(c.SharpeRatio), formatValue(c.CalmarRatio),
				formatParam(c.TradeCount), formatValue(c.MaxDrawdown)))
		}
	} else {
		sb.WriteString("No cell has a finite Sharpe ratio.\n")
	}
	sb.WriteString("\n")

	// Heatmaps
	for _, m := range domain.SweepMetrics {
		sb.WriteString(fmt.Sprintf("## %s\n\n", metricTitles[m]))
		writeMatrixTable(&sb, res, m, rowLabel, colLabel)
		sb.WriteString("\n")
	}

	// Failures
	if len(res.Failures) > 0 {
		sb.WriteString("## Failed Cells\n\n")
		sb.WriteString(fmt.Sprintf("| %s | %s | Error |\n", rowLabel, colLabel))
		sb.WriteString("|---|---|-------|\n")
		for _, f := range res.Failures {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
				formatParam(f.ParamA), formatParam(f.ParamB), f.Err))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeMatrixTable(sb *strings.Builder, res *domain.SweepResult, metric domain.Metric, rowLabel, colLabel string) {
	sb.WriteString(fmt.Sprintf("| %s \\ %s |", rowLabel, colLabel))
	for _, b := range res.GridB {
		sb.WriteString(" " + formatParam(b) + " |")
	}
	sb.WriteString("\n|---|")
	for range res.GridB {
		sb.WriteString("---|")
	}
	sb.WriteString("\n")

	m := res.Matrices[metric]
	for i, a := range res.GridA {
		sb.WriteString("| **" + formatParam(a) + "** |")
		for j := range res.GridB {
			sb.WriteString(" " + formatValue(m[i][j]) + " |")
		}
		sb.WriteString("\n")
	}
}

// RenderRunMarkdown renders a single backtest summary as Markdown string.
func RenderRunMarkdown(r *RunReport) string {
	var sb strings.Builder
	s := r.Summary

	sb.WriteString(fmt.Sprintf("# Backtest: %s\n\n", r.StrategyID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	if r.RunID != "" {
		sb.WriteString(fmt.Sprintf("| Run | %s |\n", r.RunID))
	}
	if r.DatasetID != "" {
		sb.WriteString(fmt.Sprintf("| Dataset | %s |\n", r.DatasetID))
	}
	sb.WriteString(fmt.Sprintf("| Transaction Cost | %s |\n", formatParam(r.Config.TransactionCost)))
	sb.WriteString(fmt.Sprintf("| Direction | %s |\n", formatParam(r.Config.Direction)))
	sb.WriteString(fmt.Sprintf("| Bars per Period | %d |\n", r.Config.BarsPerPeriod))
	sb.WriteString(fmt.Sprintf("| Sharpe Ratio | %s |\n", formatValue(s.SharpeRatio)))
	sb.WriteString(fmt.Sprintf("| Calmar Ratio | %s |\n", formatValue(s.CalmarRatio)))
	sb.WriteString(fmt.Sprintf("| Beta | %s |\n", formatValue(s.Beta)))
	sb.WriteString(fmt.Sprintf("| Maximum Drawdown | %s%% |\n", formatValue(s.MaxDrawdown*100)))
	sb.WriteString(fmt.Sprintf("| Trades | %d (long %d, short %d) |\n", s.TradeCount, s.LongEntries, s.ShortEntries))
	sb.WriteString(fmt.Sprintf("| Long/Short Duration Ratio | %s |\n", formatValue(s.LongShortDurationRatio)))
	sb.WriteString(fmt.Sprintf("| Accumulated Return | %s%% |\n", formatValue(s.AccumulatedReturn*100)))
	sb.WriteString(fmt.Sprintf("| Bars | %d |\n", s.BarCount))
	sb.WriteString(fmt.Sprintf("| Periods | %d |\n", s.PeriodCount))

	return sb.String()
}
