package reporting

import (
	"gopkg.in/yaml.v3"
)

// summaryDoc is the YAML layout of a run summary. Non-finite metrics are
// emitted as YAML's .nan / .inf spellings.
type summaryDoc struct {
	RunReport `yaml:",inline"`
	Metrics   summaryMetrics `yaml:"metrics"`
}

type summaryMetrics struct {
	SharpeRatio            float64 `yaml:"sharpe_ratio"`
	CalmarRatio            float64 `yaml:"calmar_ratio"`
	Beta                   float64 `yaml:"beta"`
	MaxDrawdown            float64 `yaml:"max_drawdown"`
	TradeCount             int     `yaml:"trade_count"`
	LongEntries            int     `yaml:"long_entries"`
	ShortEntries           int     `yaml:"short_entries"`
	LongBars               int     `yaml:"long_bars"`
	ShortBars              int     `yaml:"short_bars"`
	LongShortDurationRatio float64 `yaml:"long_short_duration_ratio"`
	AccumulatedReturn      float64 `yaml:"accumulated_return"`
	BarCount               int     `yaml:"bar_count"`
	PeriodCount            int     `yaml:"period_count"`
}

// RenderSummaryYAML renders a run report as YAML.
func RenderSummaryYAML(r *RunReport) ([]byte, error) {
	s := r.Summary
	return yaml.Marshal(summaryDoc{
		RunReport: *r,
		Metrics: summaryMetrics{
			SharpeRatio:            s.SharpeRatio,
			CalmarRatio:            s.CalmarRatio,
			Beta:                   s.Beta,
			MaxDrawdown:            s.MaxDrawdown,
			TradeCount:             s.TradeCount,
			LongEntries:            s.LongEntries,
			ShortEntries:           s.ShortEntries,
			LongBars:               s.LongBars,
			ShortBars:              s.ShortBars,
			LongShortDurationRatio: s.LongShortDurationRatio,
			AccumulatedReturn:      s.AccumulatedReturn,
			BarCount:               s.BarCount,
			PeriodCount:            s.PeriodCount,
		},
	})
}
