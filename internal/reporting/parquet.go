package reporting

import (
	"io"

	"github.com/parquet-go/parquet-go"

	"signal-backtest-lab/internal/domain"
)

// TableRecord is the Parquet schema of an enriched bar.
type TableRecord struct {
	Timestamp         int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Price             float64 `parquet:"price"`
	Indicator         float64 `parquet:"indicator"`
	ShortMA           float64 `parquet:"short_ma"`
	LongMA            float64 `parquet:"long_ma"`
	Mean              float64 `parquet:"mean"`
	UpperBand         float64 `parquet:"upper_band"`
	LowerBand         float64 `parquet:"lower_band"`
	ZScore            float64 `parquet:"z_score"`
	Position          float64 `parquet:"position"`
	PrevPosition      float64 `parquet:"prev_position"`
	PctChange         float64 `parquet:"pct_change"`
	PriceChange       float64 `parquet:"price_change"`
	Trade             float64 `parquet:"trade"`
	Cost              float64 `parquet:"cost"`
	Earnings          float64 `parquet:"earnings"`
	PnL               float64 `parquet:"pnl"`
	CumPnL            float64 `parquet:"cum_pnl"`
	Drawdown          float64 `parquet:"drawdown"`
	BenchmarkCum      float64 `parquet:"benchmark_cum"`
	BenchmarkDrawdown float64 `parquet:"benchmark_drawdown"`
}

// WriteTableParquet writes the enriched bar table as a Parquet file.
func WriteTableParquet(w io.Writer, table []domain.EnrichedBar) error {
	records := make([]TableRecord, len(table))
	for i, b := range table {
		records[i] = TableRecord{
			Timestamp:         b.Timestamp.UnixMilli(),
			Price:             b.Price,
			Indicator:         b.Indicator,
			ShortMA:           b.ShortMA,
			LongMA:            b.LongMA,
			Mean:              b.Mean,
			UpperBand:         b.UpperBand,
			LowerBand:         b.LowerBand,
			ZScore:            b.ZScore,
			Position:          b.Position,
			PrevPosition:      b.PrevPosition,
			PctChange:         b.PctChange,
			PriceChange:       b.PriceChange,
			Trade:             b.Trade,
			Cost:              b.Cost,
			Earnings:          b.Earnings,
			PnL:               b.PnL,
			CumPnL:            b.CumPnL,
			Drawdown:          b.Drawdown,
			BenchmarkCum:      b.BenchmarkCum,
			BenchmarkDrawdown: b.BenchmarkDrawdown,
		}
	}
	return parquet.Write(w, records)
}
