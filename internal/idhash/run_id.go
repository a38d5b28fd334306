package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"signal-backtest-lab/internal/domain"
)

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(dataset_id|span|strategy_id|transaction_cost|direction|bars_per_period)
// Returns hex-encoded hash (64 characters).
func ComputeRunID(datasetID string, span domain.Span, cfg domain.BacktestConfig) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s|%d",
		datasetID,
		span.String(),
		cfg.Strategy.ID(),
		formatFloat(cfg.TransactionCost),
		formatFloat(cfg.Direction),
		cfg.BarsPerPeriod,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeSweepID computes a deterministic sweep_id using SHA256.
// Formula: SHA256(dataset_id|span|variant|grid_a|grid_b|transaction_cost|direction|bars_per_period)
// Grid values are comma-joined in order.
func ComputeSweepID(datasetID string, span domain.Span, variant domain.Variant, gridA, gridB []float64, cfg domain.BacktestConfig) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s|%d",
		datasetID,
		span.String(),
		string(variant),
		joinFloats(gridA),
		joinFloats(gridB),
		formatFloat(cfg.TransactionCost),
		formatFloat(cfg.Direction),
		cfg.BarsPerPeriod,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeDatasetID fingerprints bar content. Used when bars come from a
// file rather than a named stored dataset.
func ComputeDatasetID(bars []domain.Bar) string {
	h := sha256.New()
	for _, b := range bars {
		fmt.Fprintf(h, "%d|%s|%s\n",
			b.Timestamp.UnixNano(),
			formatFloat(b.Price),
			formatFloat(b.Indicator),
		)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// formatFloat renders the shortest representation that round-trips.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func joinFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, ",")
}
