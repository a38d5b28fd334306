package reporting

import (
	"math"
	"strconv"
)

// formatValue renders a metric value; non-finite values use fixed spellings.
func formatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// formatParam renders a grid value as short as possible (1680, 1.8).
func formatParam(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
