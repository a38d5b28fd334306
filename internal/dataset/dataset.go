// Package dataset reads and validates the cleaned input table consumed by
// backtests: one row per bar with a timestamp, a price and an indicator.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"signal-backtest-lab/internal/domain"
)

// Dataset errors.
var (
	ErrMalformedRow       = errors.New("malformed row")
	ErrUnordered          = errors.New("timestamps not strictly increasing")
	ErrDuplicateTimestamp = errors.New("duplicate timestamp")
	ErrNonPositivePrice   = errors.New("non-positive price")
)

// Accepted timestamp layouts, tried in order. Integer values are read as
// unix seconds, or milliseconds when they have 13 digits.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// LoadFile opens path and parses it with Load.
func LoadFile(path string) ([]domain.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	bars, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", path, err)
	}
	return bars, nil
}

// Load parses a CSV table with a header row and validates it.
//
// The timestamp column is named "timestamp" or "time", the price column
// "price". The indicator column is named "indicator"; when absent, the one
// remaining column is used, so files that name it after the data source
// (e.g. "balance_exchanges") load unchanged.
func Load(r io.Reader) ([]domain.Bar, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", domain.ErrInsufficientData)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrMalformedRow, err)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var bars []domain.Bar
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedRow, err)
		}
		line, _ := cr.FieldPos(0)
		bar, err := parseRow(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no rows", domain.ErrInsufficientData)
	}
	if err := Validate(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

type columns struct {
	timestamp, price, indicator int
}

func resolveColumns(header []string) (columns, error) {
	cols := columns{timestamp: -1, price: -1, indicator: -1}
	var rest []int
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "timestamp", "time", "timestamps":
			cols.timestamp = i
		case "price", "prices":
			cols.price = i
		case "indicator", "variables":
			cols.indicator = i
		default:
			rest = append(rest, i)
		}
	}
	if cols.indicator < 0 && len(rest) == 1 {
		cols.indicator = rest[0]
	}
	if cols.timestamp < 0 || cols.price < 0 || cols.indicator < 0 {
		return cols, fmt.Errorf("%w: header %q needs timestamp, price and indicator columns", ErrMalformedRow, header)
	}
	return cols, nil
}

func parseRow(record []string, cols columns) (domain.Bar, error) {
	ts, err := ParseTimestamp(record[cols.timestamp])
	if err != nil {
		return domain.Bar{}, err
	}
	price, err := parseFloat("price", record[cols.price])
	if err != nil {
		return domain.Bar{}, err
	}
	indicator, err := parseFloat("indicator", record[cols.indicator])
	if err != nil {
		return domain.Bar{}, err
	}
	return domain.Bar{Timestamp: ts, Price: price, Indicator: indicator}, nil
}

func parseFloat(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrMalformedRow, name, s)
	}
	return v, nil
}

// ParseTimestamp parses a timestamp cell into UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if len(strings.TrimPrefix(s, "-")) >= 13 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrMalformedRow, s)
}

// Validate checks the ordering and value constraints of a bar series.
func Validate(bars []domain.Bar) error {
	for i, b := range bars {
		if !(b.Price > 0) || math.IsInf(b.Price, 0) {
			return fmt.Errorf("%w: row %d price %g", ErrNonPositivePrice, i, b.Price)
		}
		if math.IsNaN(b.Indicator) || math.IsInf(b.Indicator, 0) {
			return fmt.Errorf("%w: row %d indicator %g", ErrMalformedRow, i, b.Indicator)
		}
		if i == 0 {
			continue
		}
		prev := bars[i-1].Timestamp
		switch {
		case b.Timestamp.Equal(prev):
			return fmt.Errorf("%w: row %d at %s", ErrDuplicateTimestamp, i, b.Timestamp.Format(time.RFC3339))
		case b.Timestamp.Before(prev):
			return fmt.Errorf("%w: row %d at %s", ErrUnordered, i, b.Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}

// Write renders bars in the layout Load accepts.
func Write(w io.Writer, bars []domain.Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "price", "indicator"}); err != nil {
		return err
	}
	for _, b := range bars {
		err := cw.Write([]string{
			b.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			strconv.FormatFloat(b.Price, 'g', -1, 64),
			strconv.FormatFloat(b.Indicator, 'g', -1, 64),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
