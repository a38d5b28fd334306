package domain

import (
	"errors"
	"math"
)

// Engine errors.
var (
	// ErrInvalidParameter is returned for structurally invalid inputs:
	// non-positive windows, windows longer than the series, empty grids,
	// unknown variants, negative costs.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInsufficientData is returned when a series is shorter than the
	// warm-up a strategy requires.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrSweepCellFailure marks a single parameter combination that failed
	// inside a sweep. It is recorded in the sweep result, never returned by it.
	ErrSweepCellFailure = errors.New("sweep cell failure")
)

func nan() float64 { return math.NaN() }
