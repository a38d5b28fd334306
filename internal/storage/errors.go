package storage

import "errors"

// Bars, runs and sweep cells are append-only: a key is written once and
// never updated.
var (
	// ErrNotFound is returned when a dataset, run or sweep has no records.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a write would overwrite an existing
	// bar, run or sweep cell. Batch writes store nothing in that case.
	ErrDuplicateKey = errors.New("duplicate key: records are append-only")

	// ErrInvalidInput is returned for records missing their key fields.
	ErrInvalidInput = errors.New("invalid input")
)
