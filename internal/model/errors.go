package model

import "errors"

var (
	// ErrMalformedInput marks non-numeric, non-monotonic or otherwise corrupted input.
	ErrMalformedInput = errors.New("malformed input")
	// ErrInsufficientData marks a series shorter than a strategy's lookback.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrAlreadyResolved is returned when a record's result was settled by another writer.
	ErrAlreadyResolved = errors.New("signal already resolved")
	// ErrNotFound is returned by stores for unknown record ids.
	ErrNotFound = errors.New("signal not found")
	// ErrDuplicateSignal is returned when a record's id, or its strategy and bar, is already stored.
	ErrDuplicateSignal = errors.New("signal already recorded")
)
