package models

import "errors"

var (
	// ErrInvalidSample marks malformed ingest input. The sample is rejected
	// and logged; the cycle continues.
	ErrInvalidSample = errors.New("invalid sample")

	// ErrNoData marks a query that found no samples. It is an expected
	// condition: callers skip the computation for that cycle.
	ErrNoData = errors.New("no data")
)
