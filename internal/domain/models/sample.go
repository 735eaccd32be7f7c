package models

import "time"

// Sample is a single price/volume observation for one asset.
// Samples are immutable once stored; timestamps are unique per asset.
type Sample struct {
	Asset     string
	Timestamp time.Time
	Price     float64
	Volume    float64
}

// Validate checks ingest invariants. ErrInvalidSample is returned for
// negative price/volume or a timestamp further in the future than skew.
func (s *Sample) Validate(now time.Time, skew time.Duration) error {
	if s == nil || s.Asset == "" {
		return ErrInvalidSample
	}
	if s.Price < 0 || s.Volume < 0 {
		return ErrInvalidSample
	}
	if s.Timestamp.IsZero() || s.Timestamp.After(now.Add(skew)) {
		return ErrInvalidSample
	}
	return nil
}
