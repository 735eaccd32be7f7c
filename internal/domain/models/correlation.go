package models

import (
	"fmt"
	"time"
)

// TrendBucket buckets a window's cumulative return.
type TrendBucket string

const (
	TrendStrongUp   TrendBucket = "strong_up"
	TrendUp         TrendBucket = "up"
	TrendFlat       TrendBucket = "flat"
	TrendDown       TrendBucket = "down"
	TrendStrongDown TrendBucket = "strong_down"
)

// VolumeTrend describes volume relative to the window average.
type VolumeTrend string

const (
	VolumeSignificantIncrease VolumeTrend = "significant_increase"
	VolumeModerateIncrease    VolumeTrend = "moderate_increase"
	VolumeStable              VolumeTrend = "stable"
	VolumeModerateDecrease    VolumeTrend = "moderate_decrease"
	VolumeSignificantDecrease VolumeTrend = "significant_decrease"
)

// AssetWindowStats holds the per-asset statistics of one window.
type AssetWindowStats struct {
	Asset           string
	Samples         int
	CumulativeRet   float64 // simple return over the whole window
	Volatility      float64 // stddev of per-sample returns, >= 0
	Trend           TrendBucket
	VolumeChangePct float64 // latest volume vs window average, percent
	VolumeTrend     VolumeTrend
	LastPrice       float64
}

// PairStats is the Pearson correlation of two assets' return series over
// timestamp-aligned pairs. Value is nil when fewer than the minimum number
// of aligned pairs exist: "undefined" is distinct from zero.
type PairStats struct {
	Value        *float64
	AlignedPairs int
}

// WindowSnapshot is the derived state of a single window duration.
type WindowSnapshot struct {
	Duration time.Duration
	Assets   map[string]AssetWindowStats
	Pairs    map[string]PairStats // keyed "A/B", A < B lexically
}

// CorrelationState is recomputed each cycle and never persisted.
// Windows are ordered short to long.
type CorrelationState struct {
	ComputedAt time.Time
	Windows    []WindowSnapshot
}

// PairKey builds the canonical map key for an asset pair.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("%s/%s", a, b)
}

// Shortest returns the shortest-duration snapshot, or nil when empty.
func (s *CorrelationState) Shortest() *WindowSnapshot {
	if s == nil || len(s.Windows) == 0 {
		return nil
	}
	return &s.Windows[0]
}

// Longest returns the longest-duration snapshot, or nil when empty.
func (s *CorrelationState) Longest() *WindowSnapshot {
	if s == nil || len(s.Windows) == 0 {
		return nil
	}
	return &s.Windows[len(s.Windows)-1]
}
