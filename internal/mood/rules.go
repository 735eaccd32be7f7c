package mood

import "MoodPulse/internal/domain/models"

// VolBucket buckets window volatility against configured thresholds.
type VolBucket string

const (
	VolLow      VolBucket = "low"
	VolElevated VolBucket = "elevated"
	VolHigh     VolBucket = "high"
	VolExtreme  VolBucket = "extreme"
)

// CorrBucket buckets pairwise correlation. Undefined means fewer aligned
// pairs than the tracker's minimum: a distinct signal from zero.
type CorrBucket string

const (
	CorrUndefined CorrBucket = "undefined"
	CorrInverse   CorrBucket = "inverse"
	CorrWeak      CorrBucket = "weak"
	CorrAligned   CorrBucket = "aligned"
)

// Rule maps a (volatility, trend, correlation) bucket tuple to a candidate
// mood. A nil slice matches anything. Rules are evaluated in order; the
// first match wins. Override rules bypass the dwell requirement.
type Rule struct {
	Name     string
	Vol      []VolBucket
	Trend    []models.TrendBucket
	Corr     []CorrBucket
	Mood     models.Mood
	Override bool
}

func (r Rule) matches(in Inputs) bool {
	return containsOrAny(r.Vol, in.Volatility) &&
		containsOrAny(r.Trend, in.Trend) &&
		containsOrAny(r.Corr, in.Correlation)
}

func containsOrAny[T comparable](set []T, v T) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// DefaultRules is the priority-ordered transition table. The trailing
// catch-all guarantees a match always exists.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "extreme_volatility",
			Vol:      []VolBucket{VolExtreme},
			Mood:     models.MoodVolatile,
			Override: true,
		},
		{
			Name:  "panic_slide",
			Vol:   []VolBucket{VolHigh},
			Trend: []models.TrendBucket{models.TrendDown, models.TrendStrongDown},
			Mood:  models.MoodFearful,
		},
		{
			Name: "broad_turbulence",
			Vol:  []VolBucket{VolHigh},
			Mood: models.MoodVolatile,
		},
		{
			Name:  "aligned_melt_up",
			Vol:   []VolBucket{VolLow, VolElevated},
			Trend: []models.TrendBucket{models.TrendStrongUp},
			Corr:  []CorrBucket{CorrAligned},
			Mood:  models.MoodEuphoric,
		},
		{
			Name:  "uptrend",
			Trend: []models.TrendBucket{models.TrendStrongUp, models.TrendUp},
			Mood:  models.MoodBullish,
		},
		{
			Name:  "quiet_rebound",
			Vol:   []VolBucket{VolLow},
			Trend: []models.TrendBucket{models.TrendDown},
			Mood:  models.MoodRecovering,
		},
		{
			Name:  "downtrend",
			Trend: []models.TrendBucket{models.TrendDown, models.TrendStrongDown},
			Mood:  models.MoodBearish,
		},
		{
			Name: "catch_all",
			Mood: models.MoodNeutral,
		},
	}
}
