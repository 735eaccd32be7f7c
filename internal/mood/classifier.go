package mood

import (
	"time"

	"MoodPulse/internal/domain/models"
)

// Thresholds are the classifier's tuning knobs. They come from
// configuration, not constants.
type Thresholds struct {
	VolElevated    float64 // stddev of per-sample returns
	VolHigh        float64
	VolExtreme     float64
	CorrAligned    float64 // correlation above this is "aligned"
	CorrInverse    float64 // correlation below this is "inverse"
	MinDwellCycles int
}

// Inputs is the bucketed view of a CorrelationState the rule table
// matches against.
type Inputs struct {
	Volatility  VolBucket
	Trend       models.TrendBucket
	Correlation CorrBucket
}

// BucketInputs reduces a CorrelationState to rule inputs: volatility from
// the short window (responsiveness), trend from the long window
// (stability), correlation from the short window's defined pairs.
func BucketInputs(state models.CorrelationState, th Thresholds) Inputs {
	in := Inputs{
		Volatility:  VolLow,
		Trend:       models.TrendFlat,
		Correlation: CorrUndefined,
	}

	if short := state.Shortest(); short != nil {
		maxVol := 0.0
		for _, st := range short.Assets {
			if st.Volatility > maxVol {
				maxVol = st.Volatility
			}
		}
		in.Volatility = bucketVol(maxVol, th)

		sum, n := 0.0, 0
		for _, ps := range short.Pairs {
			if ps.Value != nil {
				sum += *ps.Value
				n++
			}
		}
		if n > 0 {
			in.Correlation = bucketCorr(sum/float64(n), th)
		}
	}

	if long := state.Longest(); long != nil {
		in.Trend = combinedTrend(long.Assets)
	}

	return in
}

func bucketVol(v float64, th Thresholds) VolBucket {
	switch {
	case v >= th.VolExtreme:
		return VolExtreme
	case v >= th.VolHigh:
		return VolHigh
	case v >= th.VolElevated:
		return VolElevated
	default:
		return VolLow
	}
}

func bucketCorr(c float64, th Thresholds) CorrBucket {
	switch {
	case c >= th.CorrAligned:
		return CorrAligned
	case c <= th.CorrInverse:
		return CorrInverse
	default:
		return CorrWeak
	}
}

var trendScore = map[models.TrendBucket]int{
	models.TrendStrongUp:   2,
	models.TrendUp:         1,
	models.TrendFlat:       0,
	models.TrendDown:       -1,
	models.TrendStrongDown: -2,
}

var scoreTrend = map[int]models.TrendBucket{
	2:  models.TrendStrongUp,
	1:  models.TrendUp,
	0:  models.TrendFlat,
	-1: models.TrendDown,
	-2: models.TrendStrongDown,
}

// combinedTrend averages per-asset trend scores and rounds toward zero,
// so one flat asset tempers one mover.
func combinedTrend(assets map[string]models.AssetWindowStats) models.TrendBucket {
	if len(assets) == 0 {
		return models.TrendFlat
	}
	sum := 0
	for _, st := range assets {
		sum += trendScore[st.Trend]
	}
	return scoreTrend[sum/len(assets)]
}

// Transition is the pure classification step. Given the current state and
// bucketed inputs it returns the next state, whether a transition was
// accepted, and the name of the matched rule. A candidate differing from
// the current mood is accepted only when the current mood has been held
// for MinDwellCycles, or the matched rule is an override.
func Transition(cur models.MoodState, in Inputs, th Thresholds, rules []Rule, now time.Time) (models.MoodState, bool, string) {
	var matched Rule
	for _, r := range rules {
		if r.matches(in) {
			matched = r
			break
		}
	}

	if matched.Mood == cur.Mood {
		cur.DwellCycles++
		return cur, false, matched.Name
	}

	if matched.Override || cur.DwellCycles >= th.MinDwellCycles {
		return models.MoodState{Mood: matched.Mood, EnteredAt: now}, true, matched.Name
	}

	cur.DwellCycles++
	return cur, false, matched.Name
}

// Classifier owns the MoodState. The scheduler observes; it never writes
// the state directly.
type Classifier struct {
	th    Thresholds
	rules []Rule
	state models.MoodState
}

func NewClassifier(th Thresholds, now time.Time) *Classifier {
	return &Classifier{
		th:    th,
		rules: DefaultRules(),
		state: models.ColdStart(now),
	}
}

// State returns the current mood state.
func (c *Classifier) State() models.MoodState { return c.state }

// Observe runs one classification cycle against the given inputs.
func (c *Classifier) Observe(in Inputs, now time.Time) (models.MoodState, bool, string) {
	next, transitioned, rule := Transition(c.state, in, c.th, c.rules, now)
	c.state = next
	return next, transitioned, rule
}
