package mood

import (
	"testing"
	"time"

	"MoodPulse/internal/domain/models"
)

func testThresholds() Thresholds {
	return Thresholds{
		VolElevated:    0.002,
		VolHigh:        0.005,
		VolExtreme:     0.012,
		CorrAligned:    0.6,
		CorrInverse:    -0.2,
		MinDwellCycles: 3,
	}
}

func fearfulInputs() Inputs {
	return Inputs{Volatility: VolHigh, Trend: models.TrendStrongDown, Correlation: CorrAligned}
}

func calmInputs() Inputs {
	return Inputs{Volatility: VolLow, Trend: models.TrendFlat, Correlation: CorrWeak}
}

func TestTransitionRequiresDwell(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewClassifier(testThresholds(), now)

	if c.State().Mood != models.MoodNeutral {
		t.Fatalf("cold start mood: got %s, want neutral", c.State().Mood)
	}

	// Two calm cycles build up dwell on neutral.
	for i := 0; i < 2; i++ {
		if _, transitioned, _ := c.Observe(calmInputs(), now); transitioned {
			t.Fatalf("calm cycle %d should not transition", i)
		}
	}

	// Conditions turn fearful. Dwell is 2, below the minimum of 3, so the
	// first fearful observation is deferred.
	_, transitioned, rule := c.Observe(fearfulInputs(), now)
	if transitioned {
		t.Fatalf("transition accepted too early (rule %s)", rule)
	}
	if c.State().Mood != models.MoodNeutral {
		t.Fatalf("mood should still be neutral, got %s", c.State().Mood)
	}

	// Next fearful cycle: dwell is now 3, transition accepted.
	st, transitioned, rule := c.Observe(fearfulInputs(), now.Add(time.Minute))
	if !transitioned {
		t.Fatalf("expected transition once dwell requirement met")
	}
	if st.Mood != models.MoodFearful {
		t.Fatalf("mood: got %s, want fearful", st.Mood)
	}
	if rule != "panic_slide" {
		t.Fatalf("rule: got %s, want panic_slide", rule)
	}
	if st.DwellCycles != 0 {
		t.Fatalf("dwell should reset on transition, got %d", st.DwellCycles)
	}
}

func TestTransitionWindowBounds(t *testing.T) {
	// With min_dwell 3 and sustained fearful conditions from a fresh
	// neutral state, the flip lands between the 3rd and 5th cycle.
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewClassifier(testThresholds(), now)

	flipCycle := 0
	for i := 1; i <= 6; i++ {
		_, transitioned, _ := c.Observe(fearfulInputs(), now.Add(time.Duration(i)*time.Minute))
		if transitioned {
			flipCycle = i
			break
		}
	}
	if flipCycle < 3 || flipCycle > 5 {
		t.Fatalf("transition at cycle %d, want within [3, 5]", flipCycle)
	}
}

func TestOverrideBypassesDwell(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewClassifier(testThresholds(), now)

	in := Inputs{Volatility: VolExtreme, Trend: models.TrendFlat, Correlation: CorrWeak}
	st, transitioned, rule := c.Observe(in, now)
	if !transitioned {
		t.Fatalf("extreme volatility must transition immediately")
	}
	if st.Mood != models.MoodVolatile {
		t.Fatalf("mood: got %s, want volatile", st.Mood)
	}
	if rule != "extreme_volatility" {
		t.Fatalf("rule: got %s", rule)
	}
}

func TestSameMoodIncrementsDwell(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewClassifier(testThresholds(), now)

	for i := 1; i <= 4; i++ {
		st, transitioned, _ := c.Observe(calmInputs(), now)
		if transitioned {
			t.Fatalf("same-mood cycle must not transition")
		}
		if st.DwellCycles != i {
			t.Fatalf("dwell after cycle %d: got %d", i, st.DwellCycles)
		}
	}
}

func TestRulePriority(t *testing.T) {
	cases := []struct {
		name string
		in   Inputs
		want models.Mood
	}{
		{"panic beats turbulence", Inputs{VolHigh, models.TrendDown, CorrWeak}, models.MoodFearful},
		{"turbulence without downtrend", Inputs{VolHigh, models.TrendUp, CorrWeak}, models.MoodVolatile},
		{"melt up needs alignment", Inputs{VolLow, models.TrendStrongUp, CorrAligned}, models.MoodEuphoric},
		{"strong up unaligned is bullish", Inputs{VolLow, models.TrendStrongUp, CorrWeak}, models.MoodBullish},
		{"quiet rebound", Inputs{VolLow, models.TrendDown, CorrWeak}, models.MoodRecovering},
		{"elevated downtrend is bearish", Inputs{VolElevated, models.TrendDown, CorrWeak}, models.MoodBearish},
		{"strong down never recovering", Inputs{VolLow, models.TrendStrongDown, CorrWeak}, models.MoodBearish},
		{"flat is neutral", Inputs{VolLow, models.TrendFlat, CorrUndefined}, models.MoodNeutral},
	}
	rules := DefaultRules()
	for _, tc := range cases {
		var matched Rule
		for _, r := range rules {
			if r.matches(tc.in) {
				matched = r
				break
			}
		}
		if matched.Mood != tc.want {
			t.Fatalf("%s: got %s (rule %s), want %s", tc.name, matched.Mood, matched.Name, tc.want)
		}
	}
}

func TestBucketInputs(t *testing.T) {
	th := testThresholds()
	pos := 0.8
	state := models.CorrelationState{
		Windows: []models.WindowSnapshot{
			{
				Duration: 15 * time.Minute,
				Assets: map[string]models.AssetWindowStats{
					"BTC": {Volatility: 0.006, Trend: models.TrendUp},
					"ETH": {Volatility: 0.001, Trend: models.TrendUp},
				},
				Pairs: map[string]models.PairStats{
					"BTC/ETH": {Value: &pos, AlignedPairs: 5},
				},
			},
			{
				Duration: time.Hour,
				Assets: map[string]models.AssetWindowStats{
					"BTC": {Trend: models.TrendStrongUp},
					"ETH": {Trend: models.TrendUp},
				},
				Pairs: map[string]models.PairStats{},
			},
		},
	}

	in := BucketInputs(state, th)
	if in.Volatility != VolHigh {
		t.Fatalf("volatility: got %s, want high (max asset vol)", in.Volatility)
	}
	if in.Correlation != CorrAligned {
		t.Fatalf("correlation: got %s, want aligned", in.Correlation)
	}
	// Long-window scores: strong_up(2) + up(1) = 3, avg 1 -> up.
	if in.Trend != models.TrendUp {
		t.Fatalf("trend: got %s, want up", in.Trend)
	}
}

func TestBucketInputsUndefinedCorrelation(t *testing.T) {
	state := models.CorrelationState{
		Windows: []models.WindowSnapshot{
			{
				Duration: 15 * time.Minute,
				Assets:   map[string]models.AssetWindowStats{"BTC": {Volatility: 0.001}},
				Pairs: map[string]models.PairStats{
					"BTC/ETH": {Value: nil, AlignedPairs: 1},
				},
			},
		},
	}
	in := BucketInputs(state, testThresholds())
	if in.Correlation != CorrUndefined {
		t.Fatalf("correlation: got %s, want undefined", in.Correlation)
	}
}

func TestBucketInputsEmptyState(t *testing.T) {
	in := BucketInputs(models.CorrelationState{}, testThresholds())
	if in.Volatility != VolLow || in.Trend != models.TrendFlat || in.Correlation != CorrUndefined {
		t.Fatalf("empty state should give low/flat/undefined, got %+v", in)
	}
}
