package models

import "time"

// Mood is the discrete market mood classification.
type Mood string

const (
	MoodEuphoric   Mood = "euphoric"
	MoodBullish    Mood = "bullish"
	MoodNeutral    Mood = "neutral"
	MoodRecovering Mood = "recovering"
	MoodBearish    Mood = "bearish"
	MoodFearful    Mood = "fearful"
	MoodVolatile   Mood = "volatile"
)

// MoodState is owned by the classifier and mutated only through its
// transition function. DwellCycles counts consecutive cycles the mood
// has been held.
type MoodState struct {
	Mood        Mood
	EnteredAt   time.Time
	DwellCycles int
}

// ColdStart is the documented restart state: neutral, zero dwell.
// The classifier repopulates within a few cycles.
func ColdStart(now time.Time) MoodState {
	return MoodState{Mood: MoodNeutral, EnteredAt: now}
}
