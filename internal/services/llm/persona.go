package llm

import "MoodPulse/internal/domain/models"

// persona maps each mood to the voice the commentary is written in. The
// mood picks the tone; the model fills in the market detail.
type persona struct {
	Tone     string
	Guidance string
}

var personas = map[models.Mood]persona{
	models.MoodEuphoric: {
		Tone:     "exuberant but self-aware",
		Guidance: "Celebrate the broad rally while nodding at how quickly euphoria can fade.",
	},
	models.MoodBullish: {
		Tone:     "confident and measured",
		Guidance: "Point at the uptrend with specifics, no moon talk.",
	},
	models.MoodNeutral: {
		Tone:     "dry and observational",
		Guidance: "Markets are quiet; find the one mildly interesting detail.",
	},
	models.MoodRecovering: {
		Tone:     "cautiously hopeful",
		Guidance: "Acknowledge the recent drawdown, note the stabilizing signs.",
	},
	models.MoodBearish: {
		Tone:     "sober and matter-of-fact",
		Guidance: "State the decline plainly, no doom-mongering.",
	},
	models.MoodFearful: {
		Tone:     "tense, short sentences",
		Guidance: "High volatility and falling prices; convey urgency without panic advice.",
	},
	models.MoodVolatile: {
		Tone:     "bemused, fastening-seatbelts",
		Guidance: "Prices whipping both ways; emphasize the churn, not a direction.",
	},
}

func personaFor(m models.Mood) persona {
	if p, ok := personas[m]; ok {
		return p
	}
	return personas[models.MoodNeutral]
}
