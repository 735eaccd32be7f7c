package usecase

import (
	"testing"
	"time"

	"MoodPulse/internal/domain/models"
	"MoodPulse/internal/mood"
)

func fingerprintState() models.CorrelationState {
	return models.CorrelationState{
		Windows: []models.WindowSnapshot{
			{
				Duration: 15 * time.Minute,
				Assets: map[string]models.AssetWindowStats{
					"BTC": {Trend: models.TrendUp, VolumeTrend: models.VolumeStable},
					"ETH": {Trend: models.TrendFlat, VolumeTrend: models.VolumeModerateIncrease},
				},
			},
		},
	}
}

func TestFingerprintStable(t *testing.T) {
	in := mood.Inputs{Volatility: mood.VolLow, Trend: models.TrendUp, Correlation: mood.CorrWeak}
	a := Fingerprint(models.MoodBullish, in, fingerprintState())
	b := Fingerprint(models.MoodBullish, in, fingerprintState())
	if a != b {
		t.Fatalf("identical inputs must hash identically: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256, got %q", a)
	}
}

func TestFingerprintSensitive(t *testing.T) {
	in := mood.Inputs{Volatility: mood.VolLow, Trend: models.TrendUp, Correlation: mood.CorrWeak}
	base := Fingerprint(models.MoodBullish, in, fingerprintState())

	if got := Fingerprint(models.MoodEuphoric, in, fingerprintState()); got == base {
		t.Fatalf("mood change must change the fingerprint")
	}

	hotVol := in
	hotVol.Volatility = mood.VolHigh
	if got := Fingerprint(models.MoodBullish, hotVol, fingerprintState()); got == base {
		t.Fatalf("volatility bucket change must change the fingerprint")
	}

	flipped := fingerprintState()
	a := flipped.Windows[0].Assets["BTC"]
	a.Trend = models.TrendDown
	flipped.Windows[0].Assets["BTC"] = a
	if got := Fingerprint(models.MoodBullish, in, flipped); got == base {
		t.Fatalf("per-asset trend change must change the fingerprint")
	}
}
