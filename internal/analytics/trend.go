package analytics

import "MoodPulse/internal/domain/models"

// BucketTrend maps a cumulative return to a trend bucket using fixed
// percent thresholds (upPct < strongPct, both positive).
func BucketTrend(cumRet, upPct, strongPct float64) models.TrendBucket {
	pct := cumRet * 100
	switch {
	case pct >= strongPct:
		return models.TrendStrongUp
	case pct >= upPct:
		return models.TrendUp
	case pct <= -strongPct:
		return models.TrendStrongDown
	case pct <= -upPct:
		return models.TrendDown
	default:
		return models.TrendFlat
	}
}

// BucketVolumeTrend maps a percent change vs the window average to a
// volume trend bucket. moderatePct and significantPct are positive.
func BucketVolumeTrend(changePct, moderatePct, significantPct float64) models.VolumeTrend {
	switch {
	case changePct >= significantPct:
		return models.VolumeSignificantIncrease
	case changePct >= moderatePct:
		return models.VolumeModerateIncrease
	case changePct <= -significantPct:
		return models.VolumeSignificantDecrease
	case changePct <= -moderatePct:
		return models.VolumeModerateDecrease
	default:
		return models.VolumeStable
	}
}

// VolumeChangePct compares the latest volume against the average of the
// earlier samples in the window. Returns 0 when no baseline exists.
func VolumeChangePct(samples []models.Sample) float64 {
	if len(samples) < 2 {
		return 0
	}
	latest := samples[len(samples)-1].Volume
	var sum float64
	for _, s := range samples[:len(samples)-1] {
		sum += s.Volume
	}
	avg := sum / float64(len(samples)-1)
	if avg <= 0 {
		return 0
	}
	return (latest - avg) / avg * 100
}
