package analytics

import (
	"context"
	"fmt"
	"time"

	"MoodPulse/internal/domain/models"
	domrepo "MoodPulse/internal/domain/repository"
	applogger "MoodPulse/pkg/logger"
)

// Config holds the tracker's window durations and bucket thresholds.
type Config struct {
	Assets          []string
	Windows         []time.Duration // ascending, short to long
	AlignTolerance  time.Duration   // timestamp match tolerance for pairing
	MinAlignedPairs int             // below this, correlation is undefined
	TrendUpPct      float64
	TrendStrongPct  float64
	VolumeModPct    float64
	VolumeSigPct    float64
}

// Tracker turns raw price-store windows into one CorrelationState per
// cycle. It holds no state of its own; everything is recomputed from the
// store plus the clock.
type Tracker struct {
	store  domrepo.PriceStore
	cfg    Config
	logger *applogger.Logger
}

func NewTracker(store domrepo.PriceStore, cfg Config, logger *applogger.Logger) *Tracker {
	return &Tracker{store: store, cfg: cfg, logger: logger}
}

// Compute derives the full CorrelationState at now. models.ErrNoData is
// returned when no asset has samples in any window.
func (t *Tracker) Compute(ctx context.Context, now time.Time) (models.CorrelationState, error) {
	state := models.CorrelationState{
		ComputedAt: now,
		Windows:    make([]models.WindowSnapshot, 0, len(t.cfg.Windows)),
	}

	populated := false
	for _, dur := range t.cfg.Windows {
		snap := models.WindowSnapshot{
			Duration: dur,
			Assets:   make(map[string]models.AssetWindowStats, len(t.cfg.Assets)),
			Pairs:    make(map[string]models.PairStats),
		}

		series := make(map[string][]models.Sample, len(t.cfg.Assets))
		for _, asset := range t.cfg.Assets {
			samples, err := t.store.Window(ctx, asset, dur, now)
			if err != nil {
				if t.logger != nil {
					t.logger.Warn("window query failed",
						applogger.String("asset", asset),
						applogger.Duration("window", dur),
						applogger.Error(err),
					)
				}
				continue
			}
			if len(samples) == 0 {
				continue
			}
			series[asset] = samples
			snap.Assets[asset] = t.assetStats(asset, samples)
			populated = true
		}

		for i := 0; i < len(t.cfg.Assets); i++ {
			for j := i + 1; j < len(t.cfg.Assets); j++ {
				a, b := t.cfg.Assets[i], t.cfg.Assets[j]
				sa, sb := series[a], series[b]
				if sa == nil || sb == nil {
					continue
				}
				snap.Pairs[models.PairKey(a, b)] = t.pairStats(sa, sb)
			}
		}

		state.Windows = append(state.Windows, snap)
	}

	if !populated {
		return state, fmt.Errorf("correlation state: %w", models.ErrNoData)
	}
	return state, nil
}

func (t *Tracker) assetStats(asset string, samples []models.Sample) models.AssetWindowStats {
	rets := SimpleReturns(samples)
	cum := CumulativeReturn(samples)
	volChange := VolumeChangePct(samples)
	return models.AssetWindowStats{
		Asset:           asset,
		Samples:         len(samples),
		CumulativeRet:   cum,
		Volatility:      StdDev(rets),
		Trend:           BucketTrend(cum, t.cfg.TrendUpPct, t.cfg.TrendStrongPct),
		VolumeChangePct: volChange,
		VolumeTrend:     BucketVolumeTrend(volChange, t.cfg.VolumeModPct, t.cfg.VolumeSigPct),
		LastPrice:       samples[len(samples)-1].Price,
	}
}

func (t *Tracker) pairStats(a, b []models.Sample) models.PairStats {
	tol := int64(t.cfg.AlignTolerance / time.Second)
	pa, pb := AlignByTimestamp(a, b, tol)
	ps := models.PairStats{AlignedPairs: len(pa)}
	if len(pa) < t.cfg.MinAlignedPairs {
		return ps
	}
	ra := SimpleReturns(pa)
	rb := SimpleReturns(pb)
	if r, ok := Pearson(ra, rb); ok {
		ps.Value = &r
	}
	return ps
}
