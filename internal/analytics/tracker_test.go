package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"MoodPulse/internal/domain/models"
	internalrepo "MoodPulse/internal/repository"
)

func trackerConfig() Config {
	return Config{
		Assets:          []string{"BTC", "ETH"},
		Windows:         []time.Duration{15 * time.Minute, time.Hour},
		AlignTolerance:  90 * time.Second,
		MinAlignedPairs: 3,
		TrendUpPct:      0.5,
		TrendStrongPct:  2.0,
		VolumeModPct:    10,
		VolumeSigPct:    25,
	}
}

func ingestSeries(t *testing.T, store *internalrepo.MemoryPriceStore, asset string, start time.Time, step time.Duration, prices []float64) {
	t.Helper()
	for i, p := range prices {
		s := models.Sample{
			Asset:     asset,
			Timestamp: start.Add(time.Duration(i) * step),
			Price:     p,
			Volume:    1000,
		}
		if err := store.Ingest(context.Background(), &s); err != nil {
			t.Fatalf("ingest %s[%d]: %v", asset, i, err)
		}
	}
}

func TestComputeAlignedRally(t *testing.T) {
	store := internalrepo.NewMemoryPriceStore()
	now := time.Date(2025, 6, 1, 12, 10, 0, 0, time.UTC)
	start := now.Add(-9 * time.Minute)

	// Both assets move up together on matching timestamps.
	ingestSeries(t, store, "BTC", start, 3*time.Minute, []float64{100, 102, 101, 105})
	ingestSeries(t, store, "ETH", start, 3*time.Minute, []float64{50, 51, 50.5, 52.5})

	tr := NewTracker(store, trackerConfig(), nil)
	state, err := tr.Compute(context.Background(), now)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(state.Windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(state.Windows))
	}

	short := state.Shortest()
	btc, ok := short.Assets["BTC"]
	if !ok {
		t.Fatalf("BTC missing from short window")
	}
	if btc.Samples != 4 {
		t.Fatalf("BTC samples: got %d, want 4", btc.Samples)
	}
	if btc.Trend != models.TrendStrongUp {
		t.Fatalf("BTC trend: got %s, want strong_up (cum ret %v)", btc.Trend, btc.CumulativeRet)
	}
	if btc.LastPrice != 105 {
		t.Fatalf("BTC last price: got %v", btc.LastPrice)
	}

	pair, ok := short.Pairs[models.PairKey("BTC", "ETH")]
	if !ok {
		t.Fatalf("BTC/ETH pair missing")
	}
	if pair.AlignedPairs != 4 {
		t.Fatalf("aligned pairs: got %d, want 4", pair.AlignedPairs)
	}
	if pair.Value == nil {
		t.Fatalf("correlation should be defined with %d aligned pairs", pair.AlignedPairs)
	}
	if *pair.Value <= 0.5 {
		t.Fatalf("co-moving assets should correlate positively, got %v", *pair.Value)
	}
}

func TestComputeSingleSampleDegenerates(t *testing.T) {
	store := internalrepo.NewMemoryPriceStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s := models.Sample{Asset: "BTC", Timestamp: now.Add(-time.Minute), Price: 100, Volume: 500}
	if err := store.Ingest(context.Background(), &s); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	tr := NewTracker(store, trackerConfig(), nil)
	state, err := tr.Compute(context.Background(), now)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	btc := state.Shortest().Assets["BTC"]
	if btc.Volatility != 0 {
		t.Fatalf("single sample volatility should be 0, got %v", btc.Volatility)
	}
	if btc.Trend != models.TrendFlat {
		t.Fatalf("single sample trend should be flat, got %s", btc.Trend)
	}
	if _, ok := state.Shortest().Pairs[models.PairKey("BTC", "ETH")]; ok {
		t.Fatalf("pair should be absent when one side has no samples")
	}
}

func TestComputeUndefinedBelowMinPairs(t *testing.T) {
	store := internalrepo.NewMemoryPriceStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	start := now.Add(-6 * time.Minute)

	// Two aligned observations each: below MinAlignedPairs of 3.
	ingestSeries(t, store, "BTC", start, 3*time.Minute, []float64{100, 101})
	ingestSeries(t, store, "ETH", start, 3*time.Minute, []float64{50, 51})

	tr := NewTracker(store, trackerConfig(), nil)
	state, err := tr.Compute(context.Background(), now)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	pair := state.Shortest().Pairs[models.PairKey("BTC", "ETH")]
	if pair.AlignedPairs != 2 {
		t.Fatalf("aligned pairs: got %d, want 2", pair.AlignedPairs)
	}
	if pair.Value != nil {
		t.Fatalf("correlation below min pairs must be undefined, got %v", *pair.Value)
	}
}

func TestComputeNoData(t *testing.T) {
	store := internalrepo.NewMemoryPriceStore()
	tr := NewTracker(store, trackerConfig(), nil)
	_, err := tr.Compute(context.Background(), time.Now())
	if !errors.Is(err, models.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestComputeMisalignedTimestamps(t *testing.T) {
	store := internalrepo.NewMemoryPriceStore()
	now := time.Date(2025, 6, 1, 12, 12, 0, 0, time.UTC)
	start := now.Add(-11 * time.Minute)

	// ETH offset by more than the 90s tolerance from every BTC sample.
	ingestSeries(t, store, "BTC", start, 200*time.Second, []float64{100, 102, 101, 105})
	ingestSeries(t, store, "ETH", start.Add(100*time.Second), 200*time.Second, []float64{50, 51, 50, 52})

	tr := NewTracker(store, trackerConfig(), nil)
	state, err := tr.Compute(context.Background(), now)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	pair := state.Shortest().Pairs[models.PairKey("BTC", "ETH")]
	if pair.Value != nil {
		t.Fatalf("misaligned series must have undefined correlation")
	}
}
