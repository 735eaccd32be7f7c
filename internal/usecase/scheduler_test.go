package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"MoodPulse/internal/analytics"
	"MoodPulse/internal/domain/models"
	"MoodPulse/internal/mood"
	internalrepo "MoodPulse/internal/repository"
	icache "MoodPulse/internal/service/cache"
	applogger "MoodPulse/pkg/logger"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time                        { return c.now }
func (c *fakeClock) Tick(d time.Duration) <-chan time.Time { return nil }
func (c *fakeClock) advance(d time.Duration)               { c.now = c.now.Add(d) }

type fakeSource struct {
	prices map[string]float64
	fail   map[string]bool
	clock  *fakeClock
}

func (s *fakeSource) Fetch(ctx context.Context, asset string) (models.Sample, error) {
	if s.fail[asset] {
		return models.Sample{}, fmt.Errorf("upstream down for %s", asset)
	}
	return models.Sample{
		Asset:     asset,
		Timestamp: s.clock.now,
		Price:     s.prices[asset],
		Volume:    1000,
	}, nil
}

type fakeCompletion struct {
	fail  bool
	calls int
}

func (f *fakeCompletion) Generate(ctx context.Context, req models.CommentaryRequest) (string, error) {
	f.calls++
	if f.fail {
		return "", errors.New("model unavailable")
	}
	return "markets are doing things: " + string(req.Mood), nil
}

type fakePoster struct {
	fail  bool
	calls int
	posts []string
}

func (f *fakePoster) Publish(ctx context.Context, text, channel string) error {
	f.calls++
	if f.fail {
		return errors.New("webhook 500")
	}
	f.posts = append(f.posts, text)
	return nil
}

type nopMetrics struct{}

func (nopMetrics) RecordCycle(string)                  {}
func (nopMetrics) RecordPoll(string, string)           {}
func (nopMetrics) RecordIngest(string, string)         {}
func (nopMetrics) RecordMoodTransition(string, string) {}
func (nopMetrics) RecordAction(string, string)         {}
func (nopMetrics) RecordLastPrice(string, float64)     {}
func (nopMetrics) RecordError(string)                  {}
func (nopMetrics) RecordLatency(string, float64)       {}

type schedulerFixture struct {
	scheduler  *Scheduler
	source     *fakeSource
	completion *fakeCompletion
	poster     *fakePoster
	store      *internalrepo.MemoryPriceStore
	actions    *internalrepo.MemoryActionLog
	clock      *fakeClock
}

func newFixture(t *testing.T) *schedulerFixture {
	t.Helper()
	logger, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	source := &fakeSource{
		prices: map[string]float64{"BTC": 100, "ETH": 50},
		fail:   map[string]bool{},
		clock:  clock,
	}
	store := internalrepo.NewMemoryPriceStore()
	actions := internalrepo.NewMemoryActionLog()
	completion := &fakeCompletion{}
	poster := &fakePoster{}

	th := mood.Thresholds{
		VolElevated: 0.002, VolHigh: 0.005, VolExtreme: 0.012,
		CorrAligned: 0.6, CorrInverse: -0.2, MinDwellCycles: 3,
	}
	tracker := analytics.NewTracker(store, analytics.Config{
		Assets:          []string{"BTC", "ETH"},
		Windows:         []time.Duration{15 * time.Minute, time.Hour},
		AlignTolerance:  90 * time.Second,
		MinAlignedPairs: 3,
		TrendUpPct:      0.5,
		TrendStrongPct:  2.0,
		VolumeModPct:    10,
		VolumeSigPct:    25,
	}, logger)

	metrics := nopMetrics{}
	dispatcher := NewDispatcher(completion, poster, actions, nil, metrics, logger, "twitter")
	scheduler := NewScheduler(SchedulerConfig{
		Assets:            []string{"BTC", "ETH"},
		PollEnabled:       true,
		PollInterval:      time.Minute,
		Channel:           "twitter",
		MinActionInterval: 5 * time.Minute,
		DedupLookback:     6 * time.Hour,
		HeartbeatInterval: time.Hour,
		PriceChangePct:    3.0,
		VolumeChangePct:   50.0,
	}, source, store, tracker, mood.NewClassifier(th, clock.now), th, actions,
		icache.NewTTLCache(), dispatcher, clock, metrics, logger)

	return &schedulerFixture{
		scheduler:  scheduler,
		source:     source,
		completion: completion,
		poster:     poster,
		store:      store,
		actions:    actions,
		clock:      clock,
	}
}

func TestFirstCycleInitialPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.scheduler.RunCycle(ctx)

	recs, err := f.actions.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 action after first cycle, got %d", len(recs))
	}
	if recs[0].Trigger != "initial_post" {
		t.Fatalf("trigger: got %s, want initial_post", recs[0].Trigger)
	}
	if recs[0].Channel != "twitter" {
		t.Fatalf("channel: got %s", recs[0].Channel)
	}
	if recs[0].Fingerprint == "" {
		t.Fatalf("fingerprint must be recorded")
	}
}

func TestDuplicateSuppressedOnHeartbeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.scheduler.RunCycle(ctx)

	// Market unchanged; advance past both the rate limit and the heartbeat
	// so the act gate opens with an identical fingerprint.
	f.scheduler.cfg.HeartbeatInterval = 10 * time.Minute
	f.clock.advance(20 * time.Minute)
	f.scheduler.RunCycle(ctx)

	recs, _ := f.actions.Recent(ctx, 10)
	if len(recs) != 1 {
		t.Fatalf("duplicate fingerprint must be suppressed, got %d actions", len(recs))
	}
}

func TestRateLimitSuppresses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.scheduler.RunCycle(ctx)
	// Force a changed market so the fingerprint differs, then run inside
	// the min action interval.
	f.source.prices["BTC"] = 110
	f.clock.advance(time.Minute)
	f.scheduler.RunCycle(ctx)

	recs, _ := f.actions.Recent(ctx, 10)
	if len(recs) != 1 {
		t.Fatalf("action inside min interval must be suppressed, got %d", len(recs))
	}
}

func TestPollFailureIsolatedPerAsset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.source.fail["ETH"] = true
	f.scheduler.RunCycle(ctx)

	if _, err := f.store.Latest(ctx, "BTC"); err != nil {
		t.Fatalf("BTC must be stored despite ETH failure: %v", err)
	}
	if _, err := f.store.Latest(ctx, "ETH"); !errors.Is(err, models.ErrNoData) {
		t.Fatalf("expected ErrNoData for ETH, got %v", err)
	}
	// The cycle still produced an action from the BTC-only state.
	recs, _ := f.actions.Recent(ctx, 10)
	if len(recs) != 1 {
		t.Fatalf("cycle with one healthy asset should still act, got %d", len(recs))
	}
}

func TestPollRejectsInvalidSample(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Upstream glitch: a negative price must be rejected at ingest and
	// isolated to that asset, like any other per-asset poll failure.
	f.source.prices["BTC"] = -5
	f.scheduler.RunCycle(ctx)

	if _, err := f.store.Latest(ctx, "BTC"); !errors.Is(err, models.ErrNoData) {
		t.Fatalf("invalid BTC sample must not be stored, got %v", err)
	}
	if _, err := f.store.Latest(ctx, "ETH"); err != nil {
		t.Fatalf("ETH must be stored despite the BTC rejection: %v", err)
	}
}

func TestPublishFailureWritesNoRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.poster.fail = true
	f.scheduler.RunCycle(ctx)

	recs, _ := f.actions.Recent(ctx, 10)
	if len(recs) != 0 {
		t.Fatalf("failed publish must not append a record, got %d", len(recs))
	}

	// The fingerprint was not remembered, so a later cycle retries.
	f.poster.fail = false
	f.clock.advance(10 * time.Minute)
	f.scheduler.RunCycle(ctx)
	recs, _ = f.actions.Recent(ctx, 10)
	if len(recs) != 1 {
		t.Fatalf("retry after failed publish should succeed, got %d records", len(recs))
	}
}

func TestGenerateFailureSkipsPublish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.completion.fail = true
	f.scheduler.RunCycle(ctx)

	if f.poster.calls != 0 {
		t.Fatalf("publish must not run when generation fails")
	}
	recs, _ := f.actions.Recent(ctx, 10)
	if len(recs) != 0 {
		t.Fatalf("failed generation must not append a record")
	}
}

func TestIdempotentReingestion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Same clock time means the same sample timestamps; the second cycle's
	// ingest is a no-op and the store keeps one sample per asset.
	f.scheduler.RunCycle(ctx)
	f.scheduler.RunCycle(ctx)

	samples, err := f.store.Window(ctx, "BTC", time.Hour, f.clock.now)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("re-ingested sample must be deduplicated, got %d", len(samples))
	}
}
