package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"MoodPulse/internal/analytics"
	"MoodPulse/internal/domain/models"
	domrepo "MoodPulse/internal/domain/repository"
	domsvc "MoodPulse/internal/domain/service"
	"MoodPulse/internal/mood"
	icache "MoodPulse/internal/service/cache"
	applogger "MoodPulse/pkg/logger"
)

// SchedulerConfig holds the decision loop's tuning knobs.
type SchedulerConfig struct {
	Assets            []string
	PollEnabled       bool // false when ingest is stream-only
	PollInterval      time.Duration
	Channel           string
	MinActionInterval time.Duration
	DedupLookback     time.Duration
	HeartbeatInterval time.Duration
	PriceChangePct    float64 // immediate per-cycle price move trigger
	VolumeChangePct   float64 // immediate per-cycle volume move trigger
}

// Scheduler is the control loop: poll, store, analyze, classify, decide,
// dispatch. One iteration per tick; cycles never overlap.
type Scheduler struct {
	cfg        SchedulerConfig
	source     domsvc.DataSource
	store      domrepo.PriceStore
	tracker    *analytics.Tracker
	classifier *mood.Classifier
	thresholds mood.Thresholds
	actions    domrepo.ActionLog
	dedup      icache.BytesCache
	dispatcher *Dispatcher
	clock      domsvc.Clock
	metrics    domrepo.Metrics
	logger     *applogger.Logger

	mu        sync.RWMutex
	lastState models.CorrelationState
	lastMood  models.MoodState
	prevPoll  map[string]models.Sample
}

func NewScheduler(
	cfg SchedulerConfig,
	source domsvc.DataSource,
	store domrepo.PriceStore,
	tracker *analytics.Tracker,
	classifier *mood.Classifier,
	thresholds mood.Thresholds,
	actions domrepo.ActionLog,
	dedup icache.BytesCache,
	dispatcher *Dispatcher,
	clock domsvc.Clock,
	metrics domrepo.Metrics,
	logger *applogger.Logger,
) *Scheduler {
	return &Scheduler{
		cfg:        cfg,
		source:     source,
		store:      store,
		tracker:    tracker,
		classifier: classifier,
		thresholds: thresholds,
		actions:    actions,
		dedup:      dedup,
		dispatcher: dispatcher,
		clock:      clock,
		metrics:    metrics,
		logger:     logger,
		lastMood:   classifier.State(),
		prevPoll:   make(map[string]models.Sample),
	}
}

// Run blocks, executing one cycle per poll interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started",
		applogger.Strings("assets", s.cfg.Assets),
		applogger.Duration("interval", s.cfg.PollInterval),
	)
	s.RunCycle(ctx)
	tick := s.clock.Tick(s.cfg.PollInterval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return nil
		case <-tick:
			s.RunCycle(ctx)
		}
	}
}

// RunCycle executes a single poll-analyze-decide-act cycle. Failures in
// polling or acting degrade that cycle's outcome and never corrupt state
// owned by other components.
func (s *Scheduler) RunCycle(ctx context.Context) {
	now := s.clock.Now()
	start := time.Now()

	pollTrigger := ""
	if s.cfg.PollEnabled {
		pollTrigger = s.poll(ctx)
	}

	state, err := s.tracker.Compute(ctx, now)
	if err != nil {
		if errors.Is(err, models.ErrNoData) {
			s.logger.Debug("no samples yet, skipping cycle")
			s.metrics.RecordCycle("no_data")
			return
		}
		s.logger.Error("correlation compute failed", applogger.Error(err))
		s.metrics.RecordError("tracker")
		s.metrics.RecordCycle("error")
		return
	}

	in := mood.BucketInputs(state, s.thresholds)
	st, transitioned, rule := s.classifier.Observe(in, now)

	s.mu.Lock()
	prevMood := s.lastMood
	s.lastState = state
	s.lastMood = st
	s.mu.Unlock()

	if transitioned {
		s.metrics.RecordMoodTransition(string(prevMood.Mood), string(st.Mood))
		s.logger.Info("mood transition",
			applogger.String("from", string(prevMood.Mood)),
			applogger.String("to", string(st.Mood)),
			applogger.String("rule", rule),
		)
	}

	trigger := s.pickTrigger(ctx, transitioned, pollTrigger, state, now)
	if trigger == "" {
		s.metrics.RecordCycle("idle")
		s.metrics.RecordLatency("cycle", time.Since(start).Seconds())
		return
	}

	fp := Fingerprint(st.Mood, in, state)
	if suppressed := s.suppress(ctx, fp, now); suppressed != "" {
		s.logger.Debug("action suppressed",
			applogger.String("reason", suppressed),
			applogger.String("trigger", trigger),
		)
		s.metrics.RecordCycle(suppressed)
		return
	}

	if err := s.dispatcher.Dispatch(ctx, st, state, fp, trigger, now); err != nil {
		s.logger.Warn("dispatch abandoned", applogger.Error(err))
		s.metrics.RecordCycle("dispatch_failed")
		return
	}

	s.rememberFingerprint(fp)
	s.metrics.RecordCycle("acted")
	s.metrics.RecordLatency("cycle", time.Since(start).Seconds())
}

// poll fetches one sample per asset. A failure for one asset never aborts
// the others. The returned trigger is non-empty when an immediate price
// or volume move crossed the configured thresholds.
func (s *Scheduler) poll(ctx context.Context) string {
	trigger := ""
	for _, asset := range s.cfg.Assets {
		sample, err := s.source.Fetch(ctx, asset)
		if err != nil {
			s.logger.Warn("poll failed",
				applogger.String("asset", asset),
				applogger.Error(err),
			)
			s.metrics.RecordPoll(asset, "error")
			continue
		}
		if err := s.store.Ingest(ctx, &sample); err != nil {
			if errors.Is(err, models.ErrInvalidSample) {
				s.logger.Warn("invalid sample rejected",
					applogger.String("asset", asset),
				)
				s.metrics.RecordError("invalid_sample")
			} else {
				s.logger.Error("ingest failed",
					applogger.String("asset", asset),
					applogger.Error(err),
				)
				s.metrics.RecordError("ingest")
			}
			s.metrics.RecordPoll(asset, "error")
			continue
		}
		s.metrics.RecordPoll(asset, "ok")
		s.metrics.RecordIngest("poll", asset)
		s.metrics.RecordLastPrice(asset, sample.Price)

		if t := s.immediateTrigger(asset, sample); trigger == "" && t != "" {
			trigger = t
		}
		s.prevPoll[asset] = sample
	}
	return trigger
}

func (s *Scheduler) immediateTrigger(asset string, sample models.Sample) string {
	prev, ok := s.prevPoll[asset]
	if !ok {
		return ""
	}
	if prev.Price > 0 && s.cfg.PriceChangePct > 0 {
		move := math.Abs(sample.Price-prev.Price) / prev.Price * 100
		if move >= s.cfg.PriceChangePct {
			return fmt.Sprintf("price_change_%s", asset)
		}
	}
	if prev.Volume > 0 && s.cfg.VolumeChangePct > 0 {
		move := math.Abs(sample.Volume-prev.Volume) / prev.Volume * 100
		if move >= s.cfg.VolumeChangePct {
			return fmt.Sprintf("volume_change_%s", asset)
		}
	}
	return ""
}

// pickTrigger decides whether anything act-worthy happened this cycle.
// Priority: mood transition, immediate move, significant volume trend,
// then the heartbeat so the bot never goes silent indefinitely.
func (s *Scheduler) pickTrigger(ctx context.Context, transitioned bool, pollTrigger string, state models.CorrelationState, now time.Time) string {
	if transitioned {
		return "mood_transition"
	}
	if pollTrigger != "" {
		return pollTrigger
	}
	if short := state.Shortest(); short != nil {
		for asset, st := range short.Assets {
			switch st.VolumeTrend {
			case models.VolumeSignificantIncrease, models.VolumeSignificantDecrease:
				return fmt.Sprintf("volume_trend_%s_%s", asset, st.VolumeTrend)
			}
		}
	}

	last, err := s.actions.LastOnChannel(ctx, s.cfg.Channel)
	if err != nil {
		if errors.Is(err, models.ErrNoData) {
			return "initial_post"
		}
		s.logger.Warn("action history lookup failed", applogger.Error(err))
		return ""
	}
	if now.Sub(last.TriggeredAt) >= s.cfg.HeartbeatInterval {
		return "heartbeat"
	}
	return ""
}

// suppress enforces the rate limit and duplicate-content rules. It
// returns the suppression reason, or empty when the action may proceed.
func (s *Scheduler) suppress(ctx context.Context, fp string, now time.Time) string {
	last, err := s.actions.LastOnChannel(ctx, s.cfg.Channel)
	if err == nil && now.Sub(last.TriggeredAt) < s.cfg.MinActionInterval {
		return "rate_limited"
	}
	if err != nil && !errors.Is(err, models.ErrNoData) {
		s.logger.Warn("action history lookup failed", applogger.Error(err))
	}

	if s.dedup != nil {
		if _, ok, cerr := s.dedup.GetBytes(dedupKey(fp)); cerr == nil && ok {
			return "duplicate"
		}
	}
	fps, err := s.actions.RecentFingerprints(ctx, s.cfg.DedupLookback, now)
	if err != nil {
		s.logger.Warn("fingerprint lookback failed", applogger.Error(err))
		return ""
	}
	for _, f := range fps {
		if f == fp {
			return "duplicate"
		}
	}
	return ""
}

func (s *Scheduler) rememberFingerprint(fp string) {
	if s.dedup == nil {
		return
	}
	if err := s.dedup.SetBytes(dedupKey(fp), []byte{1}, s.cfg.DedupLookback); err != nil {
		s.metrics.RecordError("dedup_cache")
	}
}

func dedupKey(fp string) string { return "fp:" + fp }

// MoodSnapshot returns the most recent mood state for read-only consumers.
func (s *Scheduler) MoodSnapshot() models.MoodState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastMood
}

// StateSnapshot returns the most recent correlation state.
func (s *Scheduler) StateSnapshot() models.CorrelationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastState
}
