package usecase

import (
	"context"
	"fmt"
	"time"

	"MoodPulse/internal/domain/models"
	domrepo "MoodPulse/internal/domain/repository"
	domsvc "MoodPulse/internal/domain/service"
	applogger "MoodPulse/pkg/logger"
)

// ExportSink receives successfully published records. Fire-and-forget:
// a sink failure never affects the dispatch outcome.
type ExportSink interface {
	Submit(ctx context.Context, r models.ActionRecord)
}

// Dispatcher turns an act decision into a published action. The ordering
// is fixed: generate text, publish it, and only after confirmed success
// append the ActionRecord. A failure at any earlier step abandons the
// cycle's action with no record written.
type Dispatcher struct {
	completion domsvc.Completion
	poster     domsvc.Poster
	actions    domrepo.ActionLog
	export     ExportSink
	metrics    domrepo.Metrics
	logger     *applogger.Logger
	channel    string
}

func NewDispatcher(
	completion domsvc.Completion,
	poster domsvc.Poster,
	actions domrepo.ActionLog,
	export ExportSink,
	metrics domrepo.Metrics,
	logger *applogger.Logger,
	channel string,
) *Dispatcher {
	return &Dispatcher{
		completion: completion,
		poster:     poster,
		actions:    actions,
		export:     export,
		metrics:    metrics,
		logger:     logger,
		channel:    channel,
	}
}

// Dispatch generates commentary for the current mood and publishes it.
func (d *Dispatcher) Dispatch(ctx context.Context, st models.MoodState, state models.CorrelationState, fingerprint, trigger string, now time.Time) error {
	start := time.Now()

	text, err := d.completion.Generate(ctx, models.CommentaryRequest{
		Mood:    st.Mood,
		State:   state,
		Trigger: trigger,
	})
	if err != nil {
		d.metrics.RecordAction(d.channel, "generate_failed")
		return fmt.Errorf("generate commentary: %w", err)
	}

	if err := d.poster.Publish(ctx, text, d.channel); err != nil {
		d.metrics.RecordAction(d.channel, "publish_failed")
		return fmt.Errorf("publish: %w", err)
	}

	rec := &models.ActionRecord{
		TriggeredAt: now,
		Mood:        st.Mood,
		Fingerprint: fingerprint,
		Channel:     d.channel,
		Trigger:     trigger,
	}
	if err := d.actions.Append(ctx, rec); err != nil {
		// The post is already out; a history gap here weakens future dedup,
		// so it is surfaced loudly rather than swallowed.
		d.metrics.RecordError("action_log_append")
		d.logger.Error("action published but record append failed",
			applogger.String("channel", d.channel),
			applogger.Error(err),
		)
		return fmt.Errorf("append action record: %w", err)
	}

	d.metrics.RecordAction(d.channel, "published")
	d.metrics.RecordLatency("dispatch", time.Since(start).Seconds())
	d.logger.Info("action dispatched",
		applogger.String("mood", string(st.Mood)),
		applogger.String("trigger", trigger),
		applogger.String("channel", d.channel),
	)

	if d.export != nil {
		d.export.Submit(ctx, *rec)
	}
	return nil
}
