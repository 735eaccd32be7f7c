package export

import (
	"context"

	"MoodPulse/internal/domain/models"
	applogger "MoodPulse/pkg/logger"
	"MoodPulse/pkg/queue"
)

// TypeActionExport is the queue message type for action record export.
const TypeActionExport = "action.export"

// QueueSink decouples the dispatcher from the export transport: records
// are enqueued in Redis and drained by queue workers running ExportJob.
// Enqueue failures are logged and dropped; export is best-effort by
// contract and must never stall a dispatch.
type QueueSink struct {
	queue  queue.QueueService
	logger *applogger.Logger
}

func NewQueueSink(q queue.QueueService, logger *applogger.Logger) *QueueSink {
	return &QueueSink{queue: q, logger: logger}
}

func (s *QueueSink) Submit(ctx context.Context, r models.ActionRecord) {
	ev := actionEvent{
		TriggeredAt: r.TriggeredAt,
		Mood:        string(r.Mood),
		Fingerprint: r.Fingerprint,
		Channel:     r.Channel,
		Trigger:     r.Trigger,
	}
	if err := s.queue.PublishMessage(ctx, TypeActionExport, ev); err != nil {
		s.logger.Warn("export enqueue failed",
			applogger.String("channel", r.Channel),
			applogger.Error(err),
		)
	}
}
