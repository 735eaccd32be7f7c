package export

import (
	"context"
	"fmt"

	"MoodPulse/internal/domain/models"
	domsvc "MoodPulse/internal/domain/service"
	"MoodPulse/pkg/queue"
)

// ExportJob drains queued action events into the exporter. Failures are
// retried by the queue with backoff and eventually dead-lettered.
type ExportJob struct {
	exporter domsvc.Exporter
}

func NewExportJob(exporter domsvc.Exporter) *ExportJob {
	return &ExportJob{exporter: exporter}
}

func (j *ExportJob) Name() string { return "action-export" }
func (j *ExportJob) Type() string { return TypeActionExport }

func (j *ExportJob) Handle(ctx context.Context, payload interface{}) error {
	ev, err := queue.ParsePayload[actionEvent](payload)
	if err != nil {
		return fmt.Errorf("parse export payload: %w", err)
	}
	rec := models.ActionRecord{
		TriggeredAt: ev.TriggeredAt,
		Mood:        models.Mood(ev.Mood),
		Fingerprint: ev.Fingerprint,
		Channel:     ev.Channel,
		Trigger:     ev.Trigger,
	}
	return j.exporter.Export(ctx, []models.ActionRecord{rec})
}

var _ queue.Job = (*ExportJob)(nil)
