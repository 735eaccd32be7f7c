package export

import (
	"context"
	"fmt"
	"time"

	"MoodPulse/internal/domain/models"
	domsvc "MoodPulse/internal/domain/service"
	pkgkafka "MoodPulse/pkg/kafka"
)

// actionEvent is the wire shape of an exported action record.
type actionEvent struct {
	TriggeredAt time.Time `json:"triggered_at"`
	Mood        string    `json:"mood"`
	Fingerprint string    `json:"fingerprint"`
	Channel     string    `json:"channel"`
	Trigger     string    `json:"trigger"`
}

// KafkaExporter mirrors action records to a Kafka topic for downstream
// consumers (archival, analytics).
type KafkaExporter struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaExporter(producer *pkgkafka.Producer, topic string) *KafkaExporter {
	return &KafkaExporter{producer: producer, topic: topic}
}

func (e *KafkaExporter) Export(ctx context.Context, records []models.ActionRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(records))
	for i, r := range records {
		msgs[i] = pkgkafka.Message{
			Key: []byte(r.Channel),
			Value: actionEvent{
				TriggeredAt: r.TriggeredAt,
				Mood:        string(r.Mood),
				Fingerprint: r.Fingerprint,
				Channel:     r.Channel,
				Trigger:     r.Trigger,
			},
		}
	}
	if err := e.producer.PublishBatch(ctx, e.topic, msgs); err != nil {
		return fmt.Errorf("export %d records: %w", len(records), err)
	}
	return nil
}

func (e *KafkaExporter) Close() error {
	if e.producer != nil {
		return e.producer.Close()
	}
	return nil
}

var _ domsvc.Exporter = (*KafkaExporter)(nil)
