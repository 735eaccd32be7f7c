package repository

import (
	"context"
	"time"

	"MoodPulse/internal/domain/models"
)

// PriceStore is the durable, append-only sample history.
// Access is serialized by the single scheduler loop; implementations only
// need internal locking when the stream ingest path is enabled.
type PriceStore interface {
	Init(ctx context.Context) error // ensure tables, health checks

	// Ingest stores a sample. Re-ingesting an existing (asset, timestamp)
	// is a no-op and returns nil, which tolerates retried polls.
	Ingest(ctx context.Context, s *models.Sample) error

	// Window returns the ordered samples in [now-duration, now].
	// An empty slice is a normal result, not an error.
	Window(ctx context.Context, asset string, duration time.Duration, now time.Time) ([]models.Sample, error)

	// Latest returns the most recent sample, or models.ErrNoData.
	Latest(ctx context.Context, asset string) (models.Sample, error)

	Health(ctx context.Context) error
	Close() error
}

// ActionLog is the append-only record of published actions.
type ActionLog interface {
	Init(ctx context.Context) error
	Append(ctx context.Context, r *models.ActionRecord) error

	// LastOnChannel returns the newest record for a channel, or models.ErrNoData.
	LastOnChannel(ctx context.Context, channel string) (models.ActionRecord, error)

	// RecentFingerprints lists fingerprints of records newer than now-lookback.
	RecentFingerprints(ctx context.Context, lookback time.Duration, now time.Time) ([]string, error)

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]models.ActionRecord, error)

	Close() error
}

// Metrics records operational counters and gauges.
type Metrics interface {
	RecordCycle(outcome string)
	RecordPoll(asset, result string)
	RecordIngest(source, asset string)
	RecordMoodTransition(from, to string)
	RecordAction(channel, result string)
	RecordLastPrice(asset string, price float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
