package service

import (
	"context"
	"time"

	"MoodPulse/internal/domain/models"
)

// DataSource fetches the current sample for one asset. A failure is
// isolated to that asset's poll for the cycle.
type DataSource interface {
	Fetch(ctx context.Context, asset string) (models.Sample, error)
}

// Completion obtains generated commentary text. Free-form; only its
// semantic fingerprint matters to the core.
type Completion interface {
	Generate(ctx context.Context, req models.CommentaryRequest) (string, error)
}

// Poster publishes text to a channel. Side-effecting and not idempotent;
// success must be confirmed before an ActionRecord is written.
type Poster interface {
	Publish(ctx context.Context, text, channel string) error
}

// Exporter mirrors action records to an external sink. Fire-and-forget
// from the core's perspective.
type Exporter interface {
	Export(ctx context.Context, records []models.ActionRecord) error
}

// MarketStream is the optional live trade feed into the price store.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Sample, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Clock abstracts wall-clock time so cycle logic is testable without
// real waits.
type Clock interface {
	Now() time.Time
	Tick(d time.Duration) <-chan time.Time
}

// SystemClock is the real clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Tick(d time.Duration) <-chan time.Time {
	return time.NewTicker(d).C
}
