package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"MoodPulse/internal/domain/models"
)

// Validation runs before any query, so these cases never touch the
// database connection.
func TestCHPriceStoreIngestRejectsInvalid(t *testing.T) {
	store := &CHPriceStore{seen: make(map[string]struct{})}
	ctx := context.Background()

	cases := []struct {
		name   string
		sample models.Sample
	}{
		{"negative price", models.Sample{Asset: "BTC", Timestamp: time.Now(), Price: -5, Volume: 1}},
		{"negative volume", models.Sample{Asset: "BTC", Timestamp: time.Now(), Price: 100, Volume: -1}},
		{"far future timestamp", models.Sample{Asset: "BTC", Timestamp: time.Now().Add(24 * time.Hour), Price: 100, Volume: 1}},
	}
	for _, tc := range cases {
		sm := tc.sample
		if err := store.Ingest(ctx, &sm); !errors.Is(err, models.ErrInvalidSample) {
			t.Fatalf("%s: want ErrInvalidSample, got %v", tc.name, err)
		}
	}
	if len(store.seen) != 0 {
		t.Fatalf("rejected samples must not enter the seen index, got %d entries", len(store.seen))
	}
}
