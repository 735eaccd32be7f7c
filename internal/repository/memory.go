package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"MoodPulse/internal/domain/models"
	domrepo "MoodPulse/internal/domain/repository"
)

// MemoryPriceStore is the in-process PriceStore used when no ClickHouse
// backend is configured, and by tests.
type MemoryPriceStore struct {
	mu      sync.RWMutex
	samples map[string][]models.Sample // per asset, ascending by timestamp
	index   map[string]struct{}        // (asset, ts) idempotency index
}

func NewMemoryPriceStore() *MemoryPriceStore {
	return &MemoryPriceStore{
		samples: make(map[string][]models.Sample),
		index:   make(map[string]struct{}),
	}
}

func (s *MemoryPriceStore) Init(ctx context.Context) error { return nil }

func (s *MemoryPriceStore) Ingest(ctx context.Context, sample *models.Sample) error {
	if err := validateForIngest(sample); err != nil {
		return err
	}
	key := sampleKey(sample.Asset, sample.Timestamp)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.index[key]; dup {
		return nil
	}
	s.index[key] = struct{}{}

	list := append(s.samples[sample.Asset], *sample)
	// Samples normally arrive in order; sort only when the new one is not
	// the newest (stream catch-up, backfill).
	if n := len(list); n > 1 && list[n-1].Timestamp.Before(list[n-2].Timestamp) {
		sort.Slice(list, func(i, j int) bool {
			return list[i].Timestamp.Before(list[j].Timestamp)
		})
	}
	s.samples[sample.Asset] = list
	return nil
}

func (s *MemoryPriceStore) Window(ctx context.Context, asset string, duration time.Duration, now time.Time) ([]models.Sample, error) {
	from := now.Add(-duration)

	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.samples[asset]
	out := make([]models.Sample, 0, len(list))
	for _, sm := range list {
		if sm.Timestamp.Before(from) || sm.Timestamp.After(now) {
			continue
		}
		out = append(out, sm)
	}
	return out, nil
}

func (s *MemoryPriceStore) Latest(ctx context.Context, asset string) (models.Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.samples[asset]
	if len(list) == 0 {
		return models.Sample{}, fmt.Errorf("latest %s: %w", asset, models.ErrNoData)
	}
	return list[len(list)-1], nil
}

func (s *MemoryPriceStore) Health(ctx context.Context) error { return nil }
func (s *MemoryPriceStore) Close() error                     { return nil }

// MemoryActionLog is the in-process ActionLog counterpart.
type MemoryActionLog struct {
	mu      sync.RWMutex
	records []models.ActionRecord // append order, oldest first
}

func NewMemoryActionLog() *MemoryActionLog {
	return &MemoryActionLog{}
}

func (l *MemoryActionLog) Init(ctx context.Context) error { return nil }

func (l *MemoryActionLog) Append(ctx context.Context, r *models.ActionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, *r)
	return nil
}

func (l *MemoryActionLog) LastOnChannel(ctx context.Context, channel string) (models.ActionRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := len(l.records) - 1; i >= 0; i-- {
		if l.records[i].Channel == channel {
			return l.records[i], nil
		}
	}
	return models.ActionRecord{}, fmt.Errorf("last on %s: %w", channel, models.ErrNoData)
}

func (l *MemoryActionLog) RecentFingerprints(ctx context.Context, lookback time.Duration, now time.Time) ([]string, error) {
	cutoff := now.Add(-lookback)

	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []string
	for i := len(l.records) - 1; i >= 0; i-- {
		if l.records[i].TriggeredAt.Before(cutoff) {
			break
		}
		out = append(out, l.records[i].Fingerprint)
	}
	return out, nil
}

func (l *MemoryActionLog) Recent(ctx context.Context, limit int) ([]models.ActionRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := len(l.records)
	if limit > n {
		limit = n
	}
	out := make([]models.ActionRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, l.records[i])
	}
	return out, nil
}

func (l *MemoryActionLog) Close() error { return nil }

var (
	_ domrepo.PriceStore = (*MemoryPriceStore)(nil)
	_ domrepo.ActionLog  = (*MemoryActionLog)(nil)
)
