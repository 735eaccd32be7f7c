package usecase

import (
	"context"
	"fmt"
	"time"

	"MoodPulse/internal/domain/models"
	domrepo "MoodPulse/internal/domain/repository"
)

// SampleProcessor routes live stream samples into the price store.
type SampleProcessor struct {
	store   domrepo.PriceStore
	metrics domrepo.Metrics
}

func NewSampleProcessor(store domrepo.PriceStore, metrics domrepo.Metrics) *SampleProcessor {
	return &SampleProcessor{store: store, metrics: metrics}
}

// Process ingests a single sample. Idempotent re-ingestion is a no-op at
// the store level.
func (p *SampleProcessor) Process(ctx context.Context, s *models.Sample) error {
	if s == nil {
		return fmt.Errorf("sample is nil")
	}

	start := time.Now()
	if err := p.store.Ingest(ctx, s); err != nil {
		p.metrics.RecordError("stream_ingest")
		return fmt.Errorf("ingest sample: %w", err)
	}

	p.metrics.RecordIngest("stream", s.Asset)
	p.metrics.RecordLastPrice(s.Asset, s.Price)
	p.metrics.RecordLatency("stream_ingest", time.Since(start).Seconds())
	return nil
}

// Close closes the underlying store.
func (p *SampleProcessor) Close() {
	if p.store != nil {
		_ = p.store.Close()
	}
}
