package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"MoodPulse/internal/domain/models"
	domrepo "MoodPulse/internal/domain/repository"
	pkgch "MoodPulse/pkg/clickhouse"
	applogger "MoodPulse/pkg/logger"
)

const priceTable = "moodpulse.price_samples"

// CHPriceStore implements PriceStore backed by ClickHouse. The table uses
// ReplacingMergeTree keyed by (asset, ts), so a re-ingested row collapses
// at merge time; an in-process seen index makes the no-op visible
// immediately, before any background merge runs.
type CHPriceStore struct {
	db *sql.DB
	l  *applogger.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewCHPriceStore(ch *pkgch.Client) *CHPriceStore {
	return &CHPriceStore{db: ch.DB(), seen: make(map[string]struct{})}
}

// SetLogger injects a structured logger.
func (s *CHPriceStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHPriceStore) Init(ctx context.Context) error {
	stmts := []string{
		"CREATE DATABASE IF NOT EXISTS moodpulse",
		fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            asset  LowCardinality(String),
            ts     DateTime64(3),
            price  Float64,
            volume Float64
        ) ENGINE = ReplacingMergeTree
        ORDER BY (asset, ts)
        TTL toDateTime(ts) + INTERVAL 30 DAY
    `, priceTable),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init price schema: %w", err)
		}
	}
	return nil
}

func (s *CHPriceStore) Ingest(ctx context.Context, sample *models.Sample) error {
	if err := validateForIngest(sample); err != nil {
		return err
	}
	key := sampleKey(sample.Asset, sample.Timestamp)
	s.mu.Lock()
	if _, dup := s.seen[key]; dup {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	q := fmt.Sprintf("INSERT INTO %s (asset, ts, price, volume) VALUES (?, ?, ?, ?)", priceTable)
	if _, err := s.db.ExecContext(ctx, q, sample.Asset, sample.Timestamp, sample.Price, sample.Volume); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse ingest error",
				applogger.String("asset", sample.Asset),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("ingest sample: %w", err)
	}

	s.mu.Lock()
	s.seen[key] = struct{}{}
	s.mu.Unlock()
	return nil
}

func (s *CHPriceStore) Window(ctx context.Context, asset string, duration time.Duration, now time.Time) ([]models.Sample, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT asset, ts, price, volume
        FROM %s
        WHERE asset = ? AND ts >= ? AND ts <= ?
        ORDER BY ts ASC
        LIMIT 1 BY ts
    `, priceTable)
	rows, err := s.db.QueryContext(ctx, q, asset, now.Add(-duration), now)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse window query error",
				applogger.String("asset", asset),
				applogger.Duration("window", duration),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("window query: %w", err)
	}
	defer rows.Close()

	out := make([]models.Sample, 0, 256)
	for rows.Next() {
		var sm models.Sample
		if err := rows.Scan(&sm.Asset, &sm.Timestamp, &sm.Price, &sm.Volume); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		out = append(out, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse window ok",
			applogger.String("asset", asset),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHPriceStore) Latest(ctx context.Context, asset string) (models.Sample, error) {
	q := fmt.Sprintf(`
        SELECT asset, ts, price, volume
        FROM %s
        WHERE asset = ?
        ORDER BY ts DESC
        LIMIT 1
    `, priceTable)
	var sm models.Sample
	err := s.db.QueryRowContext(ctx, q, asset).Scan(&sm.Asset, &sm.Timestamp, &sm.Price, &sm.Volume)
	if err == sql.ErrNoRows {
		return models.Sample{}, fmt.Errorf("latest %s: %w", asset, models.ErrNoData)
	}
	if err != nil {
		return models.Sample{}, fmt.Errorf("latest query: %w", err)
	}
	return sm, nil
}

func (s *CHPriceStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHPriceStore) Close() error {
	return nil // pool is owned by pkg/clickhouse
}

func sampleKey(asset string, ts time.Time) string {
	return fmt.Sprintf("%s-%d", asset, ts.UnixMilli())
}

// ingestSkew bounds how far ahead of wall clock a sample timestamp may
// sit before ingest rejects it. Laxer than the stream pipeline's skew:
// poll sources stamp server-side times that can drift.
const ingestSkew = 5 * time.Minute

// validateForIngest enforces the ingest contract shared by every
// PriceStore implementation: no negative price or volume, no zero or
// far-future timestamp.
func validateForIngest(sample *models.Sample) error {
	if err := sample.Validate(time.Now(), ingestSkew); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	return nil
}

var _ domrepo.PriceStore = (*CHPriceStore)(nil)
