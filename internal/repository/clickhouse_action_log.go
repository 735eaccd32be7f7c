package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"MoodPulse/internal/domain/models"
	domrepo "MoodPulse/internal/domain/repository"
	pkgch "MoodPulse/pkg/clickhouse"
	applogger "MoodPulse/pkg/logger"
)

const actionTable = "moodpulse.action_records"

// CHActionLog implements ActionLog backed by ClickHouse. Append-only; the
// dispatcher writes a record only after the action was actually published.
type CHActionLog struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHActionLog(ch *pkgch.Client) *CHActionLog {
	return &CHActionLog{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHActionLog) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHActionLog) Init(ctx context.Context) error {
	stmts := []string{
		"CREATE DATABASE IF NOT EXISTS moodpulse",
		fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            triggered_at DateTime64(3),
            mood         LowCardinality(String),
            fingerprint  String,
            channel      LowCardinality(String),
            trigger      String
        ) ENGINE = MergeTree
        ORDER BY (channel, triggered_at)
        TTL toDateTime(triggered_at) + INTERVAL 90 DAY
    `, actionTable),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init action schema: %w", err)
		}
	}
	return nil
}

func (s *CHActionLog) Append(ctx context.Context, r *models.ActionRecord) error {
	q := fmt.Sprintf("INSERT INTO %s (triggered_at, mood, fingerprint, channel, trigger) VALUES (?, ?, ?, ?, ?)", actionTable)
	if _, err := s.db.ExecContext(ctx, q, r.TriggeredAt, string(r.Mood), r.Fingerprint, r.Channel, r.Trigger); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse append action error",
				applogger.String("channel", r.Channel),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("append action: %w", err)
	}
	return nil
}

func (s *CHActionLog) LastOnChannel(ctx context.Context, channel string) (models.ActionRecord, error) {
	q := fmt.Sprintf(`
        SELECT triggered_at, mood, fingerprint, channel, trigger
        FROM %s
        WHERE channel = ?
        ORDER BY triggered_at DESC
        LIMIT 1
    `, actionTable)
	var r models.ActionRecord
	var mood string
	err := s.db.QueryRowContext(ctx, q, channel).Scan(&r.TriggeredAt, &mood, &r.Fingerprint, &r.Channel, &r.Trigger)
	if err == sql.ErrNoRows {
		return models.ActionRecord{}, fmt.Errorf("last on %s: %w", channel, models.ErrNoData)
	}
	if err != nil {
		return models.ActionRecord{}, fmt.Errorf("last action query: %w", err)
	}
	r.Mood = models.Mood(mood)
	return r, nil
}

func (s *CHActionLog) RecentFingerprints(ctx context.Context, lookback time.Duration, now time.Time) ([]string, error) {
	q := fmt.Sprintf(`
        SELECT DISTINCT fingerprint
        FROM %s
        WHERE triggered_at >= ?
    `, actionTable)
	rows, err := s.db.QueryContext(ctx, q, now.Add(-lookback))
	if err != nil {
		return nil, fmt.Errorf("fingerprints query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("scan fingerprint: %w", err)
		}
		out = append(out, fp)
	}
	return out, rows.Err()
}

func (s *CHActionLog) Recent(ctx context.Context, limit int) ([]models.ActionRecord, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT triggered_at, mood, fingerprint, channel, trigger
        FROM %s
        ORDER BY triggered_at DESC
        LIMIT ?
    `, actionTable)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("recent actions query: %w", err)
	}
	defer rows.Close()

	out := make([]models.ActionRecord, 0, limit)
	for rows.Next() {
		var r models.ActionRecord
		var mood string
		if err := rows.Scan(&r.TriggeredAt, &mood, &r.Fingerprint, &r.Channel, &r.Trigger); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		r.Mood = models.Mood(mood)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse recent actions ok",
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHActionLog) Close() error {
	return nil // pool is owned by pkg/clickhouse
}

var _ domrepo.ActionLog = (*CHActionLog)(nil)
