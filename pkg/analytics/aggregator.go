package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Aggregator folds raw events into daily statistics. Rollups are
// idempotent per date, so a rerun after a partial failure is safe.
type Aggregator struct {
	db *sql.DB
}

// NewAggregator creates an aggregator over an open database handle.
func NewAggregator(db *sql.DB) *Aggregator {
	return &Aggregator{db: db}
}

// AggregateActivityDaily computes platform-wide activity stats for one
// date.
func (a *Aggregator) AggregateActivityDaily(ctx context.Context, date time.Time) error {
	query := `
		INSERT INTO activity_stats_daily (
			date, login_count, login_failure_count, unique_login_users,
			upload_count, upload_bytes, fallback_count
		)
		SELECT
			$1::date AS date,
			COALESCE(l.login_count, 0),
			COALESCE(l.login_failure_count, 0),
			COALESCE(l.unique_login_users, 0),
			COALESCE(u.upload_count, 0),
			COALESCE(u.upload_bytes, 0),
			COALESCE(u.fallback_count, 0)
		FROM (
			SELECT
				COUNT(*) FILTER (WHERE success) AS login_count,
				COUNT(*) FILTER (WHERE NOT success) AS login_failure_count,
				COUNT(DISTINCT user_id) FILTER (WHERE success) AS unique_login_users
			FROM login_events
			WHERE occurred_at >= $1::date
			  AND occurred_at < $1::date + INTERVAL '1 day'
		) l, (
			SELECT
				COUNT(*) FILTER (WHERE success) AS upload_count,
				COALESCE(SUM(file_size) FILTER (WHERE success), 0) AS upload_bytes,
				COUNT(*) FILTER (WHERE fallback) AS fallback_count
			FROM upload_events
			WHERE occurred_at >= $1::date
			  AND occurred_at < $1::date + INTERVAL '1 day'
		) u
		ON CONFLICT (date) DO UPDATE SET
			login_count = EXCLUDED.login_count,
			login_failure_count = EXCLUDED.login_failure_count,
			unique_login_users = EXCLUDED.unique_login_users,
			upload_count = EXCLUDED.upload_count,
			upload_bytes = EXCLUDED.upload_bytes,
			fallback_count = EXCLUDED.fallback_count
	`
	_, err := a.db.ExecContext(ctx, query, date)
	return err
}

// AggregateUploadStatsDaily computes per-category upload stats for one
// date.
func (a *Aggregator) AggregateUploadStatsDaily(ctx context.Context, date time.Time) error {
	query := `
		INSERT INTO upload_stats_daily (
			category, date, upload_count, upload_bytes, fallback_count
		)
		SELECT
			category,
			$1::date AS date,
			COUNT(*) FILTER (WHERE success) AS upload_count,
			COALESCE(SUM(file_size) FILTER (WHERE success), 0) AS upload_bytes,
			COUNT(*) FILTER (WHERE fallback) AS fallback_count
		FROM upload_events
		WHERE occurred_at >= $1::date
		  AND occurred_at < $1::date + INTERVAL '1 day'
		GROUP BY category
		ON CONFLICT (category, date) DO UPDATE SET
			upload_count = EXCLUDED.upload_count,
			upload_bytes = EXCLUDED.upload_bytes,
			fallback_count = EXCLUDED.fallback_count
	`
	_, err := a.db.ExecContext(ctx, query, date)
	return err
}

// AggregateAll runs all rollups for a given date.
func (a *Aggregator) AggregateAll(ctx context.Context, date time.Time) error {
	if err := a.AggregateActivityDaily(ctx, date); err != nil {
		return fmt.Errorf("failed to aggregate daily activity: %w", err)
	}
	if err := a.AggregateUploadStatsDaily(ctx, date); err != nil {
		return fmt.Errorf("failed to aggregate daily upload stats: %w", err)
	}
	return nil
}
