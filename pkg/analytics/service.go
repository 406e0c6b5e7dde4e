package analytics

import (
	"context"
	"database/sql"
	"fmt"
)

// Service answers dashboard queries from the pre-aggregated rollups.
type Service struct {
	db *sql.DB
}

// NewService creates an analytics service over an open database handle.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// OverviewResponse contains high-level platform KPIs.
type OverviewResponse struct {
	ActiveSessions    int64   `json:"active_sessions"`
	Logins24h         int64   `json:"logins_24h"`
	Logins7d          int64   `json:"logins_7d"`
	LoginFailures7d   int64   `json:"login_failures_7d"`
	Uploads24h        int64   `json:"uploads_24h"`
	Uploads7d         int64   `json:"uploads_7d"`
	UploadBytes7d     int64   `json:"upload_bytes_7d"`
	FallbackRate7d    float64 `json:"fallback_rate_7d"`
	TopUploadCategory string  `json:"top_upload_category"`
}

// GetOverview retrieves high-level KPIs. Session counts come from the
// live sessions table; everything else comes from the daily rollups.
func (s *Service) GetOverview(ctx context.Context) (*OverviewResponse, error) {
	var overview OverviewResponse

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE expires_at > NOW()",
	).Scan(&overview.ActiveSessions)
	if err != nil {
		return nil, fmt.Errorf("failed to count active sessions: %w", err)
	}

	query := `
		SELECT
			COALESCE(SUM(login_count) FILTER (WHERE date >= CURRENT_DATE - INTERVAL '1 day'), 0),
			COALESCE(SUM(login_count), 0),
			COALESCE(SUM(login_failure_count), 0),
			COALESCE(SUM(upload_count) FILTER (WHERE date >= CURRENT_DATE - INTERVAL '1 day'), 0),
			COALESCE(SUM(upload_count), 0),
			COALESCE(SUM(upload_bytes), 0),
			COALESCE(SUM(fallback_count), 0)
		FROM activity_stats_daily
		WHERE date >= CURRENT_DATE - INTERVAL '7 days'
	`
	var fallbacks int64
	err = s.db.QueryRowContext(ctx, query).Scan(
		&overview.Logins24h, &overview.Logins7d, &overview.LoginFailures7d,
		&overview.Uploads24h, &overview.Uploads7d, &overview.UploadBytes7d,
		&fallbacks,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read activity stats: %w", err)
	}
	if overview.Uploads7d > 0 {
		overview.FallbackRate7d = float64(fallbacks) / float64(overview.Uploads7d)
	}

	top := `
		SELECT category
		FROM upload_stats_daily
		WHERE date >= CURRENT_DATE - INTERVAL '7 days'
		GROUP BY category
		ORDER BY SUM(upload_count) DESC
		LIMIT 1
	`
	err = s.db.QueryRowContext(ctx, top).Scan(&overview.TopUploadCategory)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to read top upload category: %w", err)
	}

	return &overview, nil
}

// DailyActivity is one row of the daily rollup.
type DailyActivity struct {
	Date             string `json:"date"`
	LoginCount       int64  `json:"login_count"`
	LoginFailures    int64  `json:"login_failures"`
	UniqueLoginUsers int64  `json:"unique_login_users"`
	UploadCount      int64  `json:"upload_count"`
	UploadBytes      int64  `json:"upload_bytes"`
	FallbackCount    int64  `json:"fallback_count"`
}

// GetDailyActivity returns the rollup rows for the last `days` days,
// newest first.
func (s *Service) GetDailyActivity(ctx context.Context, days int) ([]DailyActivity, error) {
	query := `
		SELECT date::text, login_count, login_failure_count, unique_login_users,
		       upload_count, upload_bytes, fallback_count
		FROM activity_stats_daily
		WHERE date >= CURRENT_DATE - $1 * INTERVAL '1 day'
		ORDER BY date DESC
	`
	rows, err := s.db.QueryContext(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("failed to read daily activity: %w", err)
	}
	defer rows.Close()

	var activity []DailyActivity
	for rows.Next() {
		var day DailyActivity
		if err := rows.Scan(
			&day.Date, &day.LoginCount, &day.LoginFailures, &day.UniqueLoginUsers,
			&day.UploadCount, &day.UploadBytes, &day.FallbackCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan daily activity: %w", err)
		}
		activity = append(activity, day)
	}
	return activity, rows.Err()
}
