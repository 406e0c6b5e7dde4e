package analytics

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestGetOverview(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	svc := NewService(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM sessions WHERE expires_at > NOW()")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
	mock.ExpectQuery(regexp.QuoteMeta("FROM activity_stats_daily")).
		WillReturnRows(sqlmock.NewRows([]string{
			"logins_24h", "logins_7d", "login_failures_7d",
			"uploads_24h", "uploads_7d", "upload_bytes_7d", "fallbacks",
		}).AddRow(10, 80, 3, 5, 40, 2048000, 4))
	mock.ExpectQuery(regexp.QuoteMeta("FROM upload_stats_daily")).
		WillReturnRows(sqlmock.NewRows([]string{"category"}).AddRow("event_logos"))

	overview, err := svc.GetOverview(context.Background())
	if err != nil {
		t.Fatalf("GetOverview() error = %v", err)
	}
	if overview.ActiveSessions != 42 {
		t.Errorf("ActiveSessions = %d, want 42", overview.ActiveSessions)
	}
	if overview.Logins7d != 80 {
		t.Errorf("Logins7d = %d, want 80", overview.Logins7d)
	}
	if overview.FallbackRate7d != 0.1 {
		t.Errorf("FallbackRate7d = %v, want 0.1", overview.FallbackRate7d)
	}
	if overview.TopUploadCategory != "event_logos" {
		t.Errorf("TopUploadCategory = %q, want event_logos", overview.TopUploadCategory)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetOverviewNoUploads(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	svc := NewService(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM sessions WHERE expires_at > NOW()")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM activity_stats_daily")).
		WillReturnRows(sqlmock.NewRows([]string{
			"logins_24h", "logins_7d", "login_failures_7d",
			"uploads_24h", "uploads_7d", "upload_bytes_7d", "fallbacks",
		}).AddRow(0, 0, 0, 0, 0, 0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM upload_stats_daily")).
		WillReturnRows(sqlmock.NewRows([]string{"category"}))

	overview, err := svc.GetOverview(context.Background())
	if err != nil {
		t.Fatalf("GetOverview() error = %v", err)
	}
	if overview.FallbackRate7d != 0 {
		t.Errorf("FallbackRate7d = %v, want 0", overview.FallbackRate7d)
	}
	if overview.TopUploadCategory != "" {
		t.Errorf("TopUploadCategory = %q, want empty", overview.TopUploadCategory)
	}
}

func TestGetDailyActivity(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	svc := NewService(db)

	rows := sqlmock.NewRows([]string{
		"date", "login_count", "login_failure_count", "unique_login_users",
		"upload_count", "upload_bytes", "fallback_count",
	}).
		AddRow("2026-08-27", 12, 1, 9, 6, 307200, 0).
		AddRow("2026-08-26", 8, 0, 7, 3, 150000, 1)
	mock.ExpectQuery(regexp.QuoteMeta("FROM activity_stats_daily")).
		WithArgs(7).
		WillReturnRows(rows)

	activity, err := svc.GetDailyActivity(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetDailyActivity() error = %v", err)
	}
	if len(activity) != 2 {
		t.Fatalf("len(activity) = %d, want 2", len(activity))
	}
	if activity[0].Date != "2026-08-27" || activity[0].LoginCount != 12 {
		t.Errorf("unexpected first row %+v", activity[0])
	}
}
