package analytics

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/campushub/campushub/pkg/auth"
	"github.com/campushub/campushub/pkg/media"
	"github.com/campushub/campushub/pkg/storage"
)

func TestTrackLogin(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	tracker := NewEventTracker(db)
	userID := int64(7)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO login_events")).
		WithArgs(&userID, "priya@college.edu", "club_admin", true, nil, "203.0.113.9", "Mozilla/5.0", "req-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = tracker.TrackLogin(context.Background(), LoginEvent{
		UserID:    &userID,
		Email:     "priya@college.edu",
		Role:      auth.RoleClubAdmin,
		Success:   true,
		IPAddress: "203.0.113.9",
		UserAgent: "Mozilla/5.0",
		RequestID: "req-1",
	})
	if err != nil {
		t.Fatalf("TrackLogin() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTrackLoginFailureWithoutUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	tracker := NewEventTracker(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO login_events")).
		WithArgs(nil, "intruder@example.com", nil, false, "token exchange failed", nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = tracker.TrackLogin(context.Background(), LoginEvent{
		Email:         "intruder@example.com",
		Success:       false,
		FailureReason: "token exchange failed",
	})
	if err != nil {
		t.Fatalf("TrackLogin() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTrackUpload(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	tracker := NewEventTracker(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO upload_events")).
		WithArgs(int64(7), "club_logos", "remote", false, int64(51200), int64(340), true, nil, "req-2").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = tracker.TrackUpload(context.Background(), UploadEvent{
		UserID:    7,
		Category:  media.CategoryClubLogo,
		Backend:   storage.BackendRemote,
		FileSize:  51200,
		Duration:  340 * time.Millisecond,
		Success:   true,
		RequestID: "req-2",
	})
	if err != nil {
		t.Fatalf("TrackUpload() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
