package analytics

import (
	"context"
	"database/sql"
	"time"

	"github.com/campushub/campushub/pkg/auth"
	"github.com/campushub/campushub/pkg/media"
	"github.com/campushub/campushub/pkg/storage"
)

// EventTracker records raw usage events.
type EventTracker struct {
	db *sql.DB
}

// NewEventTracker creates an event tracker over an open database handle.
func NewEventTracker(db *sql.DB) *EventTracker {
	return &EventTracker{db: db}
}

// LoginEvent represents one login attempt, successful or not. UserID is
// nil when authentication failed before a user record was resolved.
type LoginEvent struct {
	UserID        *int64
	Email         string
	Role          auth.Role
	Success       bool
	FailureReason string
	IPAddress     string
	UserAgent     string
	RequestID     string
}

// TrackLogin records a login attempt.
func (t *EventTracker) TrackLogin(ctx context.Context, event LoginEvent) error {
	query := `
		INSERT INTO login_events (
			user_id, email, role, success, failure_reason,
			ip_address, user_agent, request_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := t.db.ExecContext(ctx, query,
		event.UserID, nullString(event.Email), nullString(string(event.Role)),
		event.Success, nullString(event.FailureReason),
		nullString(event.IPAddress), nullString(event.UserAgent),
		nullString(event.RequestID),
	)
	return err
}

// UploadEvent represents one media upload, with the backend that served
// the write and whether it was a local fallback after a remote failure.
type UploadEvent struct {
	UserID    int64
	Category  media.Category
	Backend   storage.BackendKind
	Fallback  bool
	FileSize  int64
	Duration  time.Duration
	Success   bool
	IPAddress string
	RequestID string
}

// TrackUpload records a media upload.
func (t *EventTracker) TrackUpload(ctx context.Context, event UploadEvent) error {
	query := `
		INSERT INTO upload_events (
			user_id, category, backend, fallback, file_size,
			duration_ms, success, ip_address, request_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := t.db.ExecContext(ctx, query,
		event.UserID, string(event.Category), string(event.Backend),
		event.Fallback, event.FileSize, event.Duration.Milliseconds(),
		event.Success, nullString(event.IPAddress), nullString(event.RequestID),
	)
	return err
}

// nullString converts empty strings to NULL.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
