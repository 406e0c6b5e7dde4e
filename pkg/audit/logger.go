package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Logger records audit events. Recording must never fail the request
// that produced the event.
type Logger interface {
	Record(ctx context.Context, event *Event) error
}

// DBLogger writes audit events to the audit_events table.
type DBLogger struct {
	db *sql.DB
}

// NewDBLogger creates a database-backed audit logger.
func NewDBLogger(db *sql.DB) *DBLogger {
	return &DBLogger{db: db}
}

// Record implements Logger.Record.
func (l *DBLogger) Record(ctx context.Context, event *Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO audit_events (type, status, user_id, college_id, club_id, detail, ip_address, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := l.db.QueryRowContext(ctx, query,
		event.Type, event.Status, event.UserID, event.CollegeID, event.ClubID,
		event.Detail, event.IPAddress, event.RequestID, event.CreatedAt,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}
	return nil
}

// NopLogger drops events; used when auditing is disabled and in tests.
type NopLogger struct{}

// Record implements Logger.Record.
func (NopLogger) Record(ctx context.Context, event *Event) error {
	return nil
}
