package auth

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSQLSessionStoreCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewSQLSessionStore(db)
	session := newTestSession("hash-1")

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sessions")).
		WithArgs(session.UserID, session.TokenHash, session.Role, session.IssuedAt, session.ExpiresAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	if err := store.Create(context.Background(), session); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if session.ID != 11 {
		t.Errorf("session.ID = %d, want 11", session.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSQLSessionStoreGetByTokenHash(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewSQLSessionStore(db)
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "user_id", "token_hash", "role", "issued_at", "expires_at"}).
		AddRow(3, 42, "hash-2", "club_admin", issued, issued.Add(ClubAdminTrustDuration))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, token_hash, role, issued_at, expires_at")).
		WithArgs("hash-2").
		WillReturnRows(rows)

	got, err := store.GetByTokenHash(context.Background(), "hash-2")
	if err != nil {
		t.Fatalf("GetByTokenHash() error = %v", err)
	}
	if got.UserID != 42 || got.Role != RoleClubAdmin {
		t.Errorf("got session %+v, want user 42 with role club_admin", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSQLSessionStoreGetByTokenHashNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewSQLSessionStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, token_hash, role, issued_at, expires_at")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token_hash", "role", "issued_at", "expires_at"}))

	_, err = store.GetByTokenHash(context.Background(), "missing")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("GetByTokenHash() error = %v, want ErrSessionNotFound", err)
	}
}

func TestSQLSessionStoreRenewMissingSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewSQLSessionStore(db)
	session := newTestSession("hash-3")
	session.ID = 99

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET role = $1, expires_at = $2 WHERE id = $3")).
		WithArgs(session.Role, session.ExpiresAt, session.ID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Renew(context.Background(), session); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Renew() error = %v, want ErrSessionNotFound", err)
	}
}

func TestSQLSessionStorePurgeExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewSQLSessionStore(db)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE expires_at < $1")).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 5))

	purged, err := store.PurgeExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("PurgeExpired() error = %v", err)
	}
	if purged != 5 {
		t.Errorf("PurgeExpired() = %d, want 5", purged)
	}
}
