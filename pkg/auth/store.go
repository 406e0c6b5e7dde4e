package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrSessionNotFound is returned when no live session matches a token
// hash. Callers treat it the same as an expired session.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists sessions. Implementations must treat the token
// hash as the lookup key and never see plaintext tokens.
type SessionStore interface {
	// Create persists a new session and fills in its ID.
	Create(ctx context.Context, session *Session) error

	// GetByTokenHash returns the session for a token hash, including
	// expired ones; expiry is checked by the caller at resolution time.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// Renew persists a slid expiry and the role observed at renewal.
	Renew(ctx context.Context, session *Session) error

	// Delete removes a session (explicit logout).
	Delete(ctx context.Context, tokenHash string) error

	// PurgeExpired removes sessions past their expiry. Hygiene only;
	// correctness comes from the lazy expiry check.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// SQLSessionStore stores sessions in PostgreSQL.
type SQLSessionStore struct {
	db *sql.DB
}

// NewSQLSessionStore creates a SQL-backed session store.
func NewSQLSessionStore(db *sql.DB) *SQLSessionStore {
	return &SQLSessionStore{db: db}
}

// Create implements SessionStore.Create.
func (s *SQLSessionStore) Create(ctx context.Context, session *Session) error {
	query := `
		INSERT INTO sessions (user_id, token_hash, role, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		session.UserID, session.TokenHash, session.Role,
		session.IssuedAt, session.ExpiresAt,
	).Scan(&session.ID)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetByTokenHash implements SessionStore.GetByTokenHash.
func (s *SQLSessionStore) GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	query := `
		SELECT id, user_id, token_hash, role, issued_at, expires_at
		FROM sessions
		WHERE token_hash = $1
	`
	session := &Session{}
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&session.ID, &session.UserID, &session.TokenHash,
		&session.Role, &session.IssuedAt, &session.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// Renew implements SessionStore.Renew.
func (s *SQLSessionStore) Renew(ctx context.Context, session *Session) error {
	query := `UPDATE sessions SET role = $1, expires_at = $2 WHERE id = $3`
	result, err := s.db.ExecContext(ctx, query, session.Role, session.ExpiresAt, session.ID)
	if err != nil {
		return fmt.Errorf("failed to renew session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Delete implements SessionStore.Delete.
func (s *SQLSessionStore) Delete(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// PurgeExpired implements SessionStore.PurgeExpired.
func (s *SQLSessionStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired sessions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}
