package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a setting key has no row.
var ErrNotFound = errors.New("setting not found")

// Store persists platform settings (site title, default hero image,
// feature toggles).
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	All(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
}

// SQLStore is the PostgreSQL-backed settings store.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a settings store over an open database handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Get implements Store.Get.
func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

// All implements Store.All.
func (s *SQLStore) All(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		result[key] = value
	}
	return result, rows.Err()
}

// Set implements Store.Set.
func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to update setting %s: %w", key, err)
	}
	return nil
}
