package directory

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns the platform schema migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create organizational tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS colleges (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					location VARCHAR(255),
					logo TEXT,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
				);

				CREATE TABLE IF NOT EXISTS clubs (
					id BIGSERIAL PRIMARY KEY,
					college_id BIGINT NOT NULL REFERENCES colleges(id) ON DELETE CASCADE,
					name VARCHAR(255) NOT NULL,
					description TEXT,
					logo TEXT,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
				);

				CREATE TABLE IF NOT EXISTS events (
					id BIGSERIAL PRIMARY KEY,
					club_id BIGINT NOT NULL REFERENCES clubs(id) ON DELETE CASCADE,
					title VARCHAR(255) NOT NULL,
					description TEXT,
					venue VARCHAR(255),
					event_type VARCHAR(100),
					role_tag VARCHAR(100),
					banner TEXT,
					starts_at TIMESTAMP WITH TIME ZONE NOT NULL,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_clubs_college_id ON clubs(college_id);
				CREATE INDEX idx_events_club_id ON events(club_id);
				CREATE INDEX idx_events_starts_at ON events(starts_at);
			`,
		},
		{
			Version:     2,
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id BIGSERIAL PRIMARY KEY,
					google_id VARCHAR(255) NOT NULL UNIQUE,
					name VARCHAR(255) NOT NULL,
					email VARCHAR(255) NOT NULL UNIQUE,
					photo TEXT,
					role VARCHAR(50) NOT NULL DEFAULT 'user',
					college_id BIGINT REFERENCES colleges(id) ON DELETE SET NULL,
					club_id BIGINT REFERENCES clubs(id) ON DELETE SET NULL,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_users_college_id ON users(college_id);
				CREATE INDEX idx_users_club_id ON users(club_id);
			`,
		},
		{
			Version:     3,
			Description: "Create sessions table",
			SQL: `
				CREATE TABLE IF NOT EXISTS sessions (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					token_hash VARCHAR(64) NOT NULL UNIQUE,
					role VARCHAR(50) NOT NULL,
					issued_at TIMESTAMP WITH TIME ZONE NOT NULL,
					expires_at TIMESTAMP WITH TIME ZONE NOT NULL
				);

				CREATE INDEX idx_sessions_user_id ON sessions(user_id);
				CREATE INDEX idx_sessions_expires_at ON sessions(expires_at);
			`,
		},
		{
			Version:     4,
			Description: "Create settings table",
			SQL: `
				CREATE TABLE IF NOT EXISTS settings (
					key VARCHAR(255) PRIMARY KEY,
					value TEXT NOT NULL,
					updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
				);
			`,
		},
		{
			Version:     5,
			Description: "Create audit events table",
			SQL: `
				CREATE TABLE IF NOT EXISTS audit_events (
					id BIGSERIAL PRIMARY KEY,
					type VARCHAR(100) NOT NULL,
					status VARCHAR(20) NOT NULL,
					user_id BIGINT,
					college_id BIGINT,
					club_id BIGINT,
					detail TEXT,
					ip_address VARCHAR(64),
					request_id VARCHAR(64),
					created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_audit_events_user_id ON audit_events(user_id);
				CREATE INDEX idx_audit_events_created_at ON audit_events(created_at);
			`,
		},
		{
			Version:     6,
			Description: "Create analytics event tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS login_events (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT,
					email VARCHAR(255),
					role VARCHAR(50),
					success BOOLEAN NOT NULL,
					failure_reason TEXT,
					ip_address VARCHAR(64),
					user_agent TEXT,
					request_id VARCHAR(64),
					occurred_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
				);

				CREATE TABLE IF NOT EXISTS upload_events (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL,
					category VARCHAR(100) NOT NULL,
					backend VARCHAR(20) NOT NULL,
					fallback BOOLEAN NOT NULL DEFAULT FALSE,
					file_size BIGINT NOT NULL DEFAULT 0,
					duration_ms BIGINT NOT NULL DEFAULT 0,
					success BOOLEAN NOT NULL,
					ip_address VARCHAR(64),
					request_id VARCHAR(64),
					occurred_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_login_events_occurred_at ON login_events(occurred_at);
				CREATE INDEX idx_upload_events_occurred_at ON upload_events(occurred_at);
			`,
		},
		{
			Version:     7,
			Description: "Create analytics rollup tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS activity_stats_daily (
					date DATE PRIMARY KEY,
					login_count BIGINT NOT NULL DEFAULT 0,
					login_failure_count BIGINT NOT NULL DEFAULT 0,
					unique_login_users BIGINT NOT NULL DEFAULT 0,
					upload_count BIGINT NOT NULL DEFAULT 0,
					upload_bytes BIGINT NOT NULL DEFAULT 0,
					fallback_count BIGINT NOT NULL DEFAULT 0
				);

				CREATE TABLE IF NOT EXISTS upload_stats_daily (
					category VARCHAR(100) NOT NULL,
					date DATE NOT NULL,
					upload_count BIGINT NOT NULL DEFAULT 0,
					upload_bytes BIGINT NOT NULL DEFAULT 0,
					fallback_count BIGINT NOT NULL DEFAULT 0,
					PRIMARY KEY (category, date)
				);
			`,
		},
	}
}

// RunMigrations applies pending migrations. Each migration runs in its
// own transaction and is recorded in schema_migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	rows.Close()

	for _, migration := range GetMigrations() {
		if applied[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
