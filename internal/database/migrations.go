// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/marquee-app/marquee/internal/logging"
)

// Migration represents a versioned database migration.
type Migration struct {
	Version     int       // Unique version number (monotonically increasing)
	Name        string    // Human-readable migration name
	Description string    // Description of what this migration does
	SQL         string    // SQL statement to execute
	AppliedAt   time.Time // When the migration was applied (populated on query)
}

// schemaMigrationsTable creates the migration tracking table
const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// getMigrations returns all versioned migrations in order.
//
// Migrations MUST be append-only; never modify or remove one once released.
func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Name:        "seed_tmdb_genres",
			Description: "Seed the TMDb movie genre list so preferences validate before the first sync",
			SQL: `INSERT INTO genres (id, name, created_at) VALUES
				(28, 'Action', CURRENT_TIMESTAMP),
				(12, 'Adventure', CURRENT_TIMESTAMP),
				(16, 'Animation', CURRENT_TIMESTAMP),
				(35, 'Comedy', CURRENT_TIMESTAMP),
				(80, 'Crime', CURRENT_TIMESTAMP),
				(99, 'Documentary', CURRENT_TIMESTAMP),
				(18, 'Drama', CURRENT_TIMESTAMP),
				(10751, 'Family', CURRENT_TIMESTAMP),
				(14, 'Fantasy', CURRENT_TIMESTAMP),
				(36, 'History', CURRENT_TIMESTAMP),
				(27, 'Horror', CURRENT_TIMESTAMP),
				(10402, 'Music', CURRENT_TIMESTAMP),
				(9648, 'Mystery', CURRENT_TIMESTAMP),
				(10749, 'Romance', CURRENT_TIMESTAMP),
				(878, 'Science Fiction', CURRENT_TIMESTAMP),
				(10770, 'TV Movie', CURRENT_TIMESTAMP),
				(53, 'Thriller', CURRENT_TIMESTAMP),
				(10752, 'War', CURRENT_TIMESTAMP),
				(37, 'Western', CURRENT_TIMESTAMP)
			ON CONFLICT DO NOTHING`,
		},
	}
}

// createMigrationsTable creates the schema_migrations table if it doesn't exist
func (db *DB) createMigrationsTable(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, schemaMigrationsTable)
	return err
}

// getAppliedMigrations returns a map of version -> Migration for all applied migrations
func (db *DB) getAppliedMigrations(ctx context.Context) (map[int]Migration, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT version, name, COALESCE(description, ''), applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]Migration)
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Version, &m.Name, &m.Description, &m.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[m.Version] = m
	}
	return applied, rows.Err()
}

// runVersionedMigrations executes only migrations that haven't been applied yet.
func (db *DB) runVersionedMigrations() error {
	ctx, cancel := schemaContext()
	defer cancel()

	if err := db.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	newMigrations := 0
	for _, m := range getMigrations() {
		if _, exists := applied[m.Version]; exists {
			continue
		}

		if _, err := db.conn.ExecContext(ctx, m.SQL); err != nil {
			return fmt.Errorf("failed to execute migration v%d (%s): %w", m.Version, m.Name, err)
		}

		_, err := db.conn.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name, description) VALUES (?, ?, ?)`,
			m.Version, m.Name, m.Description)
		if err != nil {
			return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
		}
		newMigrations++
	}

	if newMigrations > 0 {
		logging.Info().Int("count", newMigrations).Msg("Applied database migrations")
	}
	return nil
}

// GetCurrentSchemaVersion returns the highest applied migration version
func (db *DB) GetCurrentSchemaVersion(ctx context.Context) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var version int
	err := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
