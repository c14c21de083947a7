// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/marquee-app/marquee/internal/recommend"
)

// User is a user record.
type User struct {
	ID        int       `json:"id"`
	Email     string    `json:"email,omitempty"`
	Username  string    `json:"username,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpsertUser inserts the user or refreshes its email and username.
//
//nolint:gocritic // hugeParam: User is a small value record
func (db *DB) UpsertUser(ctx context.Context, u User) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("upsert", "users", start, err) }()

	now := db.clock.Now().UTC()
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO users (id, email, username, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			username = EXCLUDED.username,
			updated_at = EXCLUDED.updated_at`,
		u.ID, u.Email, u.Username, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert user %d: %w", u.ID, err)
	}
	return nil
}

// EnsureUser creates a bare user row if none exists.
func (db *DB) EnsureUser(ctx context.Context, userID int) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("insert", "users", start, err) }()

	now := db.clock.Now().UTC()
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO users (id, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`, userID, now, now)
	if err != nil {
		return fmt.Errorf("failed to ensure user %d: %w", userID, err)
	}
	return nil
}

// GetUser returns the user or recommend.ErrNotFound.
func (db *DB) GetUser(ctx context.Context, userID int) (u User, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "users", start, err) }()

	err = db.conn.QueryRowContext(ctx,
		`SELECT id, email, username, created_at, updated_at FROM users WHERE id = ?`, userID).
		Scan(&u.ID, &u.Email, &u.Username, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, recommend.ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return u, nil
}

// SetPreferredGenres replaces the user's ordered preferred genre names.
func (db *DB) SetPreferredGenres(ctx context.Context, userID int, genres []string) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("replace", "user_genres", start, err) }()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_genres WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("failed to clear preferred genres: %w", err)
		}
		seen := make(map[string]struct{}, len(genres))
		pos := 0
		for _, name := range genres {
			if _, dup := seen[name]; dup || name == "" {
				continue
			}
			seen[name] = struct{}{}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO user_genres (user_id, position, genre_name) VALUES (?, ?, ?)`,
				userID, pos, name); err != nil {
				return fmt.Errorf("failed to insert preferred genre %q: %w", name, err)
			}
			pos++
		}
		return nil
	})
}

// PreferredGenres implements recommend.UserProfiles.
func (db *DB) PreferredGenres(ctx context.Context, userID int) (genres []string, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "user_genres", start, err) }()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT genre_name FROM user_genres WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query preferred genres: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan preferred genre: %w", err)
		}
		genres = append(genres, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating preferred genres: %w", err)
	}
	return genres, nil
}

// ActiveUsers implements recommend.UserProfiles.
func (db *DB) ActiveUsers(ctx context.Context, limit int) (users []int, err error) {
	if limit <= 0 {
		return nil, nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "movie_ratings", start, err) }()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM movie_ratings ORDER BY user_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan active user: %w", err)
		}
		users = append(users, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating active users: %w", err)
	}
	return users, nil
}
