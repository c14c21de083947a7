// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

/*
schema.go - Database Schema Management

Tables:
  - movies: catalog entries keyed by TMDb movie id
  - movie_genres: ordered genre codes per movie
  - genres: TMDb genre code to name
  - users: user records
  - user_genres: ordered preferred genre names per user
  - movie_ratings: one 0.5-5.0 rating per (user, movie)
  - user_favorites: one row per (user, movie)
  - user_interactions: append-only interaction log
  - recommendations: persisted recommendation rows, user_id NULL for general lists

Child tables carry no primary key so a delete followed by a reinsert of the
same rows inside one transaction never trips DuckDB's eager constraint checks.
Uniqueness of recommendations per (user, movie, type) is kept by the
repository, which replaces a user's rows of one type atomically.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

func tableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS movies (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			original_title TEXT NOT NULL DEFAULT '',
			overview TEXT NOT NULL DEFAULT '',
			release_date TEXT NOT NULL DEFAULT '',
			poster_path TEXT NOT NULL DEFAULT '',
			backdrop_path TEXT NOT NULL DEFAULT '',
			adult BOOLEAN NOT NULL DEFAULT false,
			original_language TEXT NOT NULL DEFAULT '',
			popularity DOUBLE NOT NULL DEFAULT 0,
			vote_average DOUBLE NOT NULL DEFAULT 0,
			vote_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS movie_genres (
			movie_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			genre_id INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS genres (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY,
			email TEXT NOT NULL DEFAULT '',
			username TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS user_genres (
			user_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			genre_name TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS movie_ratings (
			user_id INTEGER NOT NULL,
			movie_id INTEGER NOT NULL,
			rating DOUBLE NOT NULL,
			review TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, movie_id)
		)`,

		`CREATE TABLE IF NOT EXISTS user_favorites (
			user_id INTEGER NOT NULL,
			movie_id INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, movie_id)
		)`,

		`CREATE SEQUENCE IF NOT EXISTS user_interactions_id_seq START 1`,

		`CREATE TABLE IF NOT EXISTS user_interactions (
			id BIGINT PRIMARY KEY DEFAULT nextval('user_interactions_id_seq'),
			user_id INTEGER NOT NULL,
			movie_id INTEGER NOT NULL,
			interaction_type TEXT NOT NULL,
			value DOUBLE,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE SEQUENCE IF NOT EXISTS recommendations_id_seq START 1`,

		`CREATE TABLE IF NOT EXISTS recommendations (
			id BIGINT PRIMARY KEY DEFAULT nextval('recommendations_id_seq'),
			user_id INTEGER,
			movie_id INTEGER NOT NULL,
			recommendation_type TEXT NOT NULL,
			score DOUBLE NOT NULL DEFAULT 0,
			reason TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP
		)`,
	}
}

// createIndexes creates indexes for the candidate and repository queries
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_movies_popularity ON movies(popularity)`,
		`CREATE INDEX IF NOT EXISTS idx_movie_genres_genre ON movie_genres(genre_id)`,
		`CREATE INDEX IF NOT EXISTS idx_movie_genres_movie ON movie_genres(movie_id)`,
		`CREATE INDEX IF NOT EXISTS idx_user_genres_user ON user_genres(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_movie_ratings_movie ON movie_ratings(movie_id)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_user_type ON user_interactions(user_id, interaction_type)`,
		`CREATE INDEX IF NOT EXISTS idx_recommendations_user_type ON recommendations(user_id, recommendation_type)`,
		`CREATE INDEX IF NOT EXISTS idx_recommendations_expires ON recommendations(expires_at)`,
	}

	for _, idx := range indexes {
		if _, err := db.conn.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", idx, err)
		}
	}
	return nil
}
