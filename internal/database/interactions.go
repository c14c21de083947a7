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

	"github.com/goccy/go-json"
)

// Rating bounds on the user-facing 5 point scale.
const (
	MinRating = 0.5
	MaxRating = 5.0
)

// ErrInvalidRating is returned when a rating falls outside [MinRating, MaxRating].
var ErrInvalidRating = errors.New("rating out of range")

// InteractionType names a logged user action.
type InteractionType string

// Interaction types.
const (
	InteractionView      InteractionType = "view"
	InteractionFavorite  InteractionType = "favorite"
	InteractionRating    InteractionType = "rating"
	InteractionWatchlist InteractionType = "watchlist"
	InteractionSearch    InteractionType = "search"
	InteractionClick     InteractionType = "click"
)

// Valid reports whether t is a known interaction type.
func (t InteractionType) Valid() bool {
	switch t {
	case InteractionView, InteractionFavorite, InteractionRating,
		InteractionWatchlist, InteractionSearch, InteractionClick:
		return true
	}
	return false
}

// Interaction is one row of the append-only interaction log.
type Interaction struct {
	ID        int64                  `json:"id"`
	UserID    int                    `json:"user_id"`
	MovieID   int                    `json:"movie_id"`
	Type      InteractionType        `json:"interaction_type"`
	Value     *float64               `json:"value,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Rating is one stored rating. Title is only filled by ListRatings.
type Rating struct {
	UserID    int       `json:"user_id"`
	MovieID   int       `json:"movie_id"`
	Title     string    `json:"title,omitempty"`
	Rating    float64   `json:"rating"`
	Review    string    `json:"review,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AllRatings implements recommend.InteractionStore.
func (db *DB) AllRatings(ctx context.Context) (result map[int]map[int]float64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "movie_ratings", start, err) }()

	rows, err := db.conn.QueryContext(ctx, `SELECT user_id, movie_id, rating FROM movie_ratings`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	result = make(map[int]map[int]float64)
	for rows.Next() {
		var userID, movieID int
		var rating float64
		if err := rows.Scan(&userID, &movieID, &rating); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		if result[userID] == nil {
			result[userID] = make(map[int]float64)
		}
		result[userID][movieID] = rating
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}
	return result, nil
}

// UserRatings implements recommend.InteractionStore.
func (db *DB) UserRatings(ctx context.Context, userID int) (result map[int]float64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "movie_ratings", start, err) }()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT movie_id, rating FROM movie_ratings WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user ratings: %w", err)
	}
	defer rows.Close()

	result = make(map[int]float64)
	for rows.Next() {
		var movieID int
		var rating float64
		if err := rows.Scan(&movieID, &rating); err != nil {
			return nil, fmt.Errorf("failed to scan user rating: %w", err)
		}
		result[movieID] = rating
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user ratings: %w", err)
	}
	return result, nil
}

// Favorites implements recommend.InteractionStore.
func (db *DB) Favorites(ctx context.Context, userID int) (result map[int]struct{}, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "user_favorites", start, err) }()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT movie_id FROM user_favorites WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	result = make(map[int]struct{})
	for rows.Next() {
		var movieID int
		if err := rows.Scan(&movieID); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		result[movieID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating favorites: %w", err)
	}
	return result, nil
}

// RatingCount implements recommend.InteractionStore.
func (db *DB) RatingCount(ctx context.Context, userID int) (n int, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("count", "movie_ratings", start, err) }()

	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM movie_ratings WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count ratings: %w", err)
	}
	return n, nil
}

// SetRating stores or replaces the user's rating for a movie.
func (db *DB) SetRating(ctx context.Context, userID, movieID int, rating float64, review string) (err error) {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("%w: %.2f", ErrInvalidRating, rating)
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("upsert", "movie_ratings", start, err) }()

	now := db.clock.Now().UTC()
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO movie_ratings (user_id, movie_id, rating, review, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, movie_id) DO UPDATE SET
			rating = EXCLUDED.rating,
			review = EXCLUDED.review,
			updated_at = EXCLUDED.updated_at`,
		userID, movieID, rating, review, now, now)
	if err != nil {
		return fmt.Errorf("failed to set rating: %w", err)
	}
	return nil
}

// GetRating returns the stored rating or sql.ErrNoRows wrapped.
func (db *DB) GetRating(ctx context.Context, userID, movieID int) (r Rating, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "movie_ratings", start, err) }()

	err = db.conn.QueryRowContext(ctx, `
		SELECT user_id, movie_id, rating, review, created_at, updated_at
		FROM movie_ratings WHERE user_id = ? AND movie_id = ?`, userID, movieID).
		Scan(&r.UserID, &r.MovieID, &r.Rating, &r.Review, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return Rating{}, fmt.Errorf("failed to get rating: %w", err)
	}
	return r, nil
}

// DeleteRating removes the user's rating. Returns whether a row existed.
func (db *DB) DeleteRating(ctx context.Context, userID, movieID int) (deleted bool, err error) {
	return db.deletePair(ctx, "movie_ratings", userID, movieID)
}

// AddFavorite marks a movie as favorite. Adding twice is a no-op.
func (db *DB) AddFavorite(ctx context.Context, userID, movieID int) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("insert", "user_favorites", start, err) }()

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO user_favorites (user_id, movie_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`, userID, movieID, db.clock.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// Favorite is one favorited movie with its catalog title.
type Favorite struct {
	UserID    int       `json:"user_id"`
	MovieID   int       `json:"movie_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// ListRatings returns the user's ratings, most recently updated first.
func (db *DB) ListRatings(ctx context.Context, userID, limit int) (result []Rating, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "movie_ratings", start, err) }()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT r.user_id, r.movie_id, COALESCE(m.title, ''), r.rating, r.review, r.created_at, r.updated_at
		FROM movie_ratings r LEFT JOIN movies m ON m.id = r.movie_id
		WHERE r.user_id = ?
		ORDER BY r.updated_at DESC, r.movie_id
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r Rating
		if err := rows.Scan(&r.UserID, &r.MovieID, &r.Title, &r.Rating, &r.Review, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}
	return result, nil
}

// ListFavorites returns the user's favorites, newest first.
func (db *DB) ListFavorites(ctx context.Context, userID, limit int) (result []Favorite, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "user_favorites", start, err) }()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT f.user_id, f.movie_id, COALESCE(m.title, ''), f.created_at
		FROM user_favorites f LEFT JOIN movies m ON m.id = f.movie_id
		WHERE f.user_id = ?
		ORDER BY f.created_at DESC, f.movie_id
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f Favorite
		if err := rows.Scan(&f.UserID, &f.MovieID, &f.Title, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating favorites: %w", err)
	}
	return result, nil
}

// RemoveFavorite unmarks a favorite. Returns whether a row existed.
func (db *DB) RemoveFavorite(ctx context.Context, userID, movieID int) (deleted bool, err error) {
	return db.deletePair(ctx, "user_favorites", userID, movieID)
}

// deletePair deletes one (user, movie) row from a fixed table.
func (db *DB) deletePair(ctx context.Context, table string, userID, movieID int) (deleted bool, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("delete", table, start, err) }()

	// table is one of two constants passed by this package, never user input.
	res, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE user_id = ? AND movie_id = ?`, table), //nolint:gosec
		userID, movieID)
	if err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// RecordInteraction appends to the interaction log and returns the new row id.
func (db *DB) RecordInteraction(ctx context.Context, in *Interaction) (id int64, err error) {
	if !in.Type.Valid() {
		return 0, fmt.Errorf("unknown interaction type %q", in.Type)
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("insert", "user_interactions", start, err) }()

	meta := []byte("{}")
	if len(in.Metadata) > 0 {
		meta, err = json.Marshal(in.Metadata)
		if err != nil {
			return 0, fmt.Errorf("failed to encode interaction metadata: %w", err)
		}
	}

	var value sql.NullFloat64
	if in.Value != nil {
		value = sql.NullFloat64{Float64: *in.Value, Valid: true}
	}

	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = db.clock.Now()
	}

	err = db.conn.QueryRowContext(ctx, `
		INSERT INTO user_interactions (user_id, movie_id, interaction_type, value, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		in.UserID, in.MovieID, string(in.Type), value, string(meta), createdAt.UTC()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to record interaction: %w", err)
	}
	return id, nil
}

// ListInteractions returns the user's most recent interactions, newest first.
func (db *DB) ListInteractions(ctx context.Context, userID, limit int) (result []Interaction, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "user_interactions", start, err) }()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, user_id, movie_id, interaction_type, value, metadata, created_at
		FROM user_interactions WHERE user_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var in Interaction
		var typ, meta string
		var value sql.NullFloat64
		if err := rows.Scan(&in.ID, &in.UserID, &in.MovieID, &typ, &value, &meta, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		in.Type = InteractionType(typ)
		if value.Valid {
			v := value.Float64
			in.Value = &v
		}
		if meta != "" && meta != "{}" {
			if err := json.Unmarshal([]byte(meta), &in.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode interaction metadata: %w", err)
			}
		}
		result = append(result, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interactions: %w", err)
	}
	return result, nil
}
