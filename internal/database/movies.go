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
	"sort"
	"strings"
	"time"

	"github.com/marquee-app/marquee/internal/recommend"
)

// Movie is a catalog row with the full TMDb metadata we keep.
type Movie struct {
	ID               int       `json:"id"`
	Title            string    `json:"title"`
	OriginalTitle    string    `json:"original_title"`
	Overview         string    `json:"overview"`
	ReleaseDate      string    `json:"release_date"`
	PosterPath       string    `json:"poster_path"`
	BackdropPath     string    `json:"backdrop_path"`
	Adult            bool      `json:"adult"`
	OriginalLanguage string    `json:"original_language"`
	Popularity       float64   `json:"popularity"`
	VoteAverage      float64   `json:"vote_average"`
	VoteCount        int       `json:"vote_count"`
	GenreIDs         []int     `json:"genre_ids"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Item converts the row to the view used by the recommenders.
func (m *Movie) Item() recommend.Item {
	return recommend.Item{
		ID:          m.ID,
		Title:       m.Title,
		Overview:    m.Overview,
		ReleaseDate: m.ReleaseDate,
		GenreIDs:    m.GenreIDs,
		Popularity:  m.Popularity,
		VoteAverage: m.VoteAverage,
		VoteCount:   m.VoteCount,
		PosterPath:  m.PosterPath,
	}
}

// Genre is a TMDb genre code and its display name.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

const itemColumns = `m.id, m.title, m.overview, m.release_date, m.poster_path,
	m.popularity, m.vote_average, m.vote_count`

// UpsertMovies inserts or refreshes catalog rows and replaces their genre
// lists. Duplicate ids keep the last occurrence. Returns rows written.
func (db *DB) UpsertMovies(ctx context.Context, movies []Movie) (n int, err error) {
	if len(movies) == 0 {
		return 0, nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("upsert", "movies", start, err) }()

	byID := make(map[int]Movie, len(movies))
	order := make([]int, 0, len(movies))
	for i := range movies {
		if _, seen := byID[movies[i].ID]; !seen {
			order = append(order, movies[i].ID)
		}
		byID[movies[i].ID] = movies[i]
	}

	now := db.clock.Now().UTC()
	err = db.withTx(ctx, func(tx *sql.Tx) error {
		for _, id := range order {
			m := byID[id]
			_, err := tx.ExecContext(ctx, `
				INSERT INTO movies (
					id, title, original_title, overview, release_date, poster_path,
					backdrop_path, adult, original_language, popularity, vote_average,
					vote_count, created_at, updated_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (id) DO UPDATE SET
					title = EXCLUDED.title,
					original_title = EXCLUDED.original_title,
					overview = EXCLUDED.overview,
					release_date = EXCLUDED.release_date,
					poster_path = EXCLUDED.poster_path,
					backdrop_path = EXCLUDED.backdrop_path,
					adult = EXCLUDED.adult,
					original_language = EXCLUDED.original_language,
					popularity = EXCLUDED.popularity,
					vote_average = EXCLUDED.vote_average,
					vote_count = EXCLUDED.vote_count,
					updated_at = EXCLUDED.updated_at`,
				m.ID, m.Title, m.OriginalTitle, m.Overview, m.ReleaseDate, m.PosterPath,
				m.BackdropPath, m.Adult, m.OriginalLanguage, m.Popularity, m.VoteAverage,
				m.VoteCount, now, now)
			if err != nil {
				return fmt.Errorf("failed to upsert movie %d: %w", m.ID, err)
			}

			if _, err := tx.ExecContext(ctx, `DELETE FROM movie_genres WHERE movie_id = ?`, m.ID); err != nil {
				return fmt.Errorf("failed to clear genres for movie %d: %w", m.ID, err)
			}
			for pos, g := range m.GenreIDs {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO movie_genres (movie_id, position, genre_id) VALUES (?, ?, ?)`,
					m.ID, pos, g); err != nil {
					return fmt.Errorf("failed to insert genre %d for movie %d: %w", g, m.ID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(order), nil
}

// GetMovie returns the full catalog row or recommend.ErrNotFound.
func (db *DB) GetMovie(ctx context.Context, id int) (m Movie, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "movies", start, err) }()

	err = db.conn.QueryRowContext(ctx, `
		SELECT id, title, original_title, overview, release_date, poster_path,
		       backdrop_path, adult, original_language, popularity, vote_average,
		       vote_count, created_at, updated_at
		FROM movies WHERE id = ?`, id).Scan(
		&m.ID, &m.Title, &m.OriginalTitle, &m.Overview, &m.ReleaseDate, &m.PosterPath,
		&m.BackdropPath, &m.Adult, &m.OriginalLanguage, &m.Popularity, &m.VoteAverage,
		&m.VoteCount, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Movie{}, recommend.ErrNotFound
	}
	if err != nil {
		return Movie{}, fmt.Errorf("failed to get movie %d: %w", id, err)
	}

	genres, err := db.loadGenres(ctx, []int{id})
	if err != nil {
		return Movie{}, err
	}
	m.GenreIDs = genres[id]
	return m, nil
}

// MovieExists reports whether id is in the catalog.
func (db *DB) MovieExists(ctx context.Context, id int) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check movie %d: %w", id, err)
	}
	return n > 0, nil
}

// Item implements recommend.Catalog.
func (db *DB) Item(ctx context.Context, id int) (recommend.Item, error) {
	items, err := db.Items(ctx, []int{id})
	if err != nil {
		return recommend.Item{}, err
	}
	it, ok := items[id]
	if !ok {
		return recommend.Item{}, recommend.ErrNotFound
	}
	return it, nil
}

// Items implements recommend.Catalog.
func (db *DB) Items(ctx context.Context, ids []int) (result map[int]recommend.Item, err error) {
	result = make(map[int]recommend.Item, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "movies", start, err) }()

	args := intArgs(ids)
	query := fmt.Sprintf(`SELECT %s FROM movies m WHERE m.id IN (%s)`, itemColumns, placeholders(len(ids)))
	items, err := db.queryItems(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		result[it.ID] = it
	}
	return result, nil
}

// ItemsByGenres implements recommend.Catalog.
func (db *DB) ItemsByGenres(ctx context.Context, codes []int, exclude map[int]struct{}, limit int) (items []recommend.Item, err error) {
	if len(codes) == 0 || limit <= 0 {
		return nil, nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "movie_genres", start, err) }()

	var b strings.Builder
	args := intArgs(codes)
	fmt.Fprintf(&b, `SELECT %s FROM movies m
		WHERE EXISTS (SELECT 1 FROM movie_genres g WHERE g.movie_id = m.id AND g.genre_id IN (%s))`,
		itemColumns, placeholders(len(codes)))
	if ids := excludeIDs(exclude); len(ids) > 0 {
		fmt.Fprintf(&b, ` AND m.id NOT IN (%s)`, placeholders(len(ids)))
		args = append(args, intArgs(ids)...)
	}
	b.WriteString(` ORDER BY m.popularity DESC, m.vote_average DESC, m.id ASC LIMIT ?`)
	args = append(args, limit)

	return db.queryItems(ctx, b.String(), args...)
}

// PopularItems implements recommend.Catalog.
//
//nolint:gocritic // hugeParam: filter mirrors the Catalog interface
func (db *DB) PopularItems(ctx context.Context, filter recommend.PopularityFilter, exclude map[int]struct{}, limit int) (items []recommend.Item, err error) {
	if limit <= 0 {
		return nil, nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "movies", start, err) }()

	var b strings.Builder
	fmt.Fprintf(&b, `SELECT %s FROM movies m WHERE m.popularity > ? AND m.vote_average > ?`, itemColumns)
	args := []interface{}{filter.MinPopularity, filter.MinRating}
	if filter.MinVoteCount > 0 {
		b.WriteString(` AND m.vote_count > ?`)
		args = append(args, filter.MinVoteCount)
	}
	if ids := excludeIDs(exclude); len(ids) > 0 {
		fmt.Fprintf(&b, ` AND m.id NOT IN (%s)`, placeholders(len(ids)))
		args = append(args, intArgs(ids)...)
	}
	b.WriteString(` ORDER BY m.popularity DESC, m.id ASC LIMIT ?`)
	args = append(args, limit)

	return db.queryItems(ctx, b.String(), args...)
}

// CountMovies returns the catalog size.
func (db *DB) CountMovies(ctx context.Context) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count movies: %w", err)
	}
	return n, nil
}

// UpsertGenres refreshes the genre name table.
func (db *DB) UpsertGenres(ctx context.Context, genres []Genre) (err error) {
	if len(genres) == 0 {
		return nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("upsert", "genres", start, err) }()

	now := db.clock.Now().UTC()
	return db.withTx(ctx, func(tx *sql.Tx) error {
		for _, g := range genres {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO genres (id, name, created_at) VALUES (?, ?, ?)
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
				g.ID, g.Name, now); err != nil {
				return fmt.Errorf("failed to upsert genre %d: %w", g.ID, err)
			}
		}
		return nil
	})
}

// ListGenres returns all known genres ordered by name.
func (db *DB) ListGenres(ctx context.Context) (genres []Genre, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "genres", start, err) }()

	rows, err := db.conn.QueryContext(ctx, `SELECT id, name FROM genres ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query genres: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("failed to scan genre: %w", err)
		}
		genres = append(genres, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating genres: %w", err)
	}
	return genres, nil
}

// queryItems runs an item query and attaches genre lists.
func (db *DB) queryItems(ctx context.Context, query string, args ...interface{}) ([]recommend.Item, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer rows.Close()

	var items []recommend.Item
	for rows.Next() {
		var it recommend.Item
		if err := rows.Scan(&it.ID, &it.Title, &it.Overview, &it.ReleaseDate, &it.PosterPath,
			&it.Popularity, &it.VoteAverage, &it.VoteCount); err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating movies: %w", err)
	}
	if len(items) == 0 {
		return items, nil
	}

	ids := make([]int, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	genres, err := db.loadGenres(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].GenreIDs = genres[items[i].ID]
		if items[i].GenreIDs == nil {
			items[i].GenreIDs = []int{}
		}
	}
	return items, nil
}

// loadGenres returns movie id -> genre codes in catalog order.
func (db *DB) loadGenres(ctx context.Context, movieIDs []int) (map[int][]int, error) {
	query := fmt.Sprintf(`SELECT movie_id, genre_id FROM movie_genres
		WHERE movie_id IN (%s) ORDER BY movie_id, position`, placeholders(len(movieIDs)))
	rows, err := db.conn.QueryContext(ctx, query, intArgs(movieIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movie genres: %w", err)
	}
	defer rows.Close()

	result := make(map[int][]int, len(movieIDs))
	for rows.Next() {
		var movieID, genreID int
		if err := rows.Scan(&movieID, &genreID); err != nil {
			return nil, fmt.Errorf("failed to scan movie genre: %w", err)
		}
		result[movieID] = append(result[movieID], genreID)
	}
	return result, rows.Err()
}

func intArgs(ids []int) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// excludeIDs flattens an exclusion set in ascending order.
func excludeIDs(exclude map[int]struct{}) []int {
	if len(exclude) == 0 {
		return nil
	}
	ids := make([]int, 0, len(exclude))
	for id := range exclude {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
