// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/marquee-app/marquee/internal/recommend"
)

var (
	_ recommend.InteractionStore         = (*DB)(nil)
	_ recommend.Catalog                  = (*DB)(nil)
	_ recommend.UserProfiles             = (*DB)(nil)
	_ recommend.RecommendationRepository = (*DB)(nil)
)

// ReplaceForUser implements recommend.RecommendationRepository.
func (db *DB) ReplaceForUser(ctx context.Context, userID int, recType recommend.Type, recs []recommend.Recommendation) error {
	return db.replaceRecommendations(ctx, &userID, recType, recs)
}

// ReplaceGeneral implements recommend.RecommendationRepository.
func (db *DB) ReplaceGeneral(ctx context.Context, recType recommend.Type, recs []recommend.Recommendation) error {
	return db.replaceRecommendations(ctx, nil, recType, recs)
}

// replaceRecommendations swaps the (user, type) slice of the table in one
// transaction. Repeated movie ids keep their first record.
func (db *DB) replaceRecommendations(ctx context.Context, userID *int, recType recommend.Type, recs []recommend.Recommendation) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("replace", "recommendations", start, err) }()

	type row struct {
		rec  *recommend.Recommendation
		meta string
	}
	rows := make([]row, 0, len(recs))
	seen := make(map[int]struct{}, len(recs))
	for i := range recs {
		if _, dup := seen[recs[i].ItemID]; dup {
			continue
		}
		seen[recs[i].ItemID] = struct{}{}
		meta := "{}"
		if len(recs[i].Metadata) > 0 {
			b, err := json.Marshal(recs[i].Metadata)
			if err != nil {
				return fmt.Errorf("failed to encode recommendation metadata: %w", err)
			}
			meta = string(b)
		}
		rows = append(rows, row{rec: &recs[i], meta: meta})
	}

	now := db.clock.Now().UTC()
	return db.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if userID != nil {
			_, err = tx.ExecContext(ctx,
				`DELETE FROM recommendations WHERE user_id = ? AND recommendation_type = ?`,
				*userID, string(recType))
		} else {
			_, err = tx.ExecContext(ctx,
				`DELETE FROM recommendations WHERE user_id IS NULL AND recommendation_type = ?`,
				string(recType))
		}
		if err != nil {
			return fmt.Errorf("failed to clear recommendations: %w", err)
		}

		for _, r := range rows {
			var uid sql.NullInt64
			if userID != nil {
				uid = sql.NullInt64{Int64: int64(*userID), Valid: true}
			}
			var expires sql.NullTime
			if r.rec.ExpiresAt != nil {
				expires = sql.NullTime{Time: r.rec.ExpiresAt.UTC(), Valid: true}
			}
			created := r.rec.CreatedAt
			if created.IsZero() {
				created = now
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO recommendations (
					user_id, movie_id, recommendation_type, score, reason, metadata, created_at, expires_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				uid, r.rec.ItemID, string(recType), r.rec.Score, r.rec.Reason, r.meta,
				created.UTC(), expires); err != nil {
				return fmt.Errorf("failed to insert recommendation for movie %d: %w", r.rec.ItemID, err)
			}
		}
		return nil
	})
}

// ListForUser implements recommend.RecommendationRepository.
func (db *DB) ListForUser(ctx context.Context, userID int, recType recommend.Type, limit int, now time.Time) ([]recommend.Recommendation, error) {
	return db.listRecommendations(ctx, &userID, recType, limit, now)
}

// ListGeneral implements recommend.RecommendationRepository.
func (db *DB) ListGeneral(ctx context.Context, recType recommend.Type, limit int, now time.Time) ([]recommend.Recommendation, error) {
	return db.listRecommendations(ctx, nil, recType, limit, now)
}

func (db *DB) listRecommendations(ctx context.Context, userID *int, recType recommend.Type, limit int, now time.Time) (result []recommend.Recommendation, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "recommendations", start, err) }()

	var b strings.Builder
	b.WriteString(`
		SELECT r.id, r.user_id, r.movie_id, r.score, r.reason, r.metadata, r.created_at, r.expires_at,
		       m.id IS NOT NULL, COALESCE(m.title, ''), COALESCE(m.overview, ''),
		       COALESCE(m.release_date, ''), COALESCE(m.poster_path, ''),
		       COALESCE(m.popularity, 0), COALESCE(m.vote_average, 0), COALESCE(m.vote_count, 0)
		FROM recommendations r
		LEFT JOIN movies m ON m.id = r.movie_id
		WHERE r.recommendation_type = ?
		  AND (r.expires_at IS NULL OR r.expires_at >= ?)`)
	args := []interface{}{string(recType), now.UTC()}
	if userID != nil {
		b.WriteString(` AND r.user_id = ?`)
		args = append(args, *userID)
	} else {
		b.WriteString(` AND r.user_id IS NULL`)
	}
	b.WriteString(` ORDER BY r.score DESC, r.movie_id ASC`)
	if limit > 0 {
		b.WriteString(` LIMIT ?`)
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var withItems []int
	for rows.Next() {
		var r recommend.Recommendation
		var uid sql.NullInt64
		var expires sql.NullTime
		var meta string
		var hasItem bool
		var it recommend.Item
		if err := rows.Scan(&r.ID, &uid, &r.ItemID, &r.Score, &r.Reason, &meta, &r.CreatedAt, &expires,
			&hasItem, &it.Title, &it.Overview, &it.ReleaseDate, &it.PosterPath,
			&it.Popularity, &it.VoteAverage, &it.VoteCount); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		r.Type = recType
		if uid.Valid {
			u := int(uid.Int64)
			r.UserID = &u
		}
		if expires.Valid {
			e := expires.Time
			r.ExpiresAt = &e
		}
		if meta != "" && meta != "{}" {
			if err := json.Unmarshal([]byte(meta), &r.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode recommendation metadata: %w", err)
			}
		}
		if hasItem {
			it.ID = r.ItemID
			r.Item = &it
			withItems = append(withItems, r.ItemID)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recommendations: %w", err)
	}

	if len(withItems) > 0 {
		genres, err := db.loadGenres(ctx, withItems)
		if err != nil {
			return nil, err
		}
		for i := range result {
			if result[i].Item != nil {
				result[i].Item.GenreIDs = genres[result[i].ItemID]
				if result[i].Item.GenreIDs == nil {
					result[i].Item.GenreIDs = []int{}
				}
			}
		}
	}
	return result, nil
}

// DeleteExpired implements recommend.RecommendationRepository.
func (db *DB) DeleteExpired(ctx context.Context, now time.Time) (n int, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("delete", "recommendations", start, err) }()

	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM recommendations WHERE expires_at IS NOT NULL AND expires_at < ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired recommendations: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return int(affected), nil
}
