// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package recommend

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by lookups of a single missing entity.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedKind is returned by GenerateGeneral for kinds other than
	// trending and popular.
	ErrUnsupportedKind = errors.New("unsupported general recommendation kind")

	// ErrNoTrendingSource is returned when trending generation is requested
	// without a configured TrendingSource.
	ErrNoTrendingSource = errors.New("no trending source configured")

	// ErrAllStrategiesFailed is wrapped into the error returned when every
	// strategy the engine ran failed.
	ErrAllStrategiesFailed = errors.New("all recommendation strategies failed")
)

// InteractionStore is the read-only view over recorded user actions.
type InteractionStore interface {
	// AllRatings returns user id -> item id -> rating for every user.
	AllRatings(ctx context.Context) (map[int]map[int]float64, error)

	// UserRatings returns item id -> rating for one user.
	UserRatings(ctx context.Context, userID int) (map[int]float64, error)

	// Favorites returns the set of items the user favorited.
	Favorites(ctx context.Context, userID int) (map[int]struct{}, error)

	// RatingCount returns how many items the user has rated.
	RatingCount(ctx context.Context, userID int) (int, error)
}

// Catalog provides movie metadata.
type Catalog interface {
	// Item returns ErrNotFound for unknown ids.
	Item(ctx context.Context, id int) (Item, error)

	// Items returns the known subset of ids keyed by id.
	Items(ctx context.Context, ids []int) (map[int]Item, error)

	// ItemsByGenres returns items carrying any of codes, not in exclude,
	// ordered by popularity desc, vote average desc, id asc.
	ItemsByGenres(ctx context.Context, codes []int, exclude map[int]struct{}, limit int) ([]Item, error)

	// PopularItems returns items strictly above every filter bound, not in
	// exclude, ordered by popularity desc, id asc. A zero MinVoteCount
	// disables the vote bound.
	PopularItems(ctx context.Context, filter PopularityFilter, exclude map[int]struct{}, limit int) ([]Item, error)
}

// UserProfiles provides explicit user preferences.
type UserProfiles interface {
	// PreferredGenres returns the user's stored genre names, in order.
	PreferredGenres(ctx context.Context, userID int) ([]string, error)

	// ActiveUsers returns up to limit users that have at least one rating,
	// ordered by id.
	ActiveUsers(ctx context.Context, limit int) ([]int, error)
}

// RecommendationRepository persists recommendation records.
type RecommendationRepository interface {
	// ReplaceForUser deletes the user's records of recType and inserts recs
	// in one transaction.
	ReplaceForUser(ctx context.Context, userID int, recType Type, recs []Recommendation) error

	// ReplaceGeneral does the same for records without a user.
	ReplaceGeneral(ctx context.Context, recType Type, recs []Recommendation) error

	// ListForUser returns unexpired records ordered by score desc.
	ListForUser(ctx context.Context, userID int, recType Type, limit int, now time.Time) ([]Recommendation, error)

	// ListGeneral returns unexpired general records ordered by score desc.
	ListGeneral(ctx context.Context, recType Type, limit int, now time.Time) ([]Recommendation, error)

	// DeleteExpired removes records whose expiry is before now.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// TrendingSource fetches currently trending movies from upstream and makes
// sure they exist in the catalog.
type TrendingSource interface {
	Trending(ctx context.Context, limit int) ([]Item, error)
}

// Strategy produces scored candidates for one user.
type Strategy interface {
	Name() string
	Recommend(ctx context.Context, req Request) ([]ScoredItem, error)
}
