// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package recommend

import (
	"fmt"
	"math"
	"time"
)

// Item is a catalog movie as seen by the recommendation strategies.
type Item struct {
	// ID is the TMDb movie id.
	ID int `json:"id"`

	Title string `json:"title"`

	Overview string `json:"overview,omitempty"`

	// ReleaseDate is YYYY-MM-DD or empty.
	ReleaseDate string `json:"release_date,omitempty"`

	// GenreIDs are TMDb genre codes in catalog order.
	GenreIDs []int `json:"genre_ids"`

	// Popularity is the TMDb popularity index (>= 0, unbounded).
	Popularity float64 `json:"popularity"`

	// VoteAverage is the mean TMDb rating on a 0-10 scale.
	VoteAverage float64 `json:"vote_average"`

	VoteCount int `json:"vote_count"`

	PosterPath string `json:"poster_path,omitempty"`
}

// Strategy names, also used as metric labels.
const (
	SourceCollaborative = "collaborative"
	SourceContent       = "content_based"
	SourcePopularity    = "popularity"
)

// ScoredItem is a candidate produced by a strategy or by the hybrid merge.
type ScoredItem struct {
	Item Item `json:"item"`

	// Score is the strategy score, or the weighted score after merge.
	Score float64 `json:"score"`

	// Reason is the user-facing explanation.
	Reason string `json:"reason"`

	// Source names the strategy the reason came from.
	Source string `json:"source"`
}

// Request is the input to a Strategy.
type Request struct {
	UserID int

	// Limit is the maximum number of items to return. Zero yields nothing.
	Limit int

	// Exclude holds item ids the caller already has.
	Exclude map[int]struct{}

	// MinVoteCount tightens the popularity vote bound for this request.
	// Other strategies ignore it.
	MinVoteCount int
}

// Excluded reports whether id is in the request's exclusion set.
//
//nolint:gocritic // hugeParam: Request is passed by value across strategies
func (r Request) Excluded(id int) bool {
	_, ok := r.Exclude[id]
	return ok
}

// PopularityFilter bounds popularity candidates. Comparisons are strict.
type PopularityFilter struct {
	MinPopularity float64 `json:"min_popularity"`
	MinRating     float64 `json:"min_rating"`
	MinVoteCount  int     `json:"min_vote_count"`
}

// PopularReason is the reason attached to popularity results.
const PopularReason = "Popular movies trending now"

// PopularityScore blends normalized popularity with the 0-10 rating:
// 0.6*min(pop/100, 1) + 0.4*(rating/10).
func PopularityScore(it Item) float64 {
	return 0.6*math.Min(it.Popularity/100, 1) + 0.4*(it.VoteAverage/10)
}

// Type classifies a stored recommendation record.
type Type string

// Recommendation record types.
const (
	TypeTrending      Type = "trending"
	TypePopular       Type = "popular"
	TypeSimilar       Type = "similar"
	TypeGenreBased    Type = "genre_based"
	TypeCollaborative Type = "collaborative"
	TypeContentBased  Type = "content_based"
	TypeHybrid        Type = "hybrid"
)

// ParseType validates s as a record type.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeTrending, TypePopular, TypeSimilar, TypeGenreBased,
		TypeCollaborative, TypeContentBased, TypeHybrid:
		return t, nil
	default:
		return "", fmt.Errorf("unknown recommendation type %q", s)
	}
}

// Recommendation is a persisted recommendation row. A nil UserID marks a
// general (non-personalized) record. Records are unique per
// (UserID, ItemID, Type).
type Recommendation struct {
	ID        int64                  `json:"id"`
	UserID    *int                   `json:"user_id,omitempty"`
	ItemID    int                    `json:"movie_id"`
	Type      Type                   `json:"recommendation_type"`
	Score     float64                `json:"score"`
	Reason    string                 `json:"reason"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	ExpiresAt *time.Time             `json:"expires_at,omitempty"`

	// Item is populated by list queries.
	Item *Item `json:"movie,omitempty"`
}

// Expired reports whether the record's expiry lies strictly before now.
func (r *Recommendation) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && r.ExpiresAt.Before(now)
}
