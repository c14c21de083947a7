// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package recommend

import (
	"fmt"
	"time"
)

// Config contains all tunables for the engine, the strategies and the
// batch generator.
type Config struct {
	// MinRatingCount is the number of ratings a user needs before
	// collaborative filtering runs for them.
	MinRatingCount int `json:"min_rating_count"`

	// CollaborativeWeight scales collaborative scores in the hybrid merge.
	CollaborativeWeight float64 `json:"collaborative_weight"`

	// ContentBasedWeight scales content scores in the hybrid merge.
	ContentBasedWeight float64 `json:"content_based_weight"`

	// PopularityWeight is accepted for compatibility; popularity padding is
	// merged unweighted.
	PopularityWeight float64 `json:"popularity_weight"`

	// MinSimilarity drops neighbor pairs scoring at or below it.
	MinSimilarity float64 `json:"min_similarity"`

	// MinCommonRatings is both the per-user eligibility threshold and the
	// minimum co-rated items for a pair.
	MinCommonRatings int `json:"min_common_ratings"`

	// HighRatingThreshold marks ratings that feed the content profile.
	HighRatingThreshold float64 `json:"high_rating_threshold"`

	// CandidateMultiplier caps content candidates at limit*multiplier.
	CandidateMultiplier int `json:"candidate_multiplier"`

	// Popularity bounds popularity fallback candidates.
	Popularity PopularityFilter `json:"popularity"`

	// ListMinVoteCount is the extra vote bound for popular lists.
	ListMinVoteCount int `json:"list_min_vote_count"`

	SimilarityTTL time.Duration `json:"similarity_ttl"`
	ResultTTL     time.Duration `json:"result_ttl"`

	DefaultLimit int `json:"default_limit"`
	MaxLimit     int `json:"max_limit"`

	// BatchSize caps users per GenerateAll run.
	BatchSize int `json:"batch_size"`

	// BatchConcurrency bounds parallel users in GenerateAll.
	BatchConcurrency int `json:"batch_concurrency"`

	// UserRecommendationTTL is the expiry for stored hybrid rows.
	UserRecommendationTTL time.Duration `json:"user_recommendation_ttl"`

	// GeneralRecommendationTTL is the expiry for stored trending/popular rows.
	GeneralRecommendationTTL time.Duration `json:"general_recommendation_ttl"`

	// GeneralLimit is the number of items stored per general kind.
	GeneralLimit int `json:"general_limit"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MinRatingCount:      5,
		CollaborativeWeight: 0.6,
		ContentBasedWeight:  0.4,
		PopularityWeight:    0.2,
		MinSimilarity:       0.1,
		MinCommonRatings:    5,
		HighRatingThreshold: 4.0,
		CandidateMultiplier: 3,
		Popularity: PopularityFilter{
			MinPopularity: 10,
			MinRating:     6.0,
		},
		ListMinVoteCount:         100,
		SimilarityTTL:            time.Hour,
		ResultTTL:                10 * time.Minute,
		DefaultLimit:             20,
		MaxLimit:                 100,
		BatchSize:                100,
		BatchConcurrency:         4,
		UserRecommendationTTL:    7 * 24 * time.Hour,
		GeneralRecommendationTTL: 24 * time.Hour,
		GeneralLimit:             20,
	}
}

// Validate checks the configuration for values the engine cannot work with.
//
//nolint:gocritic // hugeParam: Config is validated by value once at startup
func (c Config) Validate() error {
	if c.MinRatingCount < 0 {
		return fmt.Errorf("min_rating_count must be non-negative, got %d", c.MinRatingCount)
	}
	if c.CollaborativeWeight < 0 {
		return fmt.Errorf("collaborative_weight must be non-negative, got %f", c.CollaborativeWeight)
	}
	if c.ContentBasedWeight < 0 {
		return fmt.Errorf("content_based_weight must be non-negative, got %f", c.ContentBasedWeight)
	}
	if c.PopularityWeight < 0 {
		return fmt.Errorf("popularity_weight must be non-negative, got %f", c.PopularityWeight)
	}
	if c.MinSimilarity < 0 || c.MinSimilarity >= 1 {
		return fmt.Errorf("min_similarity must be in [0, 1), got %f", c.MinSimilarity)
	}
	if c.MinCommonRatings < 1 {
		return fmt.Errorf("min_common_ratings must be positive, got %d", c.MinCommonRatings)
	}
	if c.HighRatingThreshold < 0.5 || c.HighRatingThreshold > 5 {
		return fmt.Errorf("high_rating_threshold must be in [0.5, 5], got %f", c.HighRatingThreshold)
	}
	if c.CandidateMultiplier < 1 {
		return fmt.Errorf("candidate_multiplier must be positive, got %d", c.CandidateMultiplier)
	}
	if c.DefaultLimit < 1 {
		return fmt.Errorf("default_limit must be positive, got %d", c.DefaultLimit)
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("max_limit (%d) must be >= default_limit (%d)", c.MaxLimit, c.DefaultLimit)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.BatchConcurrency < 1 {
		return fmt.Errorf("batch_concurrency must be positive, got %d", c.BatchConcurrency)
	}
	if c.SimilarityTTL <= 0 {
		return fmt.Errorf("similarity_ttl must be positive, got %v", c.SimilarityTTL)
	}
	if c.ResultTTL < 0 {
		return fmt.Errorf("result_ttl must be non-negative, got %v", c.ResultTTL)
	}
	if c.UserRecommendationTTL <= 0 {
		return fmt.Errorf("user_recommendation_ttl must be positive, got %v", c.UserRecommendationTTL)
	}
	if c.GeneralRecommendationTTL <= 0 {
		return fmt.Errorf("general_recommendation_ttl must be positive, got %v", c.GeneralRecommendationTTL)
	}
	if c.GeneralLimit < 1 {
		return fmt.Errorf("general_limit must be positive, got %d", c.GeneralLimit)
	}
	return nil
}

// NormalizeLimit applies DefaultLimit to non-positive values and caps at MaxLimit.
//
//nolint:gocritic // hugeParam: read-only helper
func (c Config) NormalizeLimit(limit int) int {
	if limit <= 0 {
		return c.DefaultLimit
	}
	if limit > c.MaxLimit {
		return c.MaxLimit
	}
	return limit
}
