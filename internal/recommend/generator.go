// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/marquee-app/marquee/internal/cache"
	"github.com/marquee-app/marquee/internal/logging"
	"github.com/marquee-app/marquee/internal/metrics"
)

// Stored record constants.
const (
	HybridAlgorithm  = "hybrid_engine"
	TrendingReason   = "Currently trending on TMDb"
	TrendingScore    = 0.9
	TrendingSourceID = "tmdb_trending"
)

// GeneratorDeps are the collaborators of Generator.
type GeneratorDeps struct {
	Engine   *Engine
	Repo     RecommendationRepository
	Profiles UserProfiles
	Catalog  Catalog

	// Trending is optional; without it GenerateGeneral(TypeTrending) fails
	// with ErrNoTrendingSource.
	Trending TrendingSource

	// Clock defaults to the wall clock.
	Clock cache.Clock
}

// BatchResult summarizes a GenerateAll run.
type BatchResult struct {
	Users     int `json:"users"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Written   int `json:"written"`
}

// Generator persists precomputed recommendations.
type Generator struct {
	cfg      Config
	engine   *Engine
	repo     RecommendationRepository
	profiles UserProfiles
	catalog  Catalog
	trending TrendingSource
	clock    cache.Clock
	logger   zerolog.Logger
}

// NewGenerator wires a Generator. Engine, Repo, Profiles and Catalog are required.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewGenerator(deps GeneratorDeps, logger zerolog.Logger) (*Generator, error) {
	if deps.Engine == nil || deps.Repo == nil || deps.Profiles == nil || deps.Catalog == nil {
		return nil, errors.New("generator requires engine, repository, profiles and catalog")
	}
	clock := deps.Clock
	if clock == nil {
		clock = cache.SystemClock{}
	}
	return &Generator{
		cfg:      deps.Engine.Config(),
		engine:   deps.Engine,
		repo:     deps.Repo,
		profiles: deps.Profiles,
		catalog:  deps.Catalog,
		trending: deps.Trending,
		clock:    clock,
		logger:   logger.With().Str("component", "recommend_generator").Logger(),
	}, nil
}

// GenerateForUser recomputes the user's hybrid list, replaces their stored
// hybrid rows and drops their cached result lists. It returns rows written.
func (g *Generator) GenerateForUser(ctx context.Context, userID int) (int, error) {
	items, err := g.engine.GetRecommendations(ctx, userID, g.cfg.DefaultLimit)
	if err != nil {
		return 0, fmt.Errorf("generate for user %d: %w", userID, err)
	}

	now := g.clock.Now()
	expires := now.Add(g.cfg.UserRecommendationTTL)
	uid := userID

	recs := make([]Recommendation, 0, len(items))
	for _, it := range items {
		recs = append(recs, Recommendation{
			UserID: &uid,
			ItemID: it.Item.ID,
			Type:   TypeHybrid,
			Score:  it.Score,
			Reason: it.Reason,
			Metadata: map[string]interface{}{
				"algorithm":    HybridAlgorithm,
				"generated_at": now.UTC().Format(time.RFC3339),
			},
			CreatedAt: now,
			ExpiresAt: &expires,
		})
	}

	if err := g.repo.ReplaceForUser(ctx, userID, TypeHybrid, recs); err != nil {
		return 0, fmt.Errorf("store recommendations for user %d: %w", userID, err)
	}
	metrics.RecordRecommendationsWritten(string(TypeHybrid), len(recs))

	if err := g.engine.Invalidate(ctx, userID); err != nil {
		g.logger.Warn().Err(err).Int("user_id", userID).Msg("cache invalidation failed")
	}

	logger := logging.FromContext(ctx, g.logger)
	logger.Info().
		Int("user_id", userID).
		Int("count", len(recs)).
		Msg("generated recommendations")
	return len(recs), nil
}

// GenerateAll runs GenerateForUser for up to BatchSize active users with
// bounded parallelism. A failing user is logged and counted; it never stops
// the batch. Cancellation stops users not yet started and is returned.
func (g *Generator) GenerateAll(ctx context.Context) (BatchResult, error) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	logger := logging.FromContext(ctx, g.logger)

	users, err := g.profiles.ActiveUsers(ctx, g.cfg.BatchSize)
	if err != nil {
		return BatchResult{}, fmt.Errorf("list active users: %w", err)
	}

	var succeeded, failed, written atomic.Int64
	var eg errgroup.Group
	eg.SetLimit(g.cfg.BatchConcurrency)

	for _, userID := range users {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			n, err := g.GenerateForUser(ctx, userID)
			if err != nil {
				failed.Add(1)
				logger.Error().Err(err).Int("user_id", userID).Msg("user recommendation generation failed")
				return nil
			}
			succeeded.Add(1)
			written.Add(int64(n))
			return nil
		})
	}
	_ = eg.Wait()

	res := BatchResult{
		Users:     len(users),
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
		Written:   int(written.Load()),
	}
	metrics.RecordBatch(res.Succeeded, res.Failed)

	logger.Info().
		Int("users", res.Users).
		Int("succeeded", res.Succeeded).
		Int("failed", res.Failed).
		Int("written", res.Written).
		Msg("batch recommendation generation completed")

	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// GenerateGeneral replaces the stored non-personalized records of kind.
// Only TypeTrending and TypePopular are supported.
func (g *Generator) GenerateGeneral(ctx context.Context, kind Type) (int, error) {
	now := g.clock.Now()
	expires := now.Add(g.cfg.GeneralRecommendationTTL)

	var recs []Recommendation
	switch kind {
	case TypeTrending:
		if g.trending == nil {
			return 0, ErrNoTrendingSource
		}
		items, err := g.trending.Trending(ctx, g.cfg.GeneralLimit)
		if err != nil {
			return 0, fmt.Errorf("fetch trending: %w", err)
		}
		if len(items) > g.cfg.GeneralLimit {
			items = items[:g.cfg.GeneralLimit]
		}
		for _, it := range items {
			recs = append(recs, Recommendation{
				ItemID:    it.ID,
				Type:      TypeTrending,
				Score:     TrendingScore,
				Reason:    TrendingReason,
				Metadata:  map[string]interface{}{"source": TrendingSourceID},
				CreatedAt: now,
				ExpiresAt: &expires,
			})
		}

	case TypePopular:
		filter := g.cfg.Popularity
		filter.MinVoteCount = g.cfg.ListMinVoteCount
		items, err := g.catalog.PopularItems(ctx, filter, nil, g.cfg.GeneralLimit)
		if err != nil {
			return 0, fmt.Errorf("list popular items: %w", err)
		}
		for _, it := range items {
			recs = append(recs, Recommendation{
				ItemID:    it.ID,
				Type:      TypePopular,
				Score:     PopularityScore(it),
				Reason:    PopularReason,
				Metadata:  map[string]interface{}{"source": "catalog_popularity"},
				CreatedAt: now,
				ExpiresAt: &expires,
			})
		}

	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}

	if err := g.repo.ReplaceGeneral(ctx, kind, recs); err != nil {
		return 0, fmt.Errorf("store %s recommendations: %w", kind, err)
	}
	metrics.RecordRecommendationsWritten(string(kind), len(recs))

	g.logger.Info().Str("type", string(kind)).Int("count", len(recs)).Msg("generated general recommendations")
	return len(recs), nil
}

// CleanupExpired removes records whose expiry has passed.
func (g *Generator) CleanupExpired(ctx context.Context) (int, error) {
	n, err := g.repo.DeleteExpired(ctx, g.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("delete expired recommendations: %w", err)
	}
	metrics.RecommendationsExpired.Add(float64(n))
	g.logger.Info().Int("removed", n).Msg("expired recommendations cleaned up")
	return n, nil
}
