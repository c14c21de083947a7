// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/marquee-app/marquee/internal/cache"
	"github.com/marquee-app/marquee/internal/config"
	"github.com/marquee-app/marquee/internal/database"
	"github.com/marquee-app/marquee/internal/recommend"
	"github.com/marquee-app/marquee/internal/recommend/algorithms"
	"github.com/marquee-app/marquee/internal/tmdb"
)

// RecommendComponents holds the recommendation pipeline.
type RecommendComponents struct {
	Similarity *algorithms.SimilarityEngine
	Engine     *recommend.Engine
	Generator  *recommend.Generator
}

// initRecommend wires the three strategies into the hybrid engine and the
// batch generator. A nil syncer leaves the generator without a trending
// source.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func initRecommend(cfg *config.Config, db *database.DB, store cache.Store, syncer *tmdb.Syncer, logger zerolog.Logger) (*RecommendComponents, error) {
	engineCfg := cfg.Recommend.EngineConfig()

	logger.Info().
		Int("min_rating_count", engineCfg.MinRatingCount).
		Float64("collaborative_weight", engineCfg.CollaborativeWeight).
		Float64("content_weight", engineCfg.ContentBasedWeight).
		Float64("popularity_weight", engineCfg.PopularityWeight).
		Msg("Initializing recommendation engine")

	similarity := algorithms.NewSimilarityEngine(engineCfg, db, store, logger)
	engine, err := recommend.NewEngine(engineCfg, recommend.EngineDeps{
		Interactions:  db,
		Collaborative: algorithms.NewCollaborative(db, similarity, db),
		Content:       algorithms.NewContent(engineCfg, db, db, db),
		Popularity:    algorithms.NewPopularity(engineCfg, db, db),
		Cache:         store,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create recommendation engine: %w", err)
	}

	deps := recommend.GeneratorDeps{
		Engine:   engine,
		Repo:     db,
		Profiles: db,
		Catalog:  db,
	}
	if syncer != nil {
		deps.Trending = syncer
	}
	generator, err := recommend.NewGenerator(deps, logger)
	if err != nil {
		return nil, fmt.Errorf("create recommendation generator: %w", err)
	}

	return &RecommendComponents{
		Similarity: similarity,
		Engine:     engine,
		Generator:  generator,
	}, nil
}

// initCatalogSync builds the TMDb client stack. It returns nil when TMDb is
// disabled.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func initCatalogSync(cfg *config.Config, db *database.DB, store cache.Store, logger zerolog.Logger) *tmdb.Syncer {
	if !cfg.TMDb.Enabled {
		logger.Info().Msg("TMDb catalog sync disabled (TMDB_ENABLED=false)")
		return nil
	}
	client := tmdb.NewClient(&cfg.TMDb, store, logger)
	breaker := tmdb.NewCircuitBreakerClient(client, &cfg.TMDb)
	logger.Info().
		Str("base_url", cfg.TMDb.BaseURL).
		Int("sync_pages", cfg.TMDb.SyncPages).
		Str("trending_window", cfg.TMDb.TrendingWindow).
		Msg("TMDb catalog sync enabled")
	return tmdb.NewSyncer(breaker, db, &cfg.TMDb, logger)
}

// cacheConfig maps the cache section onto the factory config.
func cacheConfig(cfg *config.CacheConfig) cache.Config {
	return cache.Config{
		Backend:    cfg.Backend,
		MaxEntries: cfg.MaxEntries,
		Redis: cache.RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			Namespace: cfg.Namespace,
		},
		BadgerPath: cfg.BadgerPath,
	}
}
