// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

// Package recommend implements the hybrid movie recommendation engine.
//
// # Architecture
//
// Three strategies contribute candidates, each implementing Strategy:
//
//   - Collaborative: user-user cosine similarity over explicit ratings
//   - Content: genre-weighted taste profile matched against catalog genres
//   - Popularity: catalog popularity blended with average rating
//
// The Engine runs collaborative filtering only for users with at least
// MinRatingCount ratings, always runs content filtering, and pads with
// popularity when fewer than the requested number of items were produced.
// Results are merged by item (maximum score wins, the first reason seen is
// kept), sorted by score with item id as tie-break, and truncated.
//
// The strategies live in the algorithms subpackage; the engine only sees the
// Strategy interface so it can be exercised with stubs.
//
// # Storage
//
// The engine reads ratings, favorites, preferences and catalog data through
// InteractionStore, Catalog and UserProfiles. Batch output is written through
// RecommendationRepository. internal/database provides the DuckDB
// implementation; recommendtest provides an in-memory one for tests.
//
// # Caching
//
// Engine.Recommend memoizes per-user result lists in a cache.Store for
// Config.ResultTTL. The similarity matrix is cached separately by the
// algorithms package. Generator.GenerateForUser invalidates the user's cached
// lists after writing fresh rows.
//
// # Usage
//
//	engine, err := recommend.NewEngine(cfg, recommend.EngineDeps{
//	    Interactions:  db,
//	    Collaborative: algorithms.NewCollaborative(sim, db, db, logger),
//	    Content:       algorithms.NewContent(cfg, db, db, db, logger),
//	    Popularity:    algorithms.NewPopularity(cfg.Popularity, db, db),
//	    Cache:         store,
//	}, logger)
//
//	items, err := engine.GetRecommendations(ctx, userID, 20)
package recommend
