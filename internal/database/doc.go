// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

// Package database is the DuckDB-backed store for the movie catalog, user
// profiles, interactions and persisted recommendations.
//
// # Overview
//
// DB implements every storage interface consumed by package recommend:
//
//   - recommend.InteractionStore: ratings and favorites
//   - recommend.Catalog: movie metadata and candidate queries
//   - recommend.UserProfiles: preferred genres and active users
//   - recommend.RecommendationRepository: stored recommendation rows
//
// plus the writers used by the HTTP API and the catalog syncer.
//
// # Files
//
//   - database.go: lifecycle (open, pool, checkpoint, close)
//   - schema.go: table and index creation
//   - migrations.go: versioned schema migrations
//   - movies.go: catalog reads and upserts
//   - users.go: user records and preferred genres
//   - interactions.go: ratings, favorites and the interaction log
//   - recommendations.go: the recommendation repository
//
// # Timeouts and Metrics
//
// Every query runs under the configured query timeout (30s by default) unless
// the caller's context already carries a deadline, and records its duration
// through metrics.RecordDBQuery.
//
// # Testing
//
// Tests open an in-memory database (Path ":memory:").
package database
