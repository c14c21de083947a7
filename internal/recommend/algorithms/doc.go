// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

// Package algorithms implements the recommendation strategies combined by
// the hybrid engine in package recommend.
//
// # Strategies
//
//   - Collaborative: user-based neighborhood filtering over explicit ratings
//   - Content: genre taste profile matched against catalog genres
//   - Popularity: global popularity and rating blend, the cold-start baseline
//
// Collaborative filtering reads neighbors from a SimilarityEngine, which
// computes the user-user cosine matrix once and memoizes it in a
// cache.Store under a single global key. Concurrent misses are collapsed
// with singleflight so only one computation runs at a time.
//
// # Thread Safety
//
// Every type in this package is safe for concurrent use. Strategies hold no
// per-request state; all data is read from the injected stores.
package algorithms
