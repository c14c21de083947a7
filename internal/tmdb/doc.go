// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

/*
Package tmdb keeps the local movie catalog in step with The Movie Database.

# Components

  - Client: typed access to /trending/movie/{window}, /movie/popular and
    /genre/movie/list. Requests carry the api_key query parameter, pass
    through an x/time/rate limiter, time out after the configured duration
    and retry on HTTP 429 and 5xx with exponential backoff (Retry-After is
    honored). Successful responses are cached in a cache.Store.
  - CircuitBreakerClient: wraps Client with sony/gobreaker. The circuit opens
    at a 60% failure rate over at least 10 requests and probes again after
    two minutes. State is exported as circuit_breaker_* metrics.
  - Syncer: upserts fetched movies and genres into the catalog.
    Syncer.Trending implements recommend.TrendingSource.

# Usage

	api := tmdb.NewCircuitBreakerClient(tmdb.NewClient(&cfg.TMDb, store, logger), &cfg.TMDb)
	syncer := tmdb.NewSyncer(api, db, &cfg.TMDb, logger)
	n, err := syncer.SyncPopular(ctx, cfg.TMDb.SyncPages)
*/
package tmdb
