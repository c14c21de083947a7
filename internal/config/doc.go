// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

/*
Package config provides centralized configuration management for Marquee.

Configuration is layered with koanf, later layers overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: $CONFIG_PATH, ./config.yaml, /etc/marquee/config.yaml
 3. Mapped environment variables

Unmapped environment variables are ignored. Slice fields accept comma
separated values from the environment.

# Configuration Structure

  - ServerConfig: HTTP listener and environment
  - DatabaseConfig: DuckDB file, memory and thread limits, query timeout
  - CacheConfig: result and similarity cache backend (memory, redis, badger)
  - TMDbConfig: catalog API credentials, rate limit and sync sizes
  - EventsConfig: interaction event bus (memory or NATS, optional embedded server)
  - RecommendConfig: engine weights, thresholds, TTLs and batch sizes
  - JobsConfig: scheduled task intervals
  - SecurityConfig: authentication mode, JWT verification, CORS, rate limiting
  - LoggingConfig: zerolog level, format and caller info

# Environment Variables

Server:
  - HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT, ENVIRONMENT

Database:
  - DUCKDB_PATH, DUCKDB_MAX_MEMORY, DUCKDB_THREADS, DUCKDB_QUERY_TIMEOUT

Cache:
  - CACHE_BACKEND, CACHE_MAX_ENTRIES, REDIS_ADDR, REDIS_PASSWORD, REDIS_DB,
    CACHE_NAMESPACE, CACHE_BADGER_PATH

TMDb:
  - TMDB_API_KEY, TMDB_BASE_URL, TMDB_REQUESTS_PER_SECOND, TMDB_TIMEOUT,
    TMDB_MAX_RETRIES, TMDB_LANGUAGE, TMDB_SYNC_PAGES, TMDB_TRENDING_WINDOW

Events:
  - EVENTS_BACKEND, NATS_URL, NATS_EMBEDDED, NATS_EMBEDDED_PORT

Recommendations:
  - RECOMMEND_MIN_RATING_COUNT, RECOMMEND_COLLABORATIVE_WEIGHT,
    RECOMMEND_CONTENT_WEIGHT, RECOMMEND_MIN_SIMILARITY, RECOMMEND_BATCH_SIZE,
    RECOMMEND_RESULT_TTL, RECOMMEND_SIMILARITY_TTL, ...

Security:
  - AUTH_MODE (none, jwt), JWT_SECRET, JWT_ISSUER, JWT_AUDIENCE, CORS_ORIGINS,
    RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
*/
package config
