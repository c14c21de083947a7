// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/marquee-app/marquee/internal/recommend"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/marquee/config.yaml",
	"/etc/marquee/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	engine := recommend.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
		},
		Database: DatabaseConfig{
			Path:         "/data/marquee.duckdb",
			MaxMemory:    "1GB",
			Threads:      0,
			QueryTimeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Backend:    "memory",
			MaxEntries: 10000,
			RedisAddr:  "localhost:6379",
			Namespace:  "marquee:",
			BadgerPath: "/data/cache",
		},
		TMDb: TMDbConfig{
			Enabled:             true,
			BaseURL:             "https://api.themoviedb.org/3",
			RequestsPerSecond:   4,
			Timeout:             10 * time.Second,
			MaxRetries:          3,
			Language:            "en-US",
			SyncPages:           5,
			TrendingWindow:      "week",
			BreakerMinRequests:  10,
			BreakerFailureRatio: 0.6,
			BreakerOpenTimeout:  2 * time.Minute,
		},
		Events: EventsConfig{
			Backend:      "memory",
			NATSURL:      "nats://127.0.0.1:4222",
			EmbeddedHost: "127.0.0.1",
			EmbeddedPort: 4222,
			BufferSize:   256,
		},
		Recommend: RecommendConfig{
			MinRatingCount:           engine.MinRatingCount,
			CollaborativeWeight:      engine.CollaborativeWeight,
			ContentBasedWeight:       engine.ContentBasedWeight,
			PopularityWeight:         engine.PopularityWeight,
			MinSimilarity:            engine.MinSimilarity,
			MinCommonRatings:         engine.MinCommonRatings,
			HighRatingThreshold:      engine.HighRatingThreshold,
			CandidateMultiplier:      engine.CandidateMultiplier,
			MinPopularity:            engine.Popularity.MinPopularity,
			MinVoteAverage:           engine.Popularity.MinRating,
			ListMinVoteCount:         engine.ListMinVoteCount,
			SimilarityTTL:            engine.SimilarityTTL,
			ResultTTL:                engine.ResultTTL,
			DefaultLimit:             engine.DefaultLimit,
			MaxLimit:                 engine.MaxLimit,
			BatchSize:                engine.BatchSize,
			BatchConcurrency:         engine.BatchConcurrency,
			UserRecommendationTTL:    engine.UserRecommendationTTL,
			GeneralRecommendationTTL: engine.GeneralRecommendationTTL,
			GeneralLimit:             engine.GeneralLimit,
		},
		Jobs: JobsConfig{
			SimilarityRefresh: time.Hour,
			CatalogSync:       24 * time.Hour,
			TrendingRefresh:   24 * time.Hour,
			PopularRefresh:    24 * time.Hour,
			BatchGeneration:   24 * time.Hour,
			Cleanup:           24 * time.Hour,
			RunOnStart:        false,
			Timeout:           30 * time.Minute,
		},
		Security: SecurityConfig{
			AuthMode:        "none",
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// DUCKDB_PATH -> database.path
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",

	// Database
	"duckdb_path":          "database.path",
	"duckdb_max_memory":    "database.max_memory",
	"duckdb_threads":       "database.threads",
	"duckdb_query_timeout": "database.query_timeout",

	// Cache
	"cache_backend":     "cache.backend",
	"cache_max_entries": "cache.max_entries",
	"redis_addr":        "cache.redis_addr",
	"redis_password":    "cache.redis_password",
	"redis_db":          "cache.redis_db",
	"cache_namespace":   "cache.namespace",
	"cache_badger_path": "cache.badger_path",

	// TMDb
	"tmdb_enabled":               "tmdb.enabled",
	"tmdb_api_key":               "tmdb.api_key",
	"tmdb_base_url":              "tmdb.base_url",
	"tmdb_requests_per_second":   "tmdb.requests_per_second",
	"tmdb_timeout":               "tmdb.timeout",
	"tmdb_max_retries":           "tmdb.max_retries",
	"tmdb_language":              "tmdb.language",
	"tmdb_sync_pages":            "tmdb.sync_pages",
	"tmdb_trending_window":       "tmdb.trending_window",
	"tmdb_breaker_min_requests":  "tmdb.breaker_min_requests",
	"tmdb_breaker_failure_ratio": "tmdb.breaker_failure_ratio",
	"tmdb_breaker_open_timeout":  "tmdb.breaker_open_timeout",

	// Events
	"events_backend":     "events.backend",
	"nats_url":           "events.nats_url",
	"nats_embedded":      "events.embedded_server",
	"nats_embedded_host": "events.embedded_host",
	"nats_embedded_port": "events.embedded_port",
	"events_buffer_size": "events.buffer_size",

	// Recommendations
	"recommend_min_rating_count":      "recommend.min_rating_count",
	"recommend_collaborative_weight":  "recommend.collaborative_weight",
	"recommend_content_weight":        "recommend.content_based_weight",
	"recommend_popularity_weight":     "recommend.popularity_weight",
	"recommend_min_similarity":        "recommend.min_similarity",
	"recommend_min_common_ratings":    "recommend.min_common_ratings",
	"recommend_high_rating_threshold": "recommend.high_rating_threshold",
	"recommend_candidate_multiplier":  "recommend.candidate_multiplier",
	"recommend_min_popularity":        "recommend.min_popularity",
	"recommend_min_vote_average":      "recommend.min_vote_average",
	"recommend_list_min_vote_count":   "recommend.list_min_vote_count",
	"recommend_similarity_ttl":        "recommend.similarity_ttl",
	"recommend_result_ttl":            "recommend.result_ttl",
	"recommend_default_limit":         "recommend.default_limit",
	"recommend_max_limit":             "recommend.max_limit",
	"recommend_batch_size":            "recommend.batch_size",
	"recommend_batch_concurrency":     "recommend.batch_concurrency",
	"recommend_user_ttl":              "recommend.user_recommendation_ttl",
	"recommend_general_ttl":           "recommend.general_recommendation_ttl",
	"recommend_general_limit":         "recommend.general_limit",

	// Jobs
	"job_similarity_refresh": "jobs.similarity_refresh",
	"job_catalog_sync":       "jobs.catalog_sync",
	"job_trending_refresh":   "jobs.trending_refresh",
	"job_popular_refresh":    "jobs.popular_refresh",
	"job_batch_generation":   "jobs.batch_generation",
	"job_cleanup":            "jobs.cleanup",
	"jobs_run_on_start":      "jobs.run_on_start",
	"jobs_timeout":           "jobs.timeout",

	// Security
	"auth_mode":           "security.auth_mode",
	"jwt_secret":          "security.jwt_secret",
	"jwt_issuer":          "security.jwt_issuer",
	"jwt_audience":        "security.jwt_audience",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped keys return "" and are skipped so unrelated environment
// variables never leak into the configuration.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
