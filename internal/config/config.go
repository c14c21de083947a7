// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package config

import (
	"time"

	"github.com/marquee-app/marquee/internal/recommend"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Cache     CacheConfig     `koanf:"cache"`
	TMDb      TMDbConfig      `koanf:"tmdb"`
	Events    EventsConfig    `koanf:"events"`
	Recommend RecommendConfig `koanf:"recommend"`
	Jobs      JobsConfig      `koanf:"jobs"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // "development", "staging", "production"
}

// DatabaseConfig holds DuckDB settings
type DatabaseConfig struct {
	Path         string        `koanf:"path"` // ":memory:" for an in-memory database
	MaxMemory    string        `koanf:"max_memory"`
	Threads      int           `koanf:"threads"` // 0 = use NumCPU
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// CacheConfig selects the result and similarity cache backend.
//
// Environment Variables:
//   - CACHE_BACKEND: memory, redis or badger (default: memory)
//   - CACHE_MAX_ENTRIES: memory backend capacity (default: 10000)
//   - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB: redis connection
//   - CACHE_NAMESPACE: key prefix for redis (default: marquee:)
//   - CACHE_BADGER_PATH: directory for the badger backend
type CacheConfig struct {
	Backend       string `koanf:"backend"`
	MaxEntries    int    `koanf:"max_entries"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	Namespace     string `koanf:"namespace"`
	BadgerPath    string `koanf:"badger_path"`
}

// TMDbConfig holds The Movie Database API settings.
type TMDbConfig struct {
	Enabled           bool          `koanf:"enabled"`
	APIKey            string        `koanf:"api_key"`
	BaseURL           string        `koanf:"base_url"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Timeout           time.Duration `koanf:"timeout"`
	MaxRetries        int           `koanf:"max_retries"`
	Language          string        `koanf:"language"`

	// SyncPages is the number of /movie/popular pages fetched per catalog sync.
	SyncPages int `koanf:"sync_pages"`

	// TrendingWindow is "day" or "week".
	TrendingWindow string `koanf:"trending_window"`

	// Circuit breaker tuning
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio"`
	BreakerOpenTimeout  time.Duration `koanf:"breaker_open_timeout"`
}

// EventsConfig holds the interaction event bus settings.
//
// Environment Variables:
//   - EVENTS_BACKEND: memory or nats (default: memory)
//   - NATS_URL: NATS server URL (default: nats://127.0.0.1:4222)
//   - NATS_EMBEDDED: run an embedded NATS server (default: false)
//   - NATS_EMBEDDED_PORT: embedded server port (default: 4222)
type EventsConfig struct {
	Backend        string `koanf:"backend"`
	NATSURL        string `koanf:"nats_url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	EmbeddedHost   string `koanf:"embedded_host"`
	EmbeddedPort   int    `koanf:"embedded_port"`
	BufferSize     int64  `koanf:"buffer_size"`
}

// RecommendConfig holds recommendation engine tunables.
type RecommendConfig struct {
	MinRatingCount      int     `koanf:"min_rating_count"`
	CollaborativeWeight float64 `koanf:"collaborative_weight"`
	ContentBasedWeight  float64 `koanf:"content_based_weight"`
	PopularityWeight    float64 `koanf:"popularity_weight"`
	MinSimilarity       float64 `koanf:"min_similarity"`
	MinCommonRatings    int     `koanf:"min_common_ratings"`
	HighRatingThreshold float64 `koanf:"high_rating_threshold"`
	CandidateMultiplier int     `koanf:"candidate_multiplier"`

	// Popularity fallback bounds
	MinPopularity    float64 `koanf:"min_popularity"`
	MinVoteAverage   float64 `koanf:"min_vote_average"`
	ListMinVoteCount int     `koanf:"list_min_vote_count"`

	SimilarityTTL time.Duration `koanf:"similarity_ttl"`
	ResultTTL     time.Duration `koanf:"result_ttl"`
	DefaultLimit  int           `koanf:"default_limit"`
	MaxLimit      int           `koanf:"max_limit"`

	// Batch generation
	BatchSize                int           `koanf:"batch_size"`
	BatchConcurrency         int           `koanf:"batch_concurrency"`
	UserRecommendationTTL    time.Duration `koanf:"user_recommendation_ttl"`
	GeneralRecommendationTTL time.Duration `koanf:"general_recommendation_ttl"`
	GeneralLimit             int           `koanf:"general_limit"`
}

// EngineConfig converts the section to the engine's configuration type.
func (r *RecommendConfig) EngineConfig() recommend.Config {
	return recommend.Config{
		MinRatingCount:      r.MinRatingCount,
		CollaborativeWeight: r.CollaborativeWeight,
		ContentBasedWeight:  r.ContentBasedWeight,
		PopularityWeight:    r.PopularityWeight,
		MinSimilarity:       r.MinSimilarity,
		MinCommonRatings:    r.MinCommonRatings,
		HighRatingThreshold: r.HighRatingThreshold,
		CandidateMultiplier: r.CandidateMultiplier,
		Popularity: recommend.PopularityFilter{
			MinPopularity: r.MinPopularity,
			MinRating:     r.MinVoteAverage,
		},
		ListMinVoteCount:         r.ListMinVoteCount,
		SimilarityTTL:            r.SimilarityTTL,
		ResultTTL:                r.ResultTTL,
		DefaultLimit:             r.DefaultLimit,
		MaxLimit:                 r.MaxLimit,
		BatchSize:                r.BatchSize,
		BatchConcurrency:         r.BatchConcurrency,
		UserRecommendationTTL:    r.UserRecommendationTTL,
		GeneralRecommendationTTL: r.GeneralRecommendationTTL,
		GeneralLimit:             r.GeneralLimit,
	}
}

// JobsConfig holds scheduled task intervals. A zero interval disables the job.
type JobsConfig struct {
	SimilarityRefresh time.Duration `koanf:"similarity_refresh"`
	CatalogSync       time.Duration `koanf:"catalog_sync"`
	TrendingRefresh   time.Duration `koanf:"trending_refresh"`
	PopularRefresh    time.Duration `koanf:"popular_refresh"`
	BatchGeneration   time.Duration `koanf:"batch_generation"`
	Cleanup           time.Duration `koanf:"cleanup"`

	// RunOnStart runs every enabled job once at startup.
	RunOnStart bool `koanf:"run_on_start"`

	// Timeout bounds a single job run.
	Timeout time.Duration `koanf:"timeout"`
}

// SecurityConfig holds authentication and request limiting settings
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"` // "none" or "jwt"
	JWTSecret         string        `koanf:"jwt_secret"`
	JWTIssuer         string        `koanf:"jwt_issuer"`
	JWTAudience       string        `koanf:"jwt_audience"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings for zerolog.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, the optional config file and the
// environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
