// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks the configuration after unmarshaling.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateCache,
		c.validateTMDb,
		c.validateEvents,
		c.validateRecommend,
		c.validateJobs,
		c.validateSecurity,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required (use :memory: for an in-memory database)")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be non-negative")
	}
	if c.Database.QueryTimeout < 0 {
		return fmt.Errorf("DUCKDB_QUERY_TIMEOUT must be non-negative")
	}
	return nil
}

// validCacheBackends defines the allowed cache backends
var validCacheBackends = map[string]bool{
	"memory": true,
	"redis":  true,
	"badger": true,
}

func (c *Config) validateCache() error {
	if !validCacheBackends[c.Cache.Backend] {
		return fmt.Errorf("CACHE_BACKEND must be one of: memory, redis, badger")
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND is redis")
	}
	if c.Cache.Backend == "badger" && c.Cache.BadgerPath == "" {
		return fmt.Errorf("CACHE_BADGER_PATH is required when CACHE_BACKEND is badger")
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("CACHE_MAX_ENTRIES must be non-negative")
	}
	return nil
}

func (c *Config) validateTMDb() error {
	if !c.TMDb.Enabled {
		return nil
	}
	if c.TMDb.APIKey == "" {
		return fmt.Errorf("TMDB_API_KEY is required when TMDb sync is enabled (set TMDB_ENABLED=false to disable)")
	}
	if containsPlaceholder(c.TMDb.APIKey) {
		return fmt.Errorf("TMDB_API_KEY contains a placeholder value")
	}
	if c.TMDb.RequestsPerSecond <= 0 {
		return fmt.Errorf("TMDB_REQUESTS_PER_SECOND must be positive")
	}
	if c.TMDb.Timeout <= 0 {
		return fmt.Errorf("TMDB_TIMEOUT must be positive")
	}
	if c.TMDb.MaxRetries < 1 {
		return fmt.Errorf("TMDB_MAX_RETRIES must be at least 1")
	}
	if c.TMDb.SyncPages < 1 || c.TMDb.SyncPages > 500 {
		return fmt.Errorf("TMDB_SYNC_PAGES must be between 1 and 500")
	}
	if c.TMDb.TrendingWindow != "day" && c.TMDb.TrendingWindow != "week" {
		return fmt.Errorf("TMDB_TRENDING_WINDOW must be day or week")
	}
	if c.TMDb.BreakerFailureRatio <= 0 || c.TMDb.BreakerFailureRatio > 1 {
		return fmt.Errorf("TMDB_BREAKER_FAILURE_RATIO must be in (0, 1]")
	}
	return nil
}

func (c *Config) validateEvents() error {
	switch c.Events.Backend {
	case "memory":
		return nil
	case "nats":
		if c.Events.NATSURL == "" && !c.Events.EmbeddedServer {
			return fmt.Errorf("NATS_URL is required when EVENTS_BACKEND is nats without an embedded server")
		}
		if c.Events.EmbeddedServer && (c.Events.EmbeddedPort < 1 || c.Events.EmbeddedPort > 65535) {
			return fmt.Errorf("NATS_EMBEDDED_PORT must be between 1 and 65535")
		}
		return nil
	default:
		return fmt.Errorf("EVENTS_BACKEND must be one of: memory, nats")
	}
}

func (c *Config) validateRecommend() error {
	if err := c.Recommend.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	return nil
}

func (c *Config) validateJobs() error {
	intervals := map[string]time.Duration{
		"JOB_SIMILARITY_REFRESH": c.Jobs.SimilarityRefresh,
		"JOB_CATALOG_SYNC":       c.Jobs.CatalogSync,
		"JOB_TRENDING_REFRESH":   c.Jobs.TrendingRefresh,
		"JOB_POPULAR_REFRESH":    c.Jobs.PopularRefresh,
		"JOB_BATCH_GENERATION":   c.Jobs.BatchGeneration,
		"JOB_CLEANUP":            c.Jobs.Cleanup,
	}
	for name, d := range intervals {
		if d < 0 {
			return fmt.Errorf("%s must be non-negative", name)
		}
		if d > 0 && d < time.Minute {
			return fmt.Errorf("%s must be at least 1m when enabled", name)
		}
	}
	if c.Jobs.Timeout <= 0 {
		return fmt.Errorf("JOBS_TIMEOUT must be positive")
	}
	return nil
}

// validateSecurity validates security configuration
func (c *Config) validateSecurity() error {
	if err := c.validateAuthMode(); err != nil {
		return err
	}
	if err := c.validateCORS(); err != nil {
		return err
	}
	if err := c.validateRateLimits(); err != nil {
		return err
	}
	if c.Security.AuthMode == "jwt" {
		return c.validateJWTSecret()
	}
	return nil
}

// validAuthModes defines the allowed authentication modes
var validAuthModes = map[string]bool{
	"none": true,
	"jwt":  true,
}

// validateAuthMode checks if auth mode is valid
func (c *Config) validateAuthMode() error {
	if !validAuthModes[c.Security.AuthMode] {
		return fmt.Errorf("AUTH_MODE must be one of: none, jwt")
	}
	if c.Security.AuthMode == "none" && c.IsProduction() {
		return fmt.Errorf("AUTH_MODE=none is not allowed when ENVIRONMENT=production. " +
			"Set AUTH_MODE=jwt or use ENVIRONMENT=development for testing purposes")
	}
	return nil
}

// validateCORS rejects wildcard CORS in production with authentication enabled.
func (c *Config) validateCORS() error {
	if c.Security.AuthMode != "none" && c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production with authentication enabled. " +
			"Set specific origins: CORS_ORIGINS=https://yourdomain.com")
	}
	return nil
}

// hasWildcardCORS checks if CORS is configured with wildcard origins
func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS returns true if CORS configuration has security concerns
// that should be logged at startup
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.Security.AuthMode != "none" && c.hasWildcardCORS()
}

// Rate limit constants
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// validateRateLimits validates rate limiting configuration bounds.
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// validateJWTSecret validates the JWT secret configuration
func (c *Config) validateJWTSecret() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is jwt")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters for security")
	}
	if containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value - generate a secure secret with: openssl rand -base64 32")
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// IsDevelopment returns true if the application is running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "" || env == "development" || env == "dev"
}

// placeholderMarkers are substrings found in copy-pasted example secrets.
var placeholderMarkers = []string{
	"changeme",
	"change_me",
	"replace_me",
	"your_",
	"your-",
	"example",
	"placeholder",
}

// containsPlaceholder reports whether value looks like an unedited example value.
func containsPlaceholder(value string) bool {
	lower := strings.ToLower(value)
	for _, marker := range placeholderMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
