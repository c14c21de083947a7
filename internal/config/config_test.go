// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

const testAPIKey = "0123456789abcdef0123456789abcdef"

// validConfig returns defaults that pass validation.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.TMDb.APIKey = testAPIKey
	return cfg
}

func TestDefaultConfig_ValidWithAPIKey(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestDefaultConfig_RecommendMatchesEngineDefaults(t *testing.T) {
	cfg := defaultConfig()
	got := cfg.Recommend.EngineConfig()
	if got.MinRatingCount != 5 || got.CollaborativeWeight != 0.6 || got.ContentBasedWeight != 0.4 {
		t.Errorf("EngineConfig() = %+v, want engine defaults", got)
	}
	if got.Popularity.MinPopularity != 10 || got.Popularity.MinRating != 6.0 {
		t.Errorf("Popularity = %+v, want {10 6}", got.Popularity)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("TMDB_API_KEY", testAPIKey)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DUCKDB_PATH", ":memory:")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("RECOMMEND_MIN_RATING_COUNT", "3")
	t.Setenv("RECOMMEND_RESULT_TTL", "2m")
	t.Setenv("CORS_ORIGINS", "https://a.example.org, https://b.example.org,")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"server.port", cfg.Server.Port, 9090},
		{"database.path", cfg.Database.Path, ":memory:"},
		{"cache.backend", cfg.Cache.Backend, "redis"},
		{"cache.redis_addr", cfg.Cache.RedisAddr, "cache:6379"},
		{"recommend.min_rating_count", cfg.Recommend.MinRatingCount, 3},
		{"recommend.result_ttl", cfg.Recommend.ResultTTL, 2 * time.Minute},
		{"security.cors_origins", cfg.Security.CORSOrigins, []string{"https://a.example.org", "https://b.example.org"}},
		{"tmdb.base_url default", cfg.TMDb.BaseURL, "https://api.themoviedb.org/3"},
	}
	for _, tt := range tests {
		if !reflect.DeepEqual(tt.got, tt.want) {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoadWithKoanf_FileLayer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 7000
recommend:
  collaborative_weight: 0.7
  content_based_weight: 0.3
tmdb:
  api_key: ` + testAPIKey + `
  sync_pages: 2
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7001")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 7001 {
		t.Errorf("Server.Port = %d, want env override 7001", cfg.Server.Port)
	}
	if cfg.Recommend.CollaborativeWeight != 0.7 {
		t.Errorf("CollaborativeWeight = %v, want 0.7", cfg.Recommend.CollaborativeWeight)
	}
	if cfg.TMDb.SyncPages != 2 {
		t.Errorf("SyncPages = %d, want 2", cfg.TMDb.SyncPages)
	}
	if cfg.Recommend.MinRatingCount != 5 {
		t.Errorf("MinRatingCount = %d, want default 5", cfg.Recommend.MinRatingCount)
	}
}

func TestLoadWithKoanf_ValidationFailure(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("TMDB_API_KEY", testAPIKey)
	t.Setenv("CACHE_BACKEND", "memcached")

	_, err := LoadWithKoanf()
	if err == nil || !strings.Contains(err.Error(), "CACHE_BACKEND") {
		t.Errorf("LoadWithKoanf() error = %v, want CACHE_BACKEND validation error", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "HTTP_PORT"},
		{name: "empty db path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: "DUCKDB_PATH"},
		{name: "badger without path", mutate: func(c *Config) {
			c.Cache.Backend = "badger"
			c.Cache.BadgerPath = ""
		}, wantErr: "CACHE_BADGER_PATH"},
		{name: "tmdb without key", mutate: func(c *Config) { c.TMDb.APIKey = "" }, wantErr: "TMDB_API_KEY"},
		{name: "tmdb disabled without key", mutate: func(c *Config) {
			c.TMDb.Enabled = false
			c.TMDb.APIKey = ""
		}},
		{name: "tmdb placeholder key", mutate: func(c *Config) { c.TMDb.APIKey = "your_tmdb_api_key" }, wantErr: "placeholder"},
		{name: "bad trending window", mutate: func(c *Config) { c.TMDb.TrendingWindow = "month" }, wantErr: "TMDB_TRENDING_WINDOW"},
		{name: "unknown events backend", mutate: func(c *Config) { c.Events.Backend = "kafka" }, wantErr: "EVENTS_BACKEND"},
		{name: "nats embedded", mutate: func(c *Config) {
			c.Events.Backend = "nats"
			c.Events.NATSURL = ""
			c.Events.EmbeddedServer = true
		}},
		{name: "negative weight", mutate: func(c *Config) { c.Recommend.ContentBasedWeight = -1 }, wantErr: "recommend"},
		{name: "job interval too short", mutate: func(c *Config) { c.Jobs.Cleanup = time.Second }, wantErr: "JOB_CLEANUP"},
		{name: "job disabled", mutate: func(c *Config) { c.Jobs.CatalogSync = 0 }},
		{name: "unknown auth mode", mutate: func(c *Config) { c.Security.AuthMode = "basic" }, wantErr: "AUTH_MODE"},
		{name: "none in production", mutate: func(c *Config) { c.Server.Environment = "production" }, wantErr: "AUTH_MODE=none"},
		{name: "short jwt secret", mutate: func(c *Config) {
			c.Security.AuthMode = "jwt"
			c.Security.JWTSecret = "short"
		}, wantErr: "JWT_SECRET"},
		{name: "jwt wildcard cors in production", mutate: func(c *Config) {
			c.Server.Environment = "production"
			c.Security.AuthMode = "jwt"
			c.Security.JWTSecret = strings.Repeat("s", 40)
		}, wantErr: "CORS_ORIGINS"},
		{name: "rate limit window", mutate: func(c *Config) { c.Security.RateLimitWindow = 2 * time.Hour }, wantErr: "RATE_LIMIT_WINDOW"},
		{name: "rate limit disabled", mutate: func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, wantErr: "LOG_LEVEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"DUCKDB_PATH", "database.path"},
		{"http_port", "server.port"},
		{"RECOMMEND_CONTENT_WEIGHT", "recommend.content_based_weight"},
		{"NATS_EMBEDDED", "events.embedded_server"},
		{"PATH", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.key); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestShouldWarnAboutCORS(t *testing.T) {
	cfg := validConfig()
	if cfg.ShouldWarnAboutCORS() {
		t.Error("ShouldWarnAboutCORS() = true with auth disabled")
	}
	cfg.Security.AuthMode = "jwt"
	if !cfg.ShouldWarnAboutCORS() {
		t.Error("ShouldWarnAboutCORS() = false with jwt and wildcard origin")
	}
}
