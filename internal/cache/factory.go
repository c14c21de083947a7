// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package cache

import (
	"context"
	"fmt"
)

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

// Config selects and configures a backend.
type Config struct {
	Backend    string
	MaxEntries int
	Redis      RedisConfig
	BadgerPath string
}

// New builds the Store named by cfg.Backend. An empty backend means memory.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(cfg.MaxEntries, nil), nil
	case BackendRedis:
		return NewRedisStore(ctx, cfg.Redis)
	case BackendBadger:
		if cfg.BadgerPath == "" {
			return nil, fmt.Errorf("cache: badger backend requires a path")
		}
		return OpenBadgerStore(cfg.BadgerPath)
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", cfg.Backend)
	}
}
