// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

// Package cache provides the TTL key-value stores used to memoize the user
// similarity matrix and computed recommendation lists.
//
// Three backends implement Store:
//
//   - MemoryStore: in-process LRU with lazy expiry (default, single instance)
//   - RedisStore: shared cache for multi-instance deployments
//   - BadgerStore: embedded persistent cache that survives restarts
//
// Values are opaque bytes; GetJSON and SetJSON encode structured values with
// goccy/go-json. Expiry in MemoryStore is evaluated against an injected Clock
// so TTL behaviour is testable without sleeping.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// ErrNotFound is returned by Get when the key is missing or expired.
var ErrNotFound = errors.New("cache: key not found")

// Store is a byte-oriented TTL cache.
type Store interface {
	// Get returns ErrNotFound for missing or expired keys.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Close releases backend resources.
	Close() error
}

// Clock abstracts time for expiry checks.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// GetJSON loads key and decodes it into v.
func GetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode cached %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, data, ttl)
}
