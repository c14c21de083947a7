// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package events

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/marquee-app/marquee/internal/cache"
)

// CacheInvalidator drops a user's cached recommendation lists whenever the
// user interacts with the catalog.
type CacheInvalidator struct {
	store  cache.Store
	logger zerolog.Logger
}

// NewCacheInvalidator creates an invalidator over store.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewCacheInvalidator(store cache.Store, logger zerolog.Logger) *CacheInvalidator {
	return &CacheInvalidator{
		store:  store,
		logger: logger.With().Str("component", "cache_invalidator").Logger(),
	}
}

// Handle implements Handler.
func (c *CacheInvalidator) Handle(ctx context.Context, e *InteractionEvent) error {
	if err := c.store.DeletePrefix(ctx, cache.UserResultPrefix(e.UserID)); err != nil {
		return fmt.Errorf("invalidate results for user %d: %w", e.UserID, err)
	}
	c.logger.Debug().
		Int("user_id", e.UserID).
		Str("type", e.Type).
		Str("event_id", e.EventID).
		Msg("Invalidated cached recommendations")
	return nil
}
