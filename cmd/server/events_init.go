// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/marquee-app/marquee/internal/cache"
	"github.com/marquee-app/marquee/internal/config"
	"github.com/marquee-app/marquee/internal/events"
)

// initEvents builds the interaction bus and a listener that invalidates
// cached results. The caller owns the bus and must Close it.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func initEvents(cfg *config.EventsConfig, store cache.Store, logger zerolog.Logger) (*events.Bus, *events.Listener, error) {
	bus, err := events.NewBus(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create event bus: %w", err)
	}

	listener := events.NewListener(bus, events.DefaultListenerConfig(), logger)
	listener.Handle("cache-invalidator", events.NewCacheInvalidator(store, logger).Handle)

	logger.Info().Str("backend", bus.Backend()).Msg("Event bus initialized")
	return bus, listener, nil
}
