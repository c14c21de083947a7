// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

/*
Package events carries user interaction events between the API and the
components that react to them.

# Architecture

	API write ──► Bus.PublishInteraction ──► topic "interactions.recorded"
	                                              │
	                                    watermill Router
	                                              │
	                                   CacheInvalidator.Handle
	                                              │
	                          cache.DeletePrefix(UserResultPrefix(user))

# Backends

  - memory (default): watermill gochannel, in-process only.
  - nats: watermill-nats over core NATS subjects, so several instances
    invalidate each other's caches. With events.embedded_server the process
    starts its own nats-server and connects to it.

Delivery is at-most-once on both backends. Consumers must tolerate missed
events; cached results also expire on their own TTL.
*/
package events
