// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

/*
Package main is the entry point for the Marquee server.

Marquee keeps a local movie catalog synced from TMDb, records user ratings,
favorites and interactions, and serves hybrid recommendations (collaborative,
content based and popularity) over a JSON API.

# Application Architecture

Long-lived work runs under a suture v4 supervisor tree:

	RootSupervisor ("marquee")
	├── JobsSupervisor ("jobs-layer")
	│   ├── similarity-refresh   rebuild the user-user similarity matrix
	│   ├── catalog-sync         genres and popular pages from TMDb
	│   ├── trending-refresh     stored trending list (TMDb)
	│   ├── popular-refresh      stored popular list
	│   ├── batch-generation     hybrid rows for active users
	│   └── cleanup              delete expired recommendation rows
	├── MessagingSupervisor ("messaging-layer")
	│   └── event-listener       drops cached results on interaction events
	└── APISupervisor ("api-layer")
	    └── http-server

Startup order:

 1. Configuration: koanf (defaults, YAML file, environment)
 2. Logging: zerolog
 3. Database: DuckDB with schema migrations
 4. Cache: memory, redis or badger
 5. TMDb client behind a circuit breaker (when enabled)
 6. Recommendation engine and generator
 7. Event bus (watermill gochannel or NATS) and listener
 8. Authentication and HTTP router
 9. Supervisor tree

# Configuration

Core environment variables:

	HTTP_HOST, HTTP_PORT          listen address (default 0.0.0.0:8080)
	DUCKDB_PATH                   database file
	CACHE_BACKEND                 memory, redis or badger
	TMDB_ENABLED, TMDB_API_KEY    catalog sync
	EVENTS_BACKEND                memory or nats
	AUTH_MODE                     none or jwt (JWT_SECRET required)
	LOG_LEVEL, LOG_FORMAT         zerolog settings
	JOB_*                         job intervals; 0 disables a job

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains within
server.shutdown_timeout, jobs and the listener stop, then the event bus,
cache and database are closed in that order.
*/
package main
