// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

/*
Package middleware provides the infrastructure HTTP middleware shared by the
API router.

Key Components:

  - RequestID: assigns or propagates X-Request-ID and seeds the logging
    context with request and correlation ids, so logging.Ctx(ctx) lines
    from handlers, the engine and the store can be joined.
  - PrometheusMetrics: counts requests and observes latency labeled by
    the matched chi route pattern (never the raw path) and status code.

Both are plain func(http.Handler) http.Handler values and are installed with
chi's r.Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

Authentication lives in internal/auth; CORS and rate limiting are configured
in internal/api from the security config section.
*/
package middleware
