// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

/*
Package api serves the HTTP API on a chi router.

Routes (all JSON, under /api/v1):

	GET    /health/live                            liveness
	GET    /health/ready                           database ping
	GET    /genres                                 genre table
	GET    /movies/{movieID}                       catalog row
	GET    /recommendations/{kind}                 trending or popular list
	GET    /users/{userID}/recommendations         hybrid list, cached
	POST   /users/{userID}/recommendations/refresh regenerate stored rows
	GET    /users/{userID}/ratings                 most recently updated first
	POST   /users/{userID}/ratings                 rate a movie
	DELETE /users/{userID}/ratings/{movieID}
	GET    /users/{userID}/favorites               newest first
	POST   /users/{userID}/favorites
	DELETE /users/{userID}/favorites/{movieID}
	GET    /users/{userID}/interactions            newest first
	POST   /users/{userID}/interactions
	GET    /users/{userID}/preferences
	PUT    /users/{userID}/preferences             preferred genre names

GET /metrics exposes Prometheus metrics. GET /swagger/* serves the Swagger UI
and doc.json.

Every response uses one envelope:

	{
	  "status": "success" | "error",
	  "data": ...,
	  "metadata": {"timestamp": ..., "query_time_ms": ..., "cached": ..., "fallback": ..., "count": ...},
	  "error": {"code": "VALIDATION_ERROR", "message": ..., "details": {...}}
	}

When the hybrid engine fails, the personalized endpoint answers 200 with
popularity results and metadata.fallback set; only a failing fallback yields
RECOMMENDATION_ERROR.

Writes (ratings, favorites, interactions, preferences) create the user row on
first contact, append to the interaction log and publish an
events.InteractionEvent. The event listener drops the user's cached results;
without a publisher the handler drops them itself.

Middleware, outermost first: request id with logging context, real IP, panic
recovery, CORS, Prometheus metrics, then per group rate limiting (httprate),
security headers, gzip and authentication. With security.auth_mode=jwt every
/users/{userID} route also requires the token subject to equal {userID}.
*/
package api
