// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

/*
Package auth verifies bearer tokens for the HTTP API.

Key Components:

  - JWTManager: HS256 token validation with optional issuer and audience
    checks. The token subject carries the numeric user id.
  - Middleware: Authenticate stores verified Claims on the request context;
    RequireSubject rejects requests for a user other than the subject.

Authentication Modes (security.auth_mode / AUTH_MODE):

  - none: every request passes through. Rejected in production.
  - jwt: an "Authorization: Bearer <token>" header is required.

Usage Example:

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
	    return err
	}
	mw := auth.NewMiddleware(jwtManager, cfg.Security.AuthMode, writeError)
	r.Use(mw.Authenticate)
	r.With(mw.RequireSubject("userID")).Get("/users/{userID}/recommendations", h)
*/
package auth
