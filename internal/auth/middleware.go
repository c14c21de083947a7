// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/marquee-app/marquee/internal/logging"
)

// Authentication modes.
const (
	ModeNone = "none"
	ModeJWT  = "jwt"
)

type contextKey string

// ClaimsContextKey holds the verified *Claims on the request context.
const ClaimsContextKey contextKey = "claims"

// Error codes passed to ErrorWriter.
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
)

// ErrorWriter renders an authentication failure.
type ErrorWriter func(w http.ResponseWriter, status int, code, message string)

func plainError(w http.ResponseWriter, status int, _ string, message string) {
	http.Error(w, message, status)
}

// Middleware enforces bearer token authentication.
type Middleware struct {
	jwtManager *JWTManager
	authMode   string
	writeError ErrorWriter
}

// NewMiddleware creates the authentication middleware. jwtManager may be nil
// when authMode is ModeNone. writeError may be nil for plain-text errors.
func NewMiddleware(jwtManager *JWTManager, authMode string, writeError ErrorWriter) *Middleware {
	if writeError == nil {
		writeError = plainError
	}
	return &Middleware{
		jwtManager: jwtManager,
		authMode:   authMode,
		writeError: writeError,
	}
}

// Mode returns the configured authentication mode.
func (m *Middleware) Mode() string {
	return m.authMode
}

// Authenticate verifies the bearer token and stores the claims on the context.
// It passes requests through unchanged when auth mode is none.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.authMode != ModeJWT {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			m.writeError(w, http.StatusUnauthorized, CodeUnauthorized, err.Error())
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Token validation failed")
			m.writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSubject rejects requests whose URL parameter param differs from the
// token subject. It must run after Authenticate and is a no-op in mode none.
func (m *Middleware) RequireSubject(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.authMode != ModeJWT {
				next.ServeHTTP(w, r)
				return
			}

			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				m.writeError(w, http.StatusUnauthorized, CodeUnauthorized, "missing token")
				return
			}
			subject, err := claims.UserID()
			if err != nil {
				m.writeError(w, http.StatusForbidden, CodeForbidden, err.Error())
				return
			}
			pathUser, err := strconv.Atoi(chi.URLParam(r, param))
			if err != nil || pathUser != subject {
				m.writeError(w, http.StatusForbidden, CodeForbidden, "token does not grant access to this user")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromContext returns the verified claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("missing token")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.New("invalid authorization header")
	}
	return parts[1], nil
}
