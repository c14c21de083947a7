// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/marquee-app/marquee/internal/auth"
	"github.com/marquee-app/marquee/internal/config"
	"github.com/marquee-app/marquee/internal/middleware"
)

// Router builds the HTTP route tree.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	auth          *auth.Middleware
}

// NewRouter creates a Router. A nil authMiddleware disables authentication.
func NewRouter(handler *Handler, chiMW *ChiMiddleware, authMiddleware *auth.Middleware) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	if authMiddleware == nil {
		authMiddleware = auth.NewMiddleware(nil, auth.ModeNone, writeAuthError)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: chiMW,
		auth:          authMiddleware,
	}
}

// NewAuthMiddleware builds the authentication middleware for sec. Failures
// are written in the API envelope.
func NewAuthMiddleware(sec *config.SecurityConfig) (*auth.Middleware, error) {
	var manager *auth.JWTManager
	if sec.AuthMode == auth.ModeJWT {
		m, err := auth.NewJWTManager(sec)
		if err != nil {
			return nil, fmt.Errorf("create JWT manager: %w", err)
		}
		manager = m
	}
	return auth.NewMiddleware(manager, sec.AuthMode, writeAuthError), nil
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered
	r.Use(middleware.PrometheusMetrics)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	// Health endpoints stay unauthenticated for probes.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit("health"))
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit("api"))
		r.Use(APISecurityHeaders())
		r.Use(chimiddleware.Compress(5, "application/json"))
		r.Use(router.auth.Authenticate)

		r.Get("/genres", router.handler.ListGenres)
		r.Get("/movies/{movieID}", router.handler.GetMovie)
		r.Get("/recommendations/{kind}", router.handler.GeneralRecommendations)

		// Per-user routes. With JWT auth the token subject must match {userID}.
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Use(router.auth.RequireSubject("userID"))

			r.Get("/recommendations", router.handler.UserRecommendations)
			r.Post("/recommendations/refresh", router.handler.RefreshRecommendations)

			r.Get("/ratings", router.handler.ListRatings)
			r.Post("/ratings", router.handler.RateMovie)
			r.Delete("/ratings/{movieID}", router.handler.DeleteRating)

			r.Get("/favorites", router.handler.ListFavorites)
			r.Post("/favorites", router.handler.AddFavorite)
			r.Delete("/favorites/{movieID}", router.handler.RemoveFavorite)

			r.Get("/interactions", router.handler.ListInteractions)
			r.Post("/interactions", router.handler.TrackInteraction)

			r.Get("/preferences", router.handler.GetPreferences)
			r.Put("/preferences", router.handler.SetPreferences)
		})
	})

	return r
}
