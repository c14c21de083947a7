// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/marquee-app/marquee/internal/database"
	"github.com/marquee-app/marquee/internal/recommend"
)

// GetMovie handles GET /api/v1/movies/{movieID}.
// @Summary Get movie
// @Description Returns one catalog movie with its genre ids
// @Tags Catalog
// @Produce json
// @Param movieID path int true "TMDb movie ID"
// @Success 200 {object} APIResponse{data=database.Movie}
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Security BearerAuth
// @Router /movies/{movieID} [get]
func (h *Handler) GetMovie(w http.ResponseWriter, r *http.Request) {
	movieID, ok := pathID(r, "movieID")
	if !ok {
		respondError(w, http.StatusBadRequest, CodeInvalidMovieID, "Invalid movie ID", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	movie, err := h.store.GetMovie(ctx, movieID)
	if errors.Is(err, recommend.ErrNotFound) {
		respondError(w, http.StatusNotFound, CodeNotFound, "Movie not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeDatabase, "Failed to load movie", err)
		return
	}
	if movie.GenreIDs == nil {
		movie.GenreIDs = []int{}
	}
	respondSuccess(w, http.StatusOK, movie, Metadata{})
}

// ListGenres handles GET /api/v1/genres.
// @Summary List genres
// @Tags Catalog
// @Produce json
// @Success 200 {object} APIResponse{data=[]database.Genre}
// @Failure 500 {object} APIResponse
// @Security BearerAuth
// @Router /genres [get]
func (h *Handler) ListGenres(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	genres, err := h.store.ListGenres(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeDatabase, "Failed to load genres", err)
		return
	}
	if genres == nil {
		genres = []database.Genre{}
	}
	count := len(genres)
	respondSuccess(w, http.StatusOK, genres, Metadata{
		QueryTimeMS: time.Since(start).Milliseconds(),
		Count:       &count,
	})
}

// HealthLive handles GET /api/v1/health/live.
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} APIResponse
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(h.clock.Now().Sub(h.startTime).Seconds()),
	}, Metadata{})
}

// HealthReady handles GET /api/v1/health/ready. It reports 503 while the
// database is unreachable.
// @Summary Readiness probe
// @Description Pings the database
// @Tags Health
// @Produce json
// @Success 200 {object} APIResponse
// @Failure 503 {object} APIResponse
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, CodeUnavailable, "Database unavailable", err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"status":   "ready",
		"database": "ok",
	}, Metadata{})
}
