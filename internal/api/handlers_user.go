// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/marquee-app/marquee/internal/database"
)

// Bounds for the per-user list endpoints.
const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// preferencesEventType marks preference changes on the event bus. It has no
// interaction log row.
const preferencesEventType = "preferences"

// RatingRequest is the body of POST /users/{userID}/ratings.
type RatingRequest struct {
	MovieID int     `json:"movie_id" validate:"required,gt=0"`
	Rating  float64 `json:"rating" validate:"gte=0.5,lte=5,half_step"`
	Review  string  `json:"review,omitempty" validate:"max=2000"`
}

// FavoriteRequest is the body of POST /users/{userID}/favorites.
type FavoriteRequest struct {
	MovieID int `json:"movie_id" validate:"required,gt=0"`
}

// InteractionRequest is the body of POST /users/{userID}/interactions.
// MovieID may be zero for actions without a movie, such as search.
type InteractionRequest struct {
	MovieID  int                    `json:"movie_id" validate:"gte=0"`
	Type     string                 `json:"interaction_type" validate:"required,oneof=view favorite rating watchlist search click"`
	Value    *float64               `json:"value,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty" validate:"omitempty,max=20"`
}

// PreferencesRequest is the body of PUT /users/{userID}/preferences.
// An empty list clears the preferences.
type PreferencesRequest struct {
	Genres []string `json:"genres" validate:"max=20,dive,required,max=50"`
}

// decodeAndValidate reads the body into req and validates it, writing the
// error response on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := decodeJSON(w, r, req); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidation, "Invalid request body", err)
		return false
	}
	if apiErr := validateRequest(req); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return false
	}
	return true
}

// requireMovie writes 404 when movieID is not in the catalog.
func (h *Handler) requireMovie(ctx context.Context, w http.ResponseWriter, movieID int) bool {
	exists, err := h.store.MovieExists(ctx, movieID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeDatabase, "Failed to look up movie", err)
		return false
	}
	if !exists {
		respondError(w, http.StatusNotFound, CodeNotFound, "Movie not found", nil)
		return false
	}
	return true
}

// RateMovie handles POST /api/v1/users/{userID}/ratings.
// @Summary Rate a movie
// @Tags Interactions
// @Accept json
// @Produce json
// @Param userID path int true "User ID"
// @Param request body RatingRequest true "Rating on the 0.5 to 5 scale in half steps"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Security BearerAuth
// @Router /users/{userID}/ratings [post]
func (h *Handler) RateMovie(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userID")
	if !ok {
		respondError(w, http.StatusBadRequest, CodeInvalidUserID, "Invalid user ID", nil)
		return
	}

	var req RatingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if !h.requireMovie(ctx, w, req.MovieID) {
		return
	}
	if err := h.store.EnsureUser(ctx, userID); err != nil {
		respondError(w, http.StatusInternalServerError, CodeDatabase, "Failed to create user", err)
		return
	}
	if err := h.store.SetRating(ctx, userID, req.MovieID, req.Rating, req.Review); err != nil {
		respondError(w, http.StatusInternalServerError, CodeDatabase, "Failed to save rating", err)
		return
	}

	rating := req.Rating
	h.recordWrite(ctx, userID, req.MovieID, database.InteractionRating, &rating, nil)

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"user_id":  userID,
		"movie_id": req.MovieID,
		"rating":   req.Rating,
		"review":   req.Review,
	}, Metadata{})
}

// DeleteRating handles DELETE /api/v1/users/{userID}/ratings/{movieID}.
// @Summary Delete a rating
// @Tags Interactions
// @Param userID path int true "User ID"
// @Param movieID path int true "Movie ID"
// @Success 204 "No Content"
// @Failure 404 {object} APIResponse
// @Security BearerAuth
// @Router /users/{userID}/ratings/{movieID} [delete]
func (h *Handler) DeleteRating(w http.ResponseWriter, r *http.Request) {
	h.deletePair(w, r, database.InteractionRating, h.store.DeleteRating, "Rating not found")
}

// AddFavorite handles POST /api/v1/users/{userID}/favorites.
// @Summary Add a favorite
// @Tags Interactions
// @Accept json
// @Produce json
// @Param userID path int true "User ID"
// @Param request body FavoriteRequest true "Movie to favorite"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Security BearerAuth
// @Router /users/{userID}/favorites [post]
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userID")
	if !ok {
		respondError(w, http.StatusBadRequest, CodeInvalidUserID, "Invalid user ID", nil)
		return
	}

	var req FavoriteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if !h.requireMovie(ctx, w, req.MovieID) {
		return
	}
	if err := h.store.EnsureUser(ctx, userID); err != nil {
		respondError(w, http.StatusInternalServerError, CodeDatabase, "Failed to create user", err)
		return
	}
	if err := h.store.AddFavorite(ctx, userID, req.MovieID); err != nil {
		respondError(w, http.StatusInternalServerError, CodeDatabase, "Failed to save favorite", err)
		return
	}

	h.recordWrite(ctx, userID, req.MovieID, database.InteractionFavorite, nil, nil)

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"user_id":  userID,
		"movie_id": req.MovieID,
		"favorite": true,
	}, Metadata{})
}

// RemoveFavorite handles DELETE /api/v1/users/{userID}/favorites/{movieID}.
// @Summary Remove a favorite
// @Tags Interactions
// @Param userID path int true "User ID"
// @Param movieID path int true "Movie ID"
// @Success 204 "No Content"
// @Failure 404 {object} APIResponse
// @Security BearerAuth
// @Router /users/{userID}/favorites/{movieID} [delete]
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.deletePair(w, r, database.InteractionFavorite, h.store.RemoveFavorite, "Favorite not found")
}

// deletePair removes a (user, movie) rating or favorite and logs the removal.
func (h *Handler) deletePair(w http.ResponseWriter, r *http.Request, typ database.InteractionType,
	remove func(ctx context.Context, userID, movieID int) (bool, error), notFound string) {
	userID, ok := pathID(r, "userID")
	if !ok {
		respondError(w, http.StatusBadRequest, CodeInvalidUserID, "Invalid user ID", nil)
		return
	}
	movieID, ok := pathID(r, "movieID")
	if !ok {
		respondError(w, http.StatusBadRequest, CodeInvalidMovieID, "Invalid movie ID", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	deleted, err := remove(ctx, userID, movieID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeDatabase, "Failed to delete", err)
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, CodeNotFound, notFound, nil)
		return
	}

	h.recordWrite(ctx, userID, movieID, typ, nil, map[string]interface{}{"action": "removed"})
	w.WriteHeader(http.StatusNoContent)
}

// TrackInteraction handles POST /api/v1/users/{userID}/interactions.
// @Summary Log an interaction
// @Tags Interactions
// @Accept json
// @Produce json
// @Param userID path int true "User ID"
// @Param request body InteractionRequest true "Interaction to record"
// @Success 201 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Security BearerAuth
// @Router /users/{userID}/interactions [post]
func (h *Handler) TrackInteraction(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userID")
	if !ok {
		respondError(w, http.StatusBadRequest, CodeInvalidUserID, "Invalid user ID", nil)
		return
	}

	var req InteractionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.store.EnsureUser(ctx, userID); err != nil {
		respondError(w, http.StatusInternalServerError, CodeDatabase, "Failed to create user", err)
		return
	}

	id, err := h.store.RecordInteraction(ctx, &database.Interaction{
		UserID:   userID,
		MovieID:  req.MovieID,
		Type:     database.InteractionType(req.Type),
		Value:    req.Value,
		Metadata: req.Metadata,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeDatabase, "Failed to record interaction", err)
		return
	}
	h.notify(ctx, userID, req.MovieID, req.Type, req.Value)

	respondSuccess(w, http.StatusCreated, map[string]interface{}{
		"id":               id,
		"user_id":          userID,
		"movie_id":         req.MovieID,
		"interaction_type": req.Type,
	}, Metadata{})
}

// ListInteractions handles GET /api/v1/users/{userID}/interactions.
// @Summary List interactions
// @Description Newest first
// @Tags Interactions
// @Produce json
// @Param userID path int true "User ID"
// @Param limit query int false "Maximum rows (default 50, max 500)"
// @Success 200 {object} APIResponse{data=[]database.Interaction}
// @Failure 400 {object} APIResponse
// @Security BearerAuth
// @Router /users/{userID}/interactions [get]
func (h *Handler) ListInteractions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, limit, ok := userListParams(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	list, err := h.store.ListInteractions(ctx, userID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeDatabase, "Failed to load interactions", err)
		return
	}
	if list == nil {
		list = []database.Interaction{}
	}
	respondList(w, start, list, len(list))
}

// ListRatings handles GET /api/v1/users/{userID}/ratings.
// @Summary List ratings
// @Description Most recently updated first
// @Tags Interactions
// @Produce json
// @Param userID path int true "User ID"
// @Param limit query int false "Maximum rows (default 50, max 500)"
// @Success 200 {object} APIResponse{data=[]database.Rating}
// @Failure 400 {object} APIResponse
// @Security BearerAuth
// @Router /users/{userID}/ratings [get]
func (h *Handler) ListRatings(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, limit, ok := userListParams(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	list, err := h.store.ListRatings(ctx, userID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeDatabase, "Failed to load ratings", err)
		return
	}
	if list == nil {
		list = []database.Rating{}
	}
	respondList(w, start, list, len(list))
}

// ListFavorites handles GET /api/v1/users/{userID}/favorites.
// @Summary List favorites
// @Description Newest first
// @Tags Interactions
// @Produce json
// @Param userID path int true "User ID"
// @Param limit query int false "Maximum rows (default 50, max 500)"
// @Success 200 {object} APIResponse{data=[]database.Favorite}
// @Failure 400 {object} APIResponse
// @Security BearerAuth
// @Router /users/{userID}/favorites [get]
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, limit, ok := userListParams(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	list, err := h.store.ListFavorites(ctx, userID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeDatabase, "Failed to load favorites", err)
		return
	}
	if list == nil {
		list = []database.Favorite{}
	}
	respondList(w, start, list, len(list))
}

// userListParams reads {userID} and ?limit for the per-user list endpoints,
// writing the 400 response itself when either is invalid.
func userListParams(w http.ResponseWriter, r *http.Request) (userID, limit int, ok bool) {
	userID, ok = pathID(r, "userID")
	if !ok {
		respondError(w, http.StatusBadRequest, CodeInvalidUserID, "Invalid user ID", nil)
		return 0, 0, false
	}
	limit, err := getIntParam(r, "limit", defaultListLimit)
	if err != nil || limit < 1 || limit > maxListLimit {
		respondError(w, http.StatusBadRequest, CodeValidation, "limit must be between 1 and 500", nil)
		return 0, 0, false
	}
	return userID, limit, true
}

func respondList(w http.ResponseWriter, start time.Time, data interface{}, count int) {
	respondSuccess(w, http.StatusOK, data, Metadata{
		QueryTimeMS: time.Since(start).Milliseconds(),
		Count:       &count,
	})
}

// GetPreferences handles GET /api/v1/users/{userID}/preferences.
// @Summary Get preferred genres
// @Tags Preferences
// @Produce json
// @Param userID path int true "User ID"
// @Success 200 {object} APIResponse
// @Security BearerAuth
// @Router /users/{userID}/preferences [get]
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userID")
	if !ok {
		respondError(w, http.StatusBadRequest, CodeInvalidUserID, "Invalid user ID", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	genres, err := h.store.PreferredGenres(ctx, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeDatabase, "Failed to load preferences", err)
		return
	}
	if genres == nil {
		genres = []string{}
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"genres":  genres,
	}, Metadata{})
}

// SetPreferences handles PUT /api/v1/users/{userID}/preferences. Genre names
// must match the genre table.
// @Summary Replace preferred genres
// @Tags Preferences
// @Accept json
// @Produce json
// @Param userID path int true "User ID"
// @Param request body PreferencesRequest true "Genre names, an empty list clears them"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Security BearerAuth
// @Router /users/{userID}/preferences [put]
func (h *Handler) SetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userID")
	if !ok {
		respondError(w, http.StatusBadRequest, CodeInvalidUserID, "Invalid user ID", nil)
		return
	}

	var req PreferencesRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	known, err := h.store.ListGenres(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeDatabase, "Failed to load genres", err)
		return
	}
	names := make(map[string]struct{}, len(known))
	for _, g := range known {
		names[g.Name] = struct{}{}
	}
	var unknown []string
	for _, name := range req.Genres {
		if _, ok := names[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		respondErrorDetails(w, http.StatusBadRequest, CodeValidation, "Unknown genre names",
			map[string]interface{}{"unknown_genres": unknown}, nil)
		return
	}

	if err := h.store.EnsureUser(ctx, userID); err != nil {
		respondError(w, http.StatusInternalServerError, CodeDatabase, "Failed to create user", err)
		return
	}
	if err := h.store.SetPreferredGenres(ctx, userID, req.Genres); err != nil {
		respondError(w, http.StatusInternalServerError, CodeDatabase, "Failed to save preferences", err)
		return
	}
	h.notify(ctx, userID, 0, preferencesEventType, nil)

	genres := req.Genres
	if genres == nil {
		genres = []string{}
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"genres":  genres,
	}, Metadata{})
}
