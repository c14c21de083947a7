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

	"github.com/go-chi/chi/v5"

	"github.com/marquee-app/marquee/internal/cache"
	"github.com/marquee-app/marquee/internal/metrics"
	"github.com/marquee-app/marquee/internal/recommend"
)

// Recommendation request outcomes recorded in metrics.
const (
	outcomeHit      = "cache_hit"
	outcomeMiss     = "computed"
	outcomeFallback = "fallback"
	outcomeError    = "error"
)

// UserRecommendations handles GET /api/v1/users/{userID}/recommendations.
// On engine failure it serves popularity results and sets metadata.fallback.
// @Summary Get hybrid recommendations
// @Description Cached hybrid list for the user. Falls back to popular movies when the engine fails; metadata.fallback is then true.
// @Tags Recommendations
// @Produce json
// @Param userID path int true "User ID"
// @Param limit query int false "Maximum items (default 20, max 100)"
// @Success 200 {object} APIResponse{data=[]recommend.ScoredItem}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Security BearerAuth
// @Router /users/{userID}/recommendations [get]
func (h *Handler) UserRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID, ok := pathID(r, "userID")
	if !ok {
		respondError(w, http.StatusBadRequest, CodeInvalidUserID, "Invalid user ID", nil)
		return
	}

	limit, err := getIntParam(r, "limit", 0)
	if err != nil || limit < 0 {
		respondError(w, http.StatusBadRequest, CodeValidation, "limit must be a non-negative integer", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	items, cached, err := h.recommender.Recommend(ctx, userID, limit)
	fallback := false
	if err != nil {
		h.logger.Warn().Err(err).Int("user_id", userID).Msg("Hybrid recommendation failed, serving popularity fallback")
		items, err = h.recommender.Fallback(ctx, userID, limit)
		if err != nil {
			metrics.RecordRecommendRequest(outcomeError)
			respondError(w, http.StatusInternalServerError, CodeRecommendation, "Failed to generate recommendations", err)
			return
		}
		fallback = true
	}

	switch {
	case fallback:
		metrics.RecordRecommendRequest(outcomeFallback)
	case cached:
		metrics.RecordRecommendRequest(outcomeHit)
	default:
		metrics.RecordRecommendRequest(outcomeMiss)
	}

	if items == nil {
		items = []recommend.ScoredItem{}
	}
	count := len(items)
	respondSuccess(w, http.StatusOK, items, Metadata{
		QueryTimeMS: time.Since(start).Milliseconds(),
		Cached:      cached,
		Fallback:    fallback,
		Count:       &count,
	})
}

// RefreshRecommendations handles POST /api/v1/users/{userID}/recommendations/refresh.
// @Summary Regenerate stored recommendations
// @Tags Recommendations
// @Produce json
// @Param userID path int true "User ID"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Security BearerAuth
// @Router /users/{userID}/recommendations/refresh [post]
func (h *Handler) RefreshRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID, ok := pathID(r, "userID")
	if !ok {
		respondError(w, http.StatusBadRequest, CodeInvalidUserID, "Invalid user ID", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	n, err := h.generator.GenerateForUser(ctx, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeRecommendation, "Failed to generate recommendations", err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"user_id":   userID,
		"generated": n,
	}, Metadata{QueryTimeMS: time.Since(start).Milliseconds()})
}

// GeneralRecommendations handles GET /api/v1/recommendations/{kind} for
// trending and popular. Stored rows win; with none stored it serves a live
// popularity list.
// @Summary Get trending or popular movies
// @Description Stored general rows when present, otherwise a live popularity list
// @Tags Recommendations
// @Produce json
// @Param kind path string true "List kind" Enums(trending, popular)
// @Param limit query int false "Maximum items"
// @Success 200 {object} APIResponse{data=[]recommend.ScoredItem}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Security BearerAuth
// @Router /recommendations/{kind} [get]
func (h *Handler) GeneralRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	kind, err := recommend.ParseType(chi.URLParam(r, "kind"))
	if err != nil || (kind != recommend.TypeTrending && kind != recommend.TypePopular) {
		respondError(w, http.StatusBadRequest, CodeUnsupported, "kind must be trending or popular", nil)
		return
	}

	limit, err := getIntParam(r, "limit", 0)
	if err != nil || limit < 0 {
		respondError(w, http.StatusBadRequest, CodeValidation, "limit must be a non-negative integer", nil)
		return
	}
	cfg := h.recommender.Config()
	limit = cfg.NormalizeLimit(limit)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	stored, err := h.store.ListGeneral(ctx, kind, limit, h.clock.Now())
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeDatabase, "Failed to load recommendations", err)
		return
	}

	var items []recommend.ScoredItem
	cached := false
	if len(stored) > 0 {
		items = storedToScored(stored)
	} else {
		items, cached, err = h.livePopular(ctx, kind, limit, cfg)
		if err != nil {
			respondError(w, http.StatusInternalServerError, CodeDatabase, "Failed to load recommendations", err)
			return
		}
	}

	if items == nil {
		items = []recommend.ScoredItem{}
	}
	count := len(items)
	respondSuccess(w, http.StatusOK, items, Metadata{
		QueryTimeMS: time.Since(start).Milliseconds(),
		Cached:      cached,
		Count:       &count,
	})
}

// livePopular lists catalog items in the store's popularity order, caching
// the list under the general result key.
//
//nolint:gocritic // hugeParam: Config is read once per request
func (h *Handler) livePopular(ctx context.Context, kind recommend.Type, limit int, cfg recommend.Config) ([]recommend.ScoredItem, bool, error) {
	key := cache.GeneralResultKey(string(kind), limit)
	useCache := h.cache != nil && cfg.ResultTTL > 0

	if useCache {
		var cached []recommend.ScoredItem
		err := cache.GetJSON(ctx, h.cache, key, &cached)
		switch {
		case err == nil:
			metrics.RecordCacheLookup("general", true)
			return cached, true, nil
		case errors.Is(err, cache.ErrNotFound):
			metrics.RecordCacheLookup("general", false)
		default:
			h.logger.Warn().Err(err).Str("key", key).Msg("General list cache read failed")
		}
	}

	filter := cfg.Popularity
	if kind == recommend.TypePopular {
		filter.MinVoteCount = cfg.ListMinVoteCount
	}
	found, err := h.store.PopularItems(ctx, filter, nil, limit)
	if err != nil {
		return nil, false, err
	}

	items := make([]recommend.ScoredItem, 0, len(found))
	for _, it := range found {
		items = append(items, recommend.ScoredItem{
			Item:   it,
			Score:  recommend.PopularityScore(it),
			Reason: recommend.PopularReason,
			Source: recommend.SourcePopularity,
		})
	}
	if useCache {
		if err := cache.SetJSON(ctx, h.cache, key, items, cfg.ResultTTL); err != nil {
			h.logger.Warn().Err(err).Str("key", key).Msg("General list cache write failed")
		}
	}
	return items, false, nil
}

// storedToScored converts repository rows, skipping rows whose movie left the catalog.
func storedToScored(recs []recommend.Recommendation) []recommend.ScoredItem {
	items := make([]recommend.ScoredItem, 0, len(recs))
	for i := range recs {
		rec := &recs[i]
		if rec.Item == nil {
			continue
		}
		items = append(items, recommend.ScoredItem{
			Item:   *rec.Item,
			Score:  rec.Score,
			Reason: rec.Reason,
			Source: string(rec.Type),
		})
	}
	return items
}
