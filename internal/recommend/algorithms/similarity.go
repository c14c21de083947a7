// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package algorithms

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/marquee-app/marquee/internal/cache"
	"github.com/marquee-app/marquee/internal/metrics"
	"github.com/marquee-app/marquee/internal/recommend"
)

// Matrix maps a user id to its neighbors and their similarity. Every
// eligible user has an entry, possibly empty; ineligible users are absent.
type Matrix map[int]map[int]float64

// Neighbors returns userID's neighbors and whether the user was eligible.
func (m Matrix) Neighbors(userID int) (map[int]float64, bool) {
	n, ok := m[userID]
	return n, ok
}

// Similarity returns the stored similarity of a and b, or 0.
func (m Matrix) Similarity(a, b int) float64 {
	return m[a][b]
}

// ComputeSimilarity builds the user-user cosine matrix.
//
// Users with fewer than minCommon ratings are skipped entirely. A pair is
// scored only when it shares at least minCommon rated items; the dot
// product runs over the shared items and is divided by the norms of both
// users' full rating vectors. Scores at or below minSim are dropped.
func ComputeSimilarity(ratings map[int]map[int]float64, minCommon int, minSim float64) Matrix {
	users := make([]int, 0, len(ratings))
	for uid, r := range ratings {
		if len(r) >= minCommon {
			users = append(users, uid)
		}
	}
	sort.Ints(users)

	norms := make(map[int]float64, len(users))
	m := make(Matrix, len(users))
	for _, uid := range users {
		norms[uid] = vectorNorm(ratings[uid])
		m[uid] = make(map[int]float64)
	}

	for i, a := range users {
		for _, b := range users[i+1:] {
			sim, ok := pairSimilarity(ratings[a], ratings[b], norms[a], norms[b], minCommon)
			if !ok || sim <= minSim {
				continue
			}
			m[a][b] = sim
			m[b][a] = sim
		}
	}
	return m
}

func pairSimilarity(a, b map[int]float64, normA, normB float64, minCommon int) (float64, bool) {
	if normA == 0 || normB == 0 {
		return 0, false
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	common := 0
	for item, ra := range a {
		if rb, ok := b[item]; ok {
			dot += ra * rb
			common++
		}
	}
	if common < minCommon {
		return 0, false
	}
	return dot / (normA * normB), true
}

func vectorNorm(v map[int]float64) float64 {
	var sum float64
	for _, r := range v {
		sum += r * r
	}
	return math.Sqrt(sum)
}

// SimilarityEngine serves the similarity matrix from a cache, computing it
// from all stored ratings on a miss.
type SimilarityEngine struct {
	interactions recommend.InteractionStore
	cache        cache.Store
	ttl          time.Duration
	minCommon    int
	minSim       float64
	group        singleflight.Group
	logger       zerolog.Logger
}

// NewSimilarityEngine creates a SimilarityEngine. A nil store disables
// caching and every Matrix call recomputes.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSimilarityEngine(cfg recommend.Config, interactions recommend.InteractionStore, store cache.Store, logger zerolog.Logger) *SimilarityEngine {
	return &SimilarityEngine{
		interactions: interactions,
		cache:        store,
		ttl:          cfg.SimilarityTTL,
		minCommon:    cfg.MinCommonRatings,
		minSim:       cfg.MinSimilarity,
		logger:       logger.With().Str("component", "similarity").Logger(),
	}
}

// Matrix returns the cached matrix or computes and caches a fresh one.
func (s *SimilarityEngine) Matrix(ctx context.Context) (Matrix, error) {
	if s.cache != nil {
		var m Matrix
		err := cache.GetJSON(ctx, s.cache, cache.SimilarityMatrixKey, &m)
		switch {
		case err == nil:
			metrics.RecordCacheLookup("similarity", true)
			return m, nil
		case errors.Is(err, cache.ErrNotFound):
			metrics.RecordCacheLookup("similarity", false)
		default:
			s.logger.Warn().Err(err).Msg("similarity cache read failed")
		}
	}

	return s.shared(ctx)
}

// Refresh recomputes the matrix and overwrites the cached copy.
func (s *SimilarityEngine) Refresh(ctx context.Context) (Matrix, error) {
	return s.shared(ctx)
}

// shared joins the in-flight computation or starts one. The computation
// ignores the starting caller's cancellation; each caller stops waiting when
// its own ctx ends.
func (s *SimilarityEngine) shared(ctx context.Context) (Matrix, error) {
	ch := s.group.DoChan(cache.SimilarityMatrixKey, func() (interface{}, error) {
		return s.compute(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Matrix), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops the cached matrix.
func (s *SimilarityEngine) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, cache.SimilarityMatrixKey); err != nil {
		return fmt.Errorf("invalidate similarity matrix: %w", err)
	}
	return nil
}

func (s *SimilarityEngine) compute(ctx context.Context) (Matrix, error) {
	start := time.Now()
	ratings, err := s.interactions.AllRatings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}

	m := ComputeSimilarity(ratings, s.minCommon, s.minSim)
	elapsed := time.Since(start)
	metrics.RecordSimilarityCompute(elapsed, len(m))

	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, cache.SimilarityMatrixKey, m, s.ttl); err != nil {
			s.logger.Warn().Err(err).Msg("similarity cache write failed")
		}
	}

	s.logger.Debug().
		Int("users", len(ratings)).
		Int("eligible", len(m)).
		Dur("duration", elapsed).
		Msg("similarity matrix computed")
	return m, nil
}
