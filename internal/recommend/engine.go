// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/marquee-app/marquee/internal/cache"
	"github.com/marquee-app/marquee/internal/logging"
	"github.com/marquee-app/marquee/internal/metrics"
)

// EngineDeps are the collaborators of the hybrid engine.
type EngineDeps struct {
	Interactions  InteractionStore
	Collaborative Strategy
	Content       Strategy
	Popularity    Strategy

	// Cache memoizes result lists. Optional.
	Cache cache.Store
}

// Engine is the hybrid recommender. It is safe for concurrent use.
type Engine struct {
	cfg           Config
	interactions  InteractionStore
	collaborative Strategy
	content       Strategy
	popularity    Strategy
	cache         cache.Store
	logger        zerolog.Logger
}

// NewEngine validates cfg and wires the strategies.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEngine(cfg Config, deps EngineDeps, logger zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recommend config: %w", err)
	}
	if deps.Interactions == nil {
		return nil, errors.New("engine requires an interaction store")
	}
	if deps.Collaborative == nil || deps.Content == nil || deps.Popularity == nil {
		return nil, errors.New("engine requires collaborative, content and popularity strategies")
	}

	return &Engine{
		cfg:           cfg,
		interactions:  deps.Interactions,
		collaborative: deps.Collaborative,
		content:       deps.Content,
		popularity:    deps.Popularity,
		cache:         deps.Cache,
		logger:        logger.With().Str("component", "recommend").Logger(),
	}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// GetRecommendations computes a fresh hybrid list for userID.
//
// A failing strategy is logged and contributes nothing. The call fails only
// when the rating count cannot be read or every strategy that ran failed.
func (e *Engine) GetRecommendations(ctx context.Context, userID, limit int) ([]ScoredItem, error) {
	limit = e.cfg.NormalizeLimit(limit)
	logger := logging.FromContext(ctx, e.logger).With().Int("user_id", userID).Int("limit", limit).Logger()

	ratingCount, err := e.interactions.RatingCount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count ratings for user %d: %w", userID, err)
	}

	half := limit / 2
	m := newMerger()
	var ran, failed int
	var lastErr error

	if ratingCount >= e.cfg.MinRatingCount {
		ran++
		if err := e.runStrategy(ctx, logger, e.collaborative, Request{UserID: userID, Limit: half}, e.cfg.CollaborativeWeight, m); err != nil {
			failed++
			lastErr = err
		}
	}

	ran++
	if err := e.runStrategy(ctx, logger, e.content, Request{UserID: userID, Limit: half}, e.cfg.ContentBasedWeight, m); err != nil {
		failed++
		lastErr = err
	}

	if m.len() < limit {
		ran++
		req := Request{
			UserID:       userID,
			Limit:        limit - m.len(),
			Exclude:      m.ids(),
			MinVoteCount: e.cfg.ListMinVoteCount,
		}
		if err := e.runStrategy(ctx, logger, e.popularity, req, 1.0, m); err != nil {
			failed++
			lastErr = err
		}
	}

	if failed == ran {
		return nil, fmt.Errorf("%w: %w", ErrAllStrategiesFailed, lastErr)
	}

	items := m.ranked(limit)
	logger.Debug().
		Int("rating_count", ratingCount).
		Int("returned", len(items)).
		Int("failed_strategies", failed).
		Msg("hybrid recommendations computed")
	return items, nil
}

// runStrategy executes s and merges its output scaled by weight.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func (e *Engine) runStrategy(ctx context.Context, logger zerolog.Logger, s Strategy, req Request, weight float64, m *merger) error {
	start := time.Now()
	items, err := s.Recommend(ctx, req)
	metrics.RecordStrategy(s.Name(), time.Since(start), len(items), err)
	if err != nil {
		logger.Warn().Err(err).Str("strategy", s.Name()).Msg("recommendation strategy failed")
		return err
	}
	m.add(items, weight)
	return nil
}

// Recommend returns the cached hybrid list for userID, computing and storing
// it on a miss. The boolean reports a cache hit.
func (e *Engine) Recommend(ctx context.Context, userID, limit int) ([]ScoredItem, bool, error) {
	limit = e.cfg.NormalizeLimit(limit)
	key := cache.UserResultKey(userID, limit)

	if e.cache != nil && e.cfg.ResultTTL > 0 {
		var cached []ScoredItem
		err := cache.GetJSON(ctx, e.cache, key, &cached)
		switch {
		case err == nil:
			metrics.RecordCacheLookup("recommendations", true)
			return cached, true, nil
		case errors.Is(err, cache.ErrNotFound):
			metrics.RecordCacheLookup("recommendations", false)
		default:
			e.logger.Warn().Err(err).Int("user_id", userID).Msg("result cache read failed")
		}
	}

	items, err := e.GetRecommendations(ctx, userID, limit)
	if err != nil {
		return nil, false, err
	}

	if e.cache != nil && e.cfg.ResultTTL > 0 {
		if err := cache.SetJSON(ctx, e.cache, key, items, e.cfg.ResultTTL); err != nil {
			e.logger.Warn().Err(err).Int("user_id", userID).Msg("result cache write failed")
		}
	}
	return items, false, nil
}

// Fallback returns popularity results for userID in popularity order.
// Callers use it when Recommend fails.
func (e *Engine) Fallback(ctx context.Context, userID, limit int) ([]ScoredItem, error) {
	limit = e.cfg.NormalizeLimit(limit)
	items, err := e.popularity.Recommend(ctx, Request{UserID: userID, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("popularity fallback for user %d: %w", userID, err)
	}
	return items, nil
}

// Invalidate drops every cached result list for userID.
func (e *Engine) Invalidate(ctx context.Context, userID int) error {
	if e.cache == nil {
		return nil
	}
	if err := e.cache.DeletePrefix(ctx, cache.UserResultPrefix(userID)); err != nil {
		return fmt.Errorf("invalidate results for user %d: %w", userID, err)
	}
	return nil
}

// merger combines strategy outputs keyed by item id. The highest score wins;
// the reason and source of the first entry seen for an item are kept.
type merger struct {
	byID  map[int]*ScoredItem
	order []int
}

func newMerger() *merger {
	return &merger{byID: make(map[int]*ScoredItem)}
}

func (m *merger) add(items []ScoredItem, weight float64) {
	for _, it := range items {
		score := it.Score * weight
		if existing, ok := m.byID[it.Item.ID]; ok {
			if score > existing.Score {
				existing.Score = score
			}
			continue
		}
		entry := it
		entry.Score = score
		m.byID[it.Item.ID] = &entry
		m.order = append(m.order, it.Item.ID)
	}
}

func (m *merger) len() int { return len(m.byID) }

func (m *merger) ids() map[int]struct{} {
	out := make(map[int]struct{}, len(m.byID))
	for id := range m.byID {
		out[id] = struct{}{}
	}
	return out
}

func (m *merger) ranked(limit int) []ScoredItem {
	out := make([]ScoredItem, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.byID[id])
	}
	sortScored(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// sortScored orders by score desc, then item id asc.
func sortScored(items []ScoredItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Item.ID < items[j].Item.ID
	})
}
