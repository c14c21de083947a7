// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package api

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/marquee-app/marquee/internal/cache"
	"github.com/marquee-app/marquee/internal/database"
	"github.com/marquee-app/marquee/internal/events"
	"github.com/marquee-app/marquee/internal/recommend"
)

// requestTimeout bounds a single handler's work.
const requestTimeout = 10 * time.Second

// Recommender serves personalized lists. Implemented by *recommend.Engine.
type Recommender interface {
	Recommend(ctx context.Context, userID, limit int) ([]recommend.ScoredItem, bool, error)
	Fallback(ctx context.Context, userID, limit int) ([]recommend.ScoredItem, error)
	Invalidate(ctx context.Context, userID int) error
	Config() recommend.Config
}

// UserGenerator rebuilds stored recommendations. Implemented by *recommend.Generator.
type UserGenerator interface {
	GenerateForUser(ctx context.Context, userID int) (int, error)
}

// Store is the persistence the handlers need. Implemented by *database.DB.
type Store interface {
	Ping(ctx context.Context) error

	EnsureUser(ctx context.Context, userID int) error
	SetPreferredGenres(ctx context.Context, userID int, genres []string) error
	PreferredGenres(ctx context.Context, userID int) ([]string, error)

	SetRating(ctx context.Context, userID, movieID int, rating float64, review string) error
	DeleteRating(ctx context.Context, userID, movieID int) (bool, error)
	AddFavorite(ctx context.Context, userID, movieID int) error
	RemoveFavorite(ctx context.Context, userID, movieID int) (bool, error)
	RecordInteraction(ctx context.Context, in *database.Interaction) (int64, error)
	ListInteractions(ctx context.Context, userID, limit int) ([]database.Interaction, error)
	ListRatings(ctx context.Context, userID, limit int) ([]database.Rating, error)
	ListFavorites(ctx context.Context, userID, limit int) ([]database.Favorite, error)

	GetMovie(ctx context.Context, id int) (database.Movie, error)
	MovieExists(ctx context.Context, id int) (bool, error)
	ListGenres(ctx context.Context) ([]database.Genre, error)
	PopularItems(ctx context.Context, filter recommend.PopularityFilter, exclude map[int]struct{}, limit int) ([]recommend.Item, error)
	ListGeneral(ctx context.Context, recType recommend.Type, limit int, now time.Time) ([]recommend.Recommendation, error)
}

// EventPublisher emits interaction events. Implemented by *events.Bus.
type EventPublisher interface {
	PublishInteraction(ctx context.Context, e *events.InteractionEvent) error
}

// HandlerDeps wires a Handler. Publisher, Cache and Clock are optional.
type HandlerDeps struct {
	Store       Store
	Recommender Recommender
	Generator   UserGenerator
	Publisher   EventPublisher
	Cache       cache.Store
	Clock       cache.Clock
}

// Handler serves the HTTP API.
type Handler struct {
	store       Store
	recommender Recommender
	generator   UserGenerator
	publisher   EventPublisher
	cache       cache.Store
	clock       cache.Clock
	logger      zerolog.Logger
	startTime   time.Time
}

// NewHandler creates a Handler.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewHandler(deps HandlerDeps, logger zerolog.Logger) (*Handler, error) {
	if deps.Store == nil {
		return nil, errors.New("api: store is required")
	}
	if deps.Recommender == nil {
		return nil, errors.New("api: recommender is required")
	}
	if deps.Generator == nil {
		return nil, errors.New("api: generator is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = cache.SystemClock{}
	}
	return &Handler{
		store:       deps.Store,
		recommender: deps.Recommender,
		generator:   deps.Generator,
		publisher:   deps.Publisher,
		cache:       deps.Cache,
		clock:       clock,
		logger:      logger.With().Str("component", "api").Logger(),
		startTime:   clock.Now(),
	}, nil
}

// recordWrite appends to the interaction log and notifies listeners. It runs
// after the primary write, so failures are logged and never fail the request.
func (h *Handler) recordWrite(ctx context.Context, userID, movieID int, typ database.InteractionType, value *float64, meta map[string]interface{}) {
	if _, err := h.store.RecordInteraction(ctx, &database.Interaction{
		UserID:   userID,
		MovieID:  movieID,
		Type:     typ,
		Value:    value,
		Metadata: meta,
	}); err != nil {
		h.logger.Warn().Err(err).Int("user_id", userID).Int("movie_id", movieID).
			Str("type", string(typ)).Msg("Failed to record interaction")
	}
	h.notify(ctx, userID, movieID, string(typ), value)
}

// notify publishes an InteractionEvent. Without a publisher, or when the
// publish fails, it drops the user's cached results directly.
func (h *Handler) notify(ctx context.Context, userID, movieID int, typ string, value *float64) {
	if h.publisher != nil {
		event := events.NewInteractionEvent(userID, movieID, typ, value, h.clock.Now())
		err := h.publisher.PublishInteraction(ctx, event)
		if err == nil {
			return
		}
		h.logger.Warn().Err(err).Int("user_id", userID).Msg("Failed to publish interaction event")
	}

	if err := h.recommender.Invalidate(ctx, userID); err != nil {
		h.logger.Warn().Err(err).Int("user_id", userID).Msg("Failed to invalidate cached recommendations")
	}
}
