// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package tmdb

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/marquee-app/marquee/internal/config"
	"github.com/marquee-app/marquee/internal/database"
	"github.com/marquee-app/marquee/internal/metrics"
	"github.com/marquee-app/marquee/internal/recommend"
)

// pageSize is the fixed TMDb list page size.
const pageSize = 20

// maxTrendingPages bounds how far Trending pages to satisfy a limit.
const maxTrendingPages = 10

// CatalogWriter persists fetched catalog data.
type CatalogWriter interface {
	UpsertMovies(ctx context.Context, movies []database.Movie) (int, error)
	UpsertGenres(ctx context.Context, genres []database.Genre) error
}

// Syncer copies TMDb lists into the local catalog.
type Syncer struct {
	api            API
	catalog        CatalogWriter
	trendingWindow string
	logger         zerolog.Logger
}

var _ recommend.TrendingSource = (*Syncer)(nil)

// NewSyncer creates a Syncer.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSyncer(api API, catalog CatalogWriter, cfg *config.TMDbConfig, logger zerolog.Logger) *Syncer {
	window := cfg.TrendingWindow
	if window == "" {
		window = "week"
	}
	return &Syncer{
		api:            api,
		catalog:        catalog,
		trendingWindow: window,
		logger:         logger.With().Str("component", "tmdb_syncer").Logger(),
	}
}

// SyncGenres refreshes the genre table. Returns the number of genres.
func (s *Syncer) SyncGenres(ctx context.Context) (n int, err error) {
	start := time.Now()
	defer func() { metrics.RecordCatalogSync("genres", time.Since(start), n, err) }()

	list, err := s.api.Genres(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch genres: %w", err)
	}
	if err := s.catalog.UpsertGenres(ctx, list.Genres); err != nil {
		return 0, fmt.Errorf("store genres: %w", err)
	}
	return len(list.Genres), nil
}

// SyncPopular fetches pages 1..pages of /movie/popular and upserts them.
// It stops early when TMDb reports fewer pages. Returns movies written.
func (s *Syncer) SyncPopular(ctx context.Context, pages int) (n int, err error) {
	start := time.Now()
	defer func() { metrics.RecordCatalogSync("popular", time.Since(start), n, err) }()

	var movies []database.Movie
	for page := 1; page <= pages; page++ {
		result, err := s.api.Popular(ctx, page)
		if err != nil {
			if len(movies) == 0 {
				return 0, fmt.Errorf("fetch popular page %d: %w", page, err)
			}
			s.logger.Warn().Err(err).Int("page", page).Msg("Stopping popular sync early")
			break
		}
		for i := range result.Results {
			movies = append(movies, result.Results[i].Movie())
		}
		if result.TotalPages > 0 && page >= result.TotalPages {
			break
		}
	}

	n, err = s.catalog.UpsertMovies(ctx, movies)
	if err != nil {
		return 0, fmt.Errorf("store popular movies: %w", err)
	}
	s.logger.Info().Int("movies", n).Dur("duration", time.Since(start)).Msg("Popular catalog sync complete")
	return n, nil
}

// Trending implements recommend.TrendingSource. It fetches enough trending
// pages to fill limit, upserts them and returns them in TMDb order.
func (s *Syncer) Trending(ctx context.Context, limit int) (items []recommend.Item, err error) {
	if limit <= 0 {
		return nil, nil
	}
	start := time.Now()
	defer func() { metrics.RecordCatalogSync("trending", time.Since(start), len(items), err) }()

	pages := (limit + pageSize - 1) / pageSize
	if pages > maxTrendingPages {
		pages = maxTrendingPages
	}

	seen := make(map[int]struct{})
	var movies []database.Movie
	for page := 1; page <= pages && len(movies) < limit; page++ {
		result, err := s.api.Trending(ctx, s.trendingWindow, page)
		if err != nil {
			return nil, fmt.Errorf("fetch trending page %d: %w", page, err)
		}
		for i := range result.Results {
			if _, dup := seen[result.Results[i].ID]; dup {
				continue
			}
			seen[result.Results[i].ID] = struct{}{}
			movies = append(movies, result.Results[i].Movie())
			if len(movies) == limit {
				break
			}
		}
		if result.TotalPages > 0 && page >= result.TotalPages {
			break
		}
	}

	if _, err := s.catalog.UpsertMovies(ctx, movies); err != nil {
		return nil, fmt.Errorf("store trending movies: %w", err)
	}

	items = make([]recommend.Item, len(movies))
	for i := range movies {
		items[i] = movies[i].Item()
	}
	return items, nil
}
