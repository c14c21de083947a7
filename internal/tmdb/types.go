// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package tmdb

import (
	"context"
	"fmt"

	"github.com/marquee-app/marquee/internal/database"
)

// MovieResult is a movie entry in TMDb list responses.
type MovieResult struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	Adult            bool    `json:"adult"`
	OriginalLanguage string  `json:"original_language"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	GenreIDs         []int   `json:"genre_ids"`
}

// Movie converts the result to a catalog row.
func (m *MovieResult) Movie() database.Movie {
	genres := m.GenreIDs
	if genres == nil {
		genres = []int{}
	}
	return database.Movie{
		ID:               m.ID,
		Title:            m.Title,
		OriginalTitle:    m.OriginalTitle,
		Overview:         m.Overview,
		ReleaseDate:      m.ReleaseDate,
		PosterPath:       m.PosterPath,
		BackdropPath:     m.BackdropPath,
		Adult:            m.Adult,
		OriginalLanguage: m.OriginalLanguage,
		Popularity:       m.Popularity,
		VoteAverage:      m.VoteAverage,
		VoteCount:        m.VoteCount,
		GenreIDs:         genres,
	}
}

// MoviePage is one page of a paginated movie list.
type MoviePage struct {
	Page         int           `json:"page"`
	Results      []MovieResult `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

// GenreList is the /genre/movie/list response.
type GenreList struct {
	Genres []database.Genre `json:"genres"`
}

// APIError is a non-2xx TMDb response.
type APIError struct {
	Endpoint      string `json:"-"`
	StatusCode    int    `json:"-"`
	StatusMessage string `json:"status_message"`
}

func (e *APIError) Error() string {
	if e.StatusMessage != "" {
		return fmt.Sprintf("tmdb %s: HTTP %d: %s", e.Endpoint, e.StatusCode, e.StatusMessage)
	}
	return fmt.Sprintf("tmdb %s: HTTP %d", e.Endpoint, e.StatusCode)
}

// Retryable reports whether the request may succeed if repeated.
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// API is the catalog API surface used by the Syncer.
type API interface {
	Trending(ctx context.Context, window string, page int) (*MoviePage, error)
	Popular(ctx context.Context, page int) (*MoviePage, error)
	Genres(ctx context.Context) (*GenreList, error)
}
