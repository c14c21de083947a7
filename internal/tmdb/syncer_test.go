// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package tmdb

import (
	"context"
	"errors"
	"testing"

	"github.com/marquee-app/marquee/internal/database"
	"github.com/marquee-app/marquee/internal/logging"
)

type fakeCatalog struct {
	movies []database.Movie
	genres []database.Genre
	err    error
}

func (f *fakeCatalog) UpsertMovies(_ context.Context, movies []database.Movie) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.movies = append(f.movies, movies...)
	return len(movies), nil
}

func (f *fakeCatalog) UpsertGenres(_ context.Context, genres []database.Genre) error {
	if f.err != nil {
		return f.err
	}
	f.genres = append(f.genres, genres...)
	return nil
}

func results(ids ...int) []MovieResult {
	out := make([]MovieResult, len(ids))
	for i, id := range ids {
		out[i] = MovieResult{ID: id, Title: "Movie", Popularity: float64(100 - i), VoteCount: 10}
	}
	return out
}

func TestSyncer_SyncGenres(t *testing.T) {
	api := &fakeAPI{genres: &GenreList{Genres: []database.Genre{{ID: 28, Name: "Action"}, {ID: 35, Name: "Comedy"}}}}
	catalog := &fakeCatalog{}
	s := NewSyncer(api, catalog, testConfig(""), logging.Nop())

	n, err := s.SyncGenres(context.Background())
	if err != nil {
		t.Fatalf("SyncGenres() error = %v", err)
	}
	if n != 2 {
		t.Errorf("SyncGenres() = %d, want 2", n)
	}
	if len(catalog.genres) != 2 {
		t.Errorf("stored genres = %d, want 2", len(catalog.genres))
	}
}

func TestSyncer_SyncPopular(t *testing.T) {
	tests := []struct {
		name      string
		pages     int
		popular   map[int]*MoviePage
		wantN     int
		wantCalls int
	}{
		{
			name:  "fetches requested pages",
			pages: 2,
			popular: map[int]*MoviePage{
				1: {Page: 1, TotalPages: 5, Results: results(1, 2, 3)},
				2: {Page: 2, TotalPages: 5, Results: results(4, 5)},
			},
			wantN:     5,
			wantCalls: 2,
		},
		{
			name:  "stops at last upstream page",
			pages: 5,
			popular: map[int]*MoviePage{
				1: {Page: 1, TotalPages: 1, Results: results(1, 2)},
			},
			wantN:     2,
			wantCalls: 1,
		},
		{
			name:      "zero pages",
			pages:     0,
			wantN:     0,
			wantCalls: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{popular: tt.popular}
			catalog := &fakeCatalog{}
			s := NewSyncer(api, catalog, testConfig(""), logging.Nop())

			n, err := s.SyncPopular(context.Background(), tt.pages)
			if err != nil {
				t.Fatalf("SyncPopular() error = %v", err)
			}
			if n != tt.wantN {
				t.Errorf("SyncPopular() = %d, want %d", n, tt.wantN)
			}
			if api.popularCalls != tt.wantCalls {
				t.Errorf("upstream calls = %d, want %d", api.popularCalls, tt.wantCalls)
			}
		})
	}
}

func TestSyncer_SyncPopular_Errors(t *testing.T) {
	upstream := &fakeAPI{err: &APIError{StatusCode: 503}}
	s := NewSyncer(upstream, &fakeCatalog{}, testConfig(""), logging.Nop())
	if _, err := s.SyncPopular(context.Background(), 3); err == nil {
		t.Error("SyncPopular() expected upstream error")
	}

	storeErr := errors.New("disk full")
	api := &fakeAPI{popular: map[int]*MoviePage{1: {Page: 1, TotalPages: 1, Results: results(1)}}}
	s = NewSyncer(api, &fakeCatalog{err: storeErr}, testConfig(""), logging.Nop())
	if _, err := s.SyncPopular(context.Background(), 1); !errors.Is(err, storeErr) {
		t.Errorf("SyncPopular() error = %v, want %v", err, storeErr)
	}
}

func TestSyncer_Trending(t *testing.T) {
	page1 := make([]int, 20)
	for i := range page1 {
		page1[i] = i + 1
	}
	api := &fakeAPI{trending: map[int]*MoviePage{
		1: {Page: 1, TotalPages: 3, Results: results(page1...)},
		// 20 repeats on page 2 and is skipped.
		2: {Page: 2, TotalPages: 3, Results: results(20, 21, 22, 23)},
	}}
	catalog := &fakeCatalog{}
	s := NewSyncer(api, catalog, testConfig(""), logging.Nop())

	items, err := s.Trending(context.Background(), 22)
	if err != nil {
		t.Fatalf("Trending() error = %v", err)
	}
	if len(items) != 22 {
		t.Fatalf("len(items) = %d, want 22", len(items))
	}
	if items[0].ID != 1 || items[21].ID != 22 {
		t.Errorf("items order = first %d last %d, want 1 and 22", items[0].ID, items[21].ID)
	}
	if api.trendingCalls != 2 {
		t.Errorf("upstream calls = %d, want 2", api.trendingCalls)
	}
	if len(catalog.movies) != 22 {
		t.Errorf("stored movies = %d, want 22", len(catalog.movies))
	}
}

func TestSyncer_TrendingLimit(t *testing.T) {
	api := &fakeAPI{trending: map[int]*MoviePage{
		1: {Page: 1, TotalPages: 1, Results: results(7, 8, 9)},
	}}
	s := NewSyncer(api, &fakeCatalog{}, testConfig(""), logging.Nop())

	items, err := s.Trending(context.Background(), 2)
	if err != nil {
		t.Fatalf("Trending() error = %v", err)
	}
	if len(items) != 2 || items[0].ID != 7 || items[1].ID != 8 {
		t.Errorf("Trending(2) = %+v, want ids [7 8]", items)
	}

	items, err = s.Trending(context.Background(), 0)
	if err != nil || items != nil {
		t.Errorf("Trending(0) = %v, %v; want nil, nil", items, err)
	}
}
