// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package recommend_test

import (
	"context"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/marquee-app/marquee/internal/cache"
	"github.com/marquee-app/marquee/internal/logging"
	"github.com/marquee-app/marquee/internal/recommend"
	"github.com/marquee-app/marquee/internal/recommend/algorithms"
	"github.com/marquee-app/marquee/internal/recommend/recommendtest"
)

var genreCycle = [][]int{
	{878, 12},
	{18},
	{35, 10749},
	{28, 53},
	{27},
	{99},
}

// newWorld wires the engine with the real strategies over store.
func newWorld(t *testing.T, store *recommendtest.Store) *recommend.Engine {
	t.Helper()
	cfg := recommend.DefaultConfig()
	c := cache.NewMemoryStore(1000, cache.NewManualClock(epoch))
	sims := algorithms.NewSimilarityEngine(cfg, store, c, logging.Nop())

	engine, err := recommend.NewEngine(cfg, recommend.EngineDeps{
		Interactions:  store,
		Collaborative: algorithms.NewCollaborative(store, sims, store),
		Content:       algorithms.NewContent(cfg, store, store, store),
		Popularity:    algorithms.NewPopularity(cfg, store, store),
		Cache:         c,
	}, logging.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return engine
}

// populatedStore holds 40 popular movies and six users with overlapping
// tastes, preferences and favorites.
func populatedStore() *recommendtest.Store {
	s := recommendtest.New()
	for i := 1; i <= 40; i++ {
		s.AddItems(recommend.Item{
			ID:          i,
			Title:       "Movie",
			GenreIDs:    genreCycle[i%len(genreCycle)],
			Popularity:  float64(15 + (i*37)%120),
			VoteAverage: 6.1 + float64(i%30)/10,
			VoteCount:   200 + i,
		})
	}
	for u := 1; u <= 6; u++ {
		for k := 0; k < 8; k++ {
			item := (u*3+k*5)%40 + 1
			s.Rate(u, item, float64(1+(u+k)%5))
		}
	}
	s.SetPreferredGenres(1, "Science Fiction", "Drama")
	s.SetPreferredGenres(2, "Comedy")
	s.SetPreferredGenres(4, "Horror", "Thriller")
	s.Favorite(1, 2)
	s.Favorite(2, 33)
	s.Favorite(4, 9)
	return s
}

func TestHybrid_Properties(t *testing.T) {
	ctx := context.Background()
	store := populatedStore()
	engine := newWorld(t, store)

	for _, userID := range []int{1, 2, 3, 4, 5, 6, 99} {
		for _, limit := range []int{1, 5, 10, 20} {
			first, err := engine.GetRecommendations(ctx, userID, limit)
			if err != nil {
				t.Fatalf("user %d limit %d: GetRecommendations() error = %v", userID, limit, err)
			}
			second, err := engine.GetRecommendations(ctx, userID, limit)
			if err != nil {
				t.Fatalf("user %d limit %d: GetRecommendations() error = %v", userID, limit, err)
			}
			if !reflect.DeepEqual(first, second) {
				t.Errorf("user %d limit %d: results differ between calls", userID, limit)
			}

			if len(first) != limit {
				t.Errorf("user %d: len = %d, want %d", userID, len(first), limit)
			}

			ratings, _ := store.UserRatings(ctx, userID)
			favorites, _ := store.Favorites(ctx, userID)
			seen := make(map[int]bool)
			for i, it := range first {
				if seen[it.Item.ID] {
					t.Errorf("user %d: item %d duplicated", userID, it.Item.ID)
				}
				seen[it.Item.ID] = true
				if _, ok := ratings[it.Item.ID]; ok {
					t.Errorf("user %d: rated item %d returned", userID, it.Item.ID)
				}
				if _, ok := favorites[it.Item.ID]; ok {
					t.Errorf("user %d: favorite item %d returned", userID, it.Item.ID)
				}
				if i > 0 && first[i-1].Score < it.Score {
					t.Errorf("user %d: not sorted at %d", userID, i)
				}
			}
		}
	}
}

func TestHybrid_SizeBoundWithFewItems(t *testing.T) {
	store := recommendtest.New()
	store.AddItems(
		recommend.Item{ID: 1, Popularity: 50, VoteAverage: 7, VoteCount: 500},
		recommend.Item{ID: 2, Popularity: 40, VoteAverage: 7, VoteCount: 500},
	)
	engine := newWorld(t, store)

	got, err := engine.GetRecommendations(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestHybrid_ColdStart(t *testing.T) {
	engine := newWorld(t, populatedStore())

	got, err := engine.GetRecommendations(context.Background(), 500, 10)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if len(got) == 0 {
		t.Fatal("cold start user got no recommendations")
	}
	for _, it := range got {
		if it.Reason != recommend.PopularReason {
			t.Errorf("item %d reason = %q, want %q", it.Item.ID, it.Reason, recommend.PopularReason)
		}
	}
}

func TestHybrid_ColdStartSkipsThinlyVotedItems(t *testing.T) {
	store := recommendtest.New()
	store.AddItems(
		recommend.Item{ID: 1, Popularity: 90, VoteAverage: 7.0, VoteCount: 5000},
		recommend.Item{ID: 2, Popularity: 80, VoteAverage: 7.5, VoteCount: 101},
		recommend.Item{ID: 3, Popularity: 99, VoteAverage: 9.0, VoteCount: 20},
		recommend.Item{ID: 4, Popularity: 70, VoteAverage: 6.5, VoteCount: 100},
	)
	engine := newWorld(t, store)

	got, err := engine.GetRecommendations(context.Background(), 500, 10)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	ids := make([]int, len(got))
	for i, it := range got {
		ids[i] = it.Item.ID
	}
	if want := []int{1, 2}; !reflect.DeepEqual(ids, want) {
		t.Errorf("item ids = %v, want %v", ids, want)
	}

	fallback, err := engine.Fallback(context.Background(), 500, 10)
	if err != nil {
		t.Fatalf("Fallback() error = %v", err)
	}
	if len(fallback) != 4 || fallback[0].Item.ID != 3 {
		t.Errorf("Fallback() = %v, want all four items led by item 3", fallback)
	}
}

func TestHybrid_IdenticalNeighborPredictsItem(t *testing.T) {
	store := recommendtest.New()
	for i := 1; i <= 6; i++ {
		store.AddItems(recommend.Item{ID: i, Title: "Movie"})
	}
	base := map[int]float64{1: 5.0, 2: 4.5, 3: 4.0, 4: 5.0, 5: 3.5}
	for item, r := range base {
		store.Rate(1, item, r)
		store.Rate(2, item, r)
	}

	matrix := algorithms.ComputeSimilarity(mustRatings(t, store), 5, 0.1)
	if got := matrix.Similarity(1, 2); math.Abs(got-1.0) > epsilon {
		t.Errorf("similarity(X, Y) = %f, want 1.0", got)
	}

	store.Rate(2, 6, 5.0)
	engine := newWorld(t, store)
	got, err := engine.GetRecommendations(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if len(got) != 1 || got[0].Item.ID != 6 {
		t.Fatalf("GetRecommendations() = %v, want item 6", got)
	}
	if want := 5.0 * recommend.DefaultConfig().CollaborativeWeight; math.Abs(got[0].Score-want) > epsilon {
		t.Errorf("score = %f, want %f", got[0].Score, want)
	}
	if !strings.Contains(got[0].Reason, "(score: 5.00)") {
		t.Errorf("reason = %q, want predicted score 5.00", got[0].Reason)
	}
}

func TestHybrid_PreferredGenreOutranksPopularity(t *testing.T) {
	store := recommendtest.New()
	store.AddItems(
		recommend.Item{ID: 100, GenreIDs: []int{878}, Popularity: 90, VoteAverage: 8.0, VoteCount: 1000},
		recommend.Item{ID: 101, GenreIDs: []int{35}, Popularity: 15, VoteAverage: 6.5, VoteCount: 1000},
	)
	store.SetPreferredGenres(3, "Science Fiction")
	engine := newWorld(t, store)

	got, err := engine.GetRecommendations(context.Background(), 3, 5)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Item.ID != 100 || got[1].Item.ID != 101 {
		t.Errorf("order = %d,%d; want 100,101", got[0].Item.ID, got[1].Item.ID)
	}
	if got[0].Source != recommend.SourceContent {
		t.Errorf("top source = %q, want %q", got[0].Source, recommend.SourceContent)
	}
}

func TestHybrid_RatingGateSkipsCollaborative(t *testing.T) {
	store := populatedStore()
	cfg := recommend.DefaultConfig()
	for item := 1; item < cfg.MinRatingCount; item++ {
		store.Rate(77, item, 5.0)
	}
	engine := newWorld(t, store)

	got, err := engine.GetRecommendations(context.Background(), 77, 10)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if len(got) != 10 {
		t.Errorf("len = %d, want 10", len(got))
	}
	for _, it := range got {
		if it.Source == recommend.SourceCollaborative {
			t.Errorf("collaborative item %d for user below the rating gate", it.Item.ID)
		}
	}
}

func mustRatings(t *testing.T, s *recommendtest.Store) map[int]map[int]float64 {
	t.Helper()
	r, err := s.AllRatings(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return r
}
