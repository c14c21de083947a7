// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package database

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/marquee-app/marquee/internal/cache"
	"github.com/marquee-app/marquee/internal/config"
	"github.com/marquee-app/marquee/internal/recommend"
)

// testDBSemaphore serializes DuckDB test databases. Concurrent CGO
// connections from parallel tests can hang under CI resource pressure.
var testDBSemaphore = make(chan struct{}, 1)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// setupTestDB opens a fresh in-memory database with a manual clock.
func setupTestDB(t *testing.T) (*DB, *cache.ManualClock) {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 2})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})

	clock := cache.NewManualClock(testEpoch)
	db.SetClock(clock)
	return db, clock
}

func seedMovies(t *testing.T, db *DB, movies ...Movie) {
	t.Helper()
	if _, err := db.UpsertMovies(context.Background(), movies); err != nil {
		t.Fatalf("UpsertMovies() error = %v", err)
	}
}

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("New(nil) error = nil, want error")
	}
}

func TestNew_SchemaAndMigrations(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	if err := db.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	version, err := db.GetCurrentSchemaVersion(ctx)
	if err != nil {
		t.Fatalf("GetCurrentSchemaVersion() error = %v", err)
	}
	if want := len(getMigrations()); version != want {
		t.Errorf("schema version = %d, want %d", version, want)
	}

	genres, err := db.ListGenres(ctx)
	if err != nil {
		t.Fatalf("ListGenres() error = %v", err)
	}
	if len(genres) != 19 {
		t.Errorf("seeded genres = %d, want 19", len(genres))
	}

	// Re-running migrations must be a no-op.
	if err := db.runVersionedMigrations(); err != nil {
		t.Errorf("runVersionedMigrations() second run error = %v", err)
	}
}

func TestUpsertMovies(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	n, err := db.UpsertMovies(ctx, []Movie{
		{ID: 1, Title: "Old Title", GenreIDs: []int{18}, Popularity: 10},
		{ID: 2, Title: "Second", GenreIDs: []int{35, 10749}, Popularity: 20},
		{ID: 1, Title: "Arrival", GenreIDs: []int{878, 18}, Popularity: 55.5, VoteAverage: 7.6, VoteCount: 1200},
	})
	if err != nil {
		t.Fatalf("UpsertMovies() error = %v", err)
	}
	if n != 2 {
		t.Errorf("UpsertMovies() = %d, want 2", n)
	}

	got, err := db.GetMovie(ctx, 1)
	if err != nil {
		t.Fatalf("GetMovie() error = %v", err)
	}
	if got.Title != "Arrival" {
		t.Errorf("Title = %q, want last occurrence %q", got.Title, "Arrival")
	}
	if !reflect.DeepEqual(got.GenreIDs, []int{878, 18}) {
		t.Errorf("GenreIDs = %v, want [878 18]", got.GenreIDs)
	}
	if !got.CreatedAt.Equal(testEpoch) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, testEpoch)
	}

	// Refresh replaces the genre list and metadata.
	seedMovies(t, db, Movie{ID: 1, Title: "Arrival (2016)", GenreIDs: []int{9648}, Popularity: 60})
	item, err := db.Item(ctx, 1)
	if err != nil {
		t.Fatalf("Item() error = %v", err)
	}
	if item.Title != "Arrival (2016)" || item.Popularity != 60 {
		t.Errorf("Item() = %+v, want refreshed row", item)
	}
	if !reflect.DeepEqual(item.GenreIDs, []int{9648}) {
		t.Errorf("GenreIDs = %v, want [9648]", item.GenreIDs)
	}

	count, err := db.CountMovies(ctx)
	if err != nil {
		t.Fatalf("CountMovies() error = %v", err)
	}
	if count != 2 {
		t.Errorf("CountMovies() = %d, want 2", count)
	}
}

func TestCatalog_ItemLookups(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	seedMovies(t, db,
		Movie{ID: 10, Title: "A", GenreIDs: []int{28}},
		Movie{ID: 11, Title: "B"},
	)

	if _, err := db.Item(ctx, 99); !errors.Is(err, recommend.ErrNotFound) {
		t.Errorf("Item(99) error = %v, want ErrNotFound", err)
	}
	if _, err := db.GetMovie(ctx, 99); !errors.Is(err, recommend.ErrNotFound) {
		t.Errorf("GetMovie(99) error = %v, want ErrNotFound", err)
	}

	items, err := db.Items(ctx, []int{10, 11, 99})
	if err != nil {
		t.Fatalf("Items() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Items() returned %d, want 2", len(items))
	}
	if items[11].GenreIDs == nil || len(items[11].GenreIDs) != 0 {
		t.Errorf("movie without genres GenreIDs = %v, want empty slice", items[11].GenreIDs)
	}

	exists, err := db.MovieExists(ctx, 10)
	if err != nil || !exists {
		t.Errorf("MovieExists(10) = %v, %v; want true, nil", exists, err)
	}
}

func TestCatalog_ItemsByGenres(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	seedMovies(t, db,
		Movie{ID: 1, GenreIDs: []int{878}, Popularity: 50, VoteAverage: 7},
		Movie{ID: 2, GenreIDs: []int{18, 878}, Popularity: 50, VoteAverage: 8},
		Movie{ID: 3, GenreIDs: []int{35}, Popularity: 99},
		Movie{ID: 4, GenreIDs: []int{18}, Popularity: 10},
		Movie{ID: 5, GenreIDs: []int{878}, Popularity: 50, VoteAverage: 8},
	)

	tests := []struct {
		name    string
		codes   []int
		exclude map[int]struct{}
		limit   int
		want    []int
	}{
		{name: "popularity then rating then id", codes: []int{878, 18}, limit: 10, want: []int{2, 5, 1, 4}},
		{name: "exclusion", codes: []int{878, 18}, exclude: map[int]struct{}{2: {}, 4: {}}, limit: 10, want: []int{5, 1}},
		{name: "limit", codes: []int{878}, limit: 2, want: []int{2, 5}},
		{name: "no codes", codes: nil, limit: 10, want: nil},
		{name: "unknown code", codes: []int{37}, limit: 10, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := db.ItemsByGenres(ctx, tt.codes, tt.exclude, tt.limit)
			if err != nil {
				t.Fatalf("ItemsByGenres() error = %v", err)
			}
			var got []int
			for _, it := range items {
				got = append(got, it.ID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ItemsByGenres() ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCatalog_PopularItems(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	seedMovies(t, db,
		Movie{ID: 1, Popularity: 10, VoteAverage: 6.0, VoteCount: 0},
		Movie{ID: 2, Popularity: 10.5, VoteAverage: 6.1, VoteCount: 101},
		Movie{ID: 3, Popularity: 80, VoteAverage: 7.5, VoteCount: 100},
		Movie{ID: 4, Popularity: 80, VoteAverage: 8.0, VoteCount: 5000},
	)

	tests := []struct {
		name    string
		filter  recommend.PopularityFilter
		exclude map[int]struct{}
		want    []int
	}{
		{
			name:   "strict bounds",
			filter: recommend.PopularityFilter{MinPopularity: 10, MinRating: 6.0},
			want:   []int{3, 4, 2},
		},
		{
			name:   "vote bound",
			filter: recommend.PopularityFilter{MinVoteCount: 100},
			want:   []int{4, 2},
		},
		{
			name:    "exclusion",
			filter:  recommend.PopularityFilter{},
			exclude: map[int]struct{}{3: {}},
			want:    []int{4, 2, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := db.PopularItems(ctx, tt.filter, tt.exclude, 10)
			if err != nil {
				t.Fatalf("PopularItems() error = %v", err)
			}
			var got []int
			for _, it := range items {
				got = append(got, it.ID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PopularItems() ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRatings(t *testing.T) {
	db, clock := setupTestDB(t)
	ctx := context.Background()

	if err := db.SetRating(ctx, 1, 10, 5.5, ""); !errors.Is(err, ErrInvalidRating) {
		t.Errorf("SetRating(5.5) error = %v, want ErrInvalidRating", err)
	}
	if err := db.SetRating(ctx, 1, 10, 0.25, ""); !errors.Is(err, ErrInvalidRating) {
		t.Errorf("SetRating(0.25) error = %v, want ErrInvalidRating", err)
	}

	if err := db.SetRating(ctx, 1, 10, 4.0, "good"); err != nil {
		t.Fatalf("SetRating() error = %v", err)
	}
	clock.Advance(time.Hour)
	if err := db.SetRating(ctx, 1, 10, 2.5, "rewatched"); err != nil {
		t.Fatalf("SetRating() update error = %v", err)
	}
	if err := db.SetRating(ctx, 1, 11, 3.0, ""); err != nil {
		t.Fatalf("SetRating() error = %v", err)
	}
	if err := db.SetRating(ctx, 2, 10, 5.0, ""); err != nil {
		t.Fatalf("SetRating() error = %v", err)
	}

	r, err := db.GetRating(ctx, 1, 10)
	if err != nil {
		t.Fatalf("GetRating() error = %v", err)
	}
	if r.Rating != 2.5 || r.Review != "rewatched" {
		t.Errorf("GetRating() = %+v, want rating 2.5 review rewatched", r)
	}
	if !r.CreatedAt.Equal(testEpoch) || !r.UpdatedAt.Equal(testEpoch.Add(time.Hour)) {
		t.Errorf("timestamps = %v / %v, want created kept and updated advanced", r.CreatedAt, r.UpdatedAt)
	}

	count, err := db.RatingCount(ctx, 1)
	if err != nil || count != 2 {
		t.Errorf("RatingCount(1) = %d, %v; want 2, nil", count, err)
	}

	all, err := db.AllRatings(ctx)
	if err != nil {
		t.Fatalf("AllRatings() error = %v", err)
	}
	want := map[int]map[int]float64{1: {10: 2.5, 11: 3.0}, 2: {10: 5.0}}
	if !reflect.DeepEqual(all, want) {
		t.Errorf("AllRatings() = %v, want %v", all, want)
	}

	deleted, err := db.DeleteRating(ctx, 1, 10)
	if err != nil || !deleted {
		t.Errorf("DeleteRating() = %v, %v; want true, nil", deleted, err)
	}
	deleted, err = db.DeleteRating(ctx, 1, 10)
	if err != nil || deleted {
		t.Errorf("DeleteRating() again = %v, %v; want false, nil", deleted, err)
	}

	mine, err := db.UserRatings(ctx, 1)
	if err != nil {
		t.Fatalf("UserRatings() error = %v", err)
	}
	if !reflect.DeepEqual(mine, map[int]float64{11: 3.0}) {
		t.Errorf("UserRatings() = %v, want map[11:3]", mine)
	}

	users, err := db.ActiveUsers(ctx, 10)
	if err != nil {
		t.Fatalf("ActiveUsers() error = %v", err)
	}
	if !reflect.DeepEqual(users, []int{1, 2}) {
		t.Errorf("ActiveUsers() = %v, want [1 2]", users)
	}
	users, _ = db.ActiveUsers(ctx, 1)
	if !reflect.DeepEqual(users, []int{1}) {
		t.Errorf("ActiveUsers(1) = %v, want [1]", users)
	}
}

func TestFavorites(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := db.AddFavorite(ctx, 3, 42); err != nil {
			t.Fatalf("AddFavorite() error = %v", err)
		}
	}
	favs, err := db.Favorites(ctx, 3)
	if err != nil {
		t.Fatalf("Favorites() error = %v", err)
	}
	if len(favs) != 1 {
		t.Errorf("Favorites() = %v, want one entry", favs)
	}

	removed, err := db.RemoveFavorite(ctx, 3, 42)
	if err != nil || !removed {
		t.Errorf("RemoveFavorite() = %v, %v; want true, nil", removed, err)
	}
	favs, _ = db.Favorites(ctx, 3)
	if len(favs) != 0 {
		t.Errorf("Favorites() after remove = %v, want empty", favs)
	}
}

func TestUsersAndPreferences(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	if err := db.EnsureUser(ctx, 7); err != nil {
		t.Fatalf("EnsureUser() error = %v", err)
	}
	if err := db.UpsertUser(ctx, User{ID: 7, Email: "ana@example.com", Username: "ana"}); err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	if err := db.EnsureUser(ctx, 7); err != nil {
		t.Fatalf("EnsureUser() existing error = %v", err)
	}
	u, err := db.GetUser(ctx, 7)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if u.Username != "ana" {
		t.Errorf("Username = %q, want ana", u.Username)
	}
	if _, err := db.GetUser(ctx, 8); !errors.Is(err, recommend.ErrNotFound) {
		t.Errorf("GetUser(8) error = %v, want ErrNotFound", err)
	}

	if err := db.SetPreferredGenres(ctx, 7, []string{"Drama", "Science Fiction", "Drama", ""}); err != nil {
		t.Fatalf("SetPreferredGenres() error = %v", err)
	}
	got, err := db.PreferredGenres(ctx, 7)
	if err != nil {
		t.Fatalf("PreferredGenres() error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"Drama", "Science Fiction"}) {
		t.Errorf("PreferredGenres() = %v, want [Drama Science Fiction]", got)
	}

	if err := db.SetPreferredGenres(ctx, 7, []string{"Comedy"}); err != nil {
		t.Fatalf("SetPreferredGenres() replace error = %v", err)
	}
	got, _ = db.PreferredGenres(ctx, 7)
	if !reflect.DeepEqual(got, []string{"Comedy"}) {
		t.Errorf("PreferredGenres() after replace = %v, want [Comedy]", got)
	}
}

func TestInteractions(t *testing.T) {
	db, clock := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.RecordInteraction(ctx, &Interaction{UserID: 1, MovieID: 2, Type: "like"}); err == nil {
		t.Error("RecordInteraction(unknown type) error = nil, want error")
	}

	value := 4.5
	first, err := db.RecordInteraction(ctx, &Interaction{
		UserID: 1, MovieID: 2, Type: InteractionRating, Value: &value,
		Metadata: map[string]interface{}{"source": "api"},
	})
	if err != nil {
		t.Fatalf("RecordInteraction() error = %v", err)
	}
	clock.Advance(time.Minute)
	second, err := db.RecordInteraction(ctx, &Interaction{UserID: 1, MovieID: 3, Type: InteractionView})
	if err != nil {
		t.Fatalf("RecordInteraction() error = %v", err)
	}
	if second <= first {
		t.Errorf("ids = %d, %d; want increasing", first, second)
	}

	got, err := db.ListInteractions(ctx, 1, 10)
	if err != nil {
		t.Fatalf("ListInteractions() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListInteractions() len = %d, want 2", len(got))
	}
	if got[0].Type != InteractionView || got[0].Value != nil {
		t.Errorf("newest = %+v, want view without value", got[0])
	}
	if got[1].Value == nil || *got[1].Value != 4.5 {
		t.Errorf("rating value = %v, want 4.5", got[1].Value)
	}
	if got[1].Metadata["source"] != "api" {
		t.Errorf("metadata = %v, want source=api", got[1].Metadata)
	}
}

func TestRecommendations_ReplaceAndList(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	seedMovies(t, db,
		Movie{ID: 1, Title: "One", GenreIDs: []int{18}},
		Movie{ID: 2, Title: "Two"},
	)

	expires := testEpoch.Add(7 * 24 * time.Hour)
	recs := []recommend.Recommendation{
		{ItemID: 1, Score: 0.4, Reason: "a", Metadata: map[string]interface{}{"algorithm": "hybrid_engine"}, ExpiresAt: &expires},
		{ItemID: 2, Score: 0.9, Reason: "b", ExpiresAt: &expires},
		{ItemID: 1, Score: 0.1, Reason: "dup", ExpiresAt: &expires},
		{ItemID: 3, Score: 0.2, Reason: "not in catalog"},
	}
	if err := db.ReplaceForUser(ctx, 5, recommend.TypeHybrid, recs); err != nil {
		t.Fatalf("ReplaceForUser() error = %v", err)
	}

	got, err := db.ListForUser(ctx, 5, recommend.TypeHybrid, 0, testEpoch)
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	var ids []int
	for _, r := range got {
		ids = append(ids, r.ItemID)
	}
	if !reflect.DeepEqual(ids, []int{2, 1, 3}) {
		t.Fatalf("ListForUser() ids = %v, want [2 1 3]", ids)
	}
	if got[1].Reason != "a" {
		t.Errorf("duplicate kept reason %q, want first occurrence", got[1].Reason)
	}
	if got[1].Metadata["algorithm"] != "hybrid_engine" {
		t.Errorf("metadata = %v, want algorithm=hybrid_engine", got[1].Metadata)
	}
	if got[1].Item == nil || got[1].Item.Title != "One" || !reflect.DeepEqual(got[1].Item.GenreIDs, []int{18}) {
		t.Errorf("Item = %+v, want populated movie 1", got[1].Item)
	}
	if got[2].Item != nil {
		t.Errorf("Item for missing movie = %+v, want nil", got[2].Item)
	}
	if got[0].UserID == nil || *got[0].UserID != 5 {
		t.Errorf("UserID = %v, want 5", got[0].UserID)
	}

	limited, _ := db.ListForUser(ctx, 5, recommend.TypeHybrid, 1, testEpoch)
	if len(limited) != 1 || limited[0].ItemID != 2 {
		t.Errorf("ListForUser(limit 1) = %v, want item 2", limited)
	}

	// Replace swaps the whole set.
	if err := db.ReplaceForUser(ctx, 5, recommend.TypeHybrid, recs[1:2]); err != nil {
		t.Fatalf("ReplaceForUser() second error = %v", err)
	}
	got, _ = db.ListForUser(ctx, 5, recommend.TypeHybrid, 0, testEpoch)
	if len(got) != 1 {
		t.Errorf("after replace len = %d, want 1", len(got))
	}

	// Other users and general lists are untouched.
	other, _ := db.ListForUser(ctx, 6, recommend.TypeHybrid, 0, testEpoch)
	general, _ := db.ListGeneral(ctx, recommend.TypeHybrid, 0, testEpoch)
	if len(other) != 0 || len(general) != 0 {
		t.Errorf("leaked rows: user 6 = %d, general = %d", len(other), len(general))
	}
}

func TestRecommendations_GeneralAndExpiry(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	past := testEpoch.Add(-time.Second)
	future := testEpoch.Add(24 * time.Hour)
	if err := db.ReplaceGeneral(ctx, recommend.TypeTrending, []recommend.Recommendation{
		{ItemID: 1, Score: 0.9, ExpiresAt: &past},
		{ItemID: 2, Score: 0.9, ExpiresAt: &future},
		{ItemID: 3, Score: 0.9, ExpiresAt: &testEpoch},
	}); err != nil {
		t.Fatalf("ReplaceGeneral() error = %v", err)
	}
	if err := db.ReplaceForUser(ctx, 1, recommend.TypeHybrid, []recommend.Recommendation{
		{ItemID: 4, Score: 1, ExpiresAt: &past},
	}); err != nil {
		t.Fatalf("ReplaceForUser() error = %v", err)
	}

	got, err := db.ListGeneral(ctx, recommend.TypeTrending, 0, testEpoch)
	if err != nil {
		t.Fatalf("ListGeneral() error = %v", err)
	}
	var ids []int
	for _, r := range got {
		ids = append(ids, r.ItemID)
		if r.UserID != nil {
			t.Errorf("general record has user %d", *r.UserID)
		}
	}
	if !reflect.DeepEqual(ids, []int{2, 3}) {
		t.Errorf("ListGeneral() ids = %v, want [2 3]", ids)
	}

	n, err := db.DeleteExpired(ctx, testEpoch)
	if err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}
	if n != 2 {
		t.Errorf("DeleteExpired() = %d, want 2", n)
	}
	n, _ = db.DeleteExpired(ctx, testEpoch)
	if n != 0 {
		t.Errorf("DeleteExpired() second run = %d, want 0", n)
	}
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, ""},
		{1, "?"},
		{3, "?, ?, ?"},
	}
	for _, tt := range tests {
		if got := placeholders(tt.n); got != tt.want {
			t.Errorf("placeholders(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestListRatingsAndFavorites(t *testing.T) {
	db, clock := setupTestDB(t)
	ctx := context.Background()
	seedMovies(t, db,
		Movie{ID: 10, Title: "Arrival", Popularity: 50},
		Movie{ID: 11, Title: "Heat", Popularity: 40},
	)

	for _, step := range []struct {
		movie  int
		rating float64
	}{{10, 4.0}, {11, 3.5}, {99, 2.0}} {
		if err := db.SetRating(ctx, 1, step.movie, step.rating, ""); err != nil {
			t.Fatalf("SetRating(%d) error = %v", step.movie, err)
		}
		if err := db.AddFavorite(ctx, 1, step.movie); err != nil {
			t.Fatalf("AddFavorite(%d) error = %v", step.movie, err)
		}
		clock.Advance(time.Minute)
	}
	if err := db.SetRating(ctx, 2, 10, 1.0, ""); err != nil {
		t.Fatalf("SetRating() error = %v", err)
	}
	// Re-rating moves the movie to the front.
	if err := db.SetRating(ctx, 1, 10, 5.0, "again"); err != nil {
		t.Fatalf("SetRating() update error = %v", err)
	}

	ratings, err := db.ListRatings(ctx, 1, 10)
	if err != nil {
		t.Fatalf("ListRatings() error = %v", err)
	}
	var gotRatings []int
	for _, r := range ratings {
		gotRatings = append(gotRatings, r.MovieID)
	}
	if want := []int{10, 99, 11}; !reflect.DeepEqual(gotRatings, want) {
		t.Errorf("ListRatings() movies = %v, want %v", gotRatings, want)
	}
	if ratings[0].Title != "Arrival" || ratings[0].Rating != 5.0 || ratings[0].Review != "again" {
		t.Errorf("ListRatings()[0] = %+v, want Arrival rated 5 with review", ratings[0])
	}
	if ratings[1].Title != "" {
		t.Errorf("uncatalogued movie title = %q, want empty", ratings[1].Title)
	}

	limited, _ := db.ListRatings(ctx, 1, 1)
	if len(limited) != 1 {
		t.Errorf("ListRatings(limit 1) len = %d, want 1", len(limited))
	}

	favs, err := db.ListFavorites(ctx, 1, 10)
	if err != nil {
		t.Fatalf("ListFavorites() error = %v", err)
	}
	var gotFavs []int
	for _, f := range favs {
		gotFavs = append(gotFavs, f.MovieID)
	}
	if want := []int{99, 11, 10}; !reflect.DeepEqual(gotFavs, want) {
		t.Errorf("ListFavorites() movies = %v, want %v", gotFavs, want)
	}
	if favs[1].Title != "Heat" {
		t.Errorf("ListFavorites()[1].Title = %q, want Heat", favs[1].Title)
	}

	none, err := db.ListFavorites(ctx, 7, 10)
	if err != nil || len(none) != 0 {
		t.Errorf("ListFavorites(7) = %v, %v; want empty", none, err)
	}
}
