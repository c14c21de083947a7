// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package recommend_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marquee-app/marquee/internal/logging"
	"github.com/marquee-app/marquee/internal/recommend"
	"github.com/marquee-app/marquee/internal/recommend/recommendtest"
)

// failingFor wraps a strategy and fails for selected users.
type failingFor struct {
	recommend.Strategy
	users map[int]bool
}

//nolint:gocritic // hugeParam: matches recommend.Strategy
func (f failingFor) Recommend(ctx context.Context, req recommend.Request) ([]recommend.ScoredItem, error) {
	if f.users[req.UserID] {
		return nil, errors.New("injected failure")
	}
	return f.Strategy.Recommend(ctx, req)
}

func newGenerator(t *testing.T, f *engineFixture, trending recommend.TrendingSource) *recommend.Generator {
	t.Helper()
	g, err := recommend.NewGenerator(recommend.GeneratorDeps{
		Engine:   f.engine,
		Repo:     f.store,
		Profiles: f.store,
		Catalog:  f.store,
		Trending: trending,
		Clock:    f.clock,
	}, logging.Nop())
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	return g
}

func TestNewGenerator_RequiresDeps(t *testing.T) {
	if _, err := recommend.NewGenerator(recommend.GeneratorDeps{}, logging.Nop()); err == nil {
		t.Error("NewGenerator() error = nil, want error")
	}
}

func TestGenerator_GenerateForUser(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, recommend.DefaultConfig())
	f.pop.items = []recommend.ScoredItem{
		scored(1, 0.8, recommend.PopularReason, recommend.SourcePopularity),
		scored(2, 0.6, recommend.PopularReason, recommend.SourcePopularity),
	}
	g := newGenerator(t, f, nil)

	// Existing hybrid rows for the user are replaced; other rows survive.
	uid, other := 7, 8
	if err := f.store.ReplaceForUser(ctx, uid, recommend.TypeHybrid, []recommend.Recommendation{
		{UserID: &uid, ItemID: 99, Type: recommend.TypeHybrid, Score: 1},
	}); err != nil {
		t.Fatal(err)
	}
	if err := f.store.ReplaceForUser(ctx, other, recommend.TypeHybrid, []recommend.Recommendation{
		{UserID: &other, ItemID: 99, Type: recommend.TypeHybrid, Score: 1},
	}); err != nil {
		t.Fatal(err)
	}

	// Warm the result cache so invalidation can be observed.
	if _, _, err := f.engine.Recommend(ctx, uid, 5); err != nil {
		t.Fatal(err)
	}

	n, err := g.GenerateForUser(ctx, uid)
	if err != nil {
		t.Fatalf("GenerateForUser() error = %v", err)
	}
	if n != 2 {
		t.Errorf("GenerateForUser() = %d, want 2", n)
	}

	rows, err := f.store.ListForUser(ctx, uid, recommend.TypeHybrid, 10, f.clock.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("stored rows = %d, want 2", len(rows))
	}
	for _, r := range rows {
		if r.ItemID == 99 {
			t.Error("stale row for item 99 survived")
		}
		if r.ExpiresAt == nil || !r.ExpiresAt.Equal(epoch.Add(7*24*time.Hour)) {
			t.Errorf("ExpiresAt = %v, want %v", r.ExpiresAt, epoch.Add(7*24*time.Hour))
		}
		if r.Metadata["algorithm"] != "hybrid_engine" {
			t.Errorf("Metadata[algorithm] = %v, want hybrid_engine", r.Metadata["algorithm"])
		}
		if r.Metadata["generated_at"] != epoch.Format(time.RFC3339) {
			t.Errorf("Metadata[generated_at] = %v, want %s", r.Metadata["generated_at"], epoch.Format(time.RFC3339))
		}
	}

	others, _ := f.store.ListForUser(ctx, other, recommend.TypeHybrid, 10, f.clock.Now())
	if len(others) != 1 {
		t.Errorf("other user's rows = %d, want 1", len(others))
	}

	calls := f.pop.calls()
	if _, cached, _ := f.engine.Recommend(ctx, uid, 5); cached {
		t.Error("Recommend() after GenerateForUser cached = true, want false")
	}
	if f.pop.calls() != calls+1 {
		t.Errorf("popularity calls = %d, want %d", f.pop.calls(), calls+1)
	}
}

func TestGenerator_GenerateForUserFailure(t *testing.T) {
	f := newEngineFixture(t, recommend.DefaultConfig())
	f.cont.err = errors.New("b")
	f.pop.err = errors.New("c")
	g := newGenerator(t, f, nil)

	if _, err := g.GenerateForUser(context.Background(), 1); !errors.Is(err, recommend.ErrAllStrategiesFailed) {
		t.Errorf("GenerateForUser() error = %v, want ErrAllStrategiesFailed", err)
	}

	f.pop.err = nil
	f.store.Errs.Replace = errors.New("db down")
	if _, err := g.GenerateForUser(context.Background(), 1); err == nil {
		t.Error("GenerateForUser() error = nil, want store error")
	}
}

func TestGenerator_GenerateAllIsolatesFailures(t *testing.T) {
	ctx := context.Background()
	store := recommendtest.New()
	for u := 1; u <= 5; u++ {
		store.Rate(u, 1000, 3.0)
	}

	pop := &stubStrategy{
		name:  recommend.SourcePopularity,
		items: []recommend.ScoredItem{scored(1, 0.8, recommend.PopularReason, recommend.SourcePopularity)},
	}
	engine, err := recommend.NewEngine(recommend.DefaultConfig(), recommend.EngineDeps{
		Interactions:  store,
		Collaborative: &stubStrategy{name: recommend.SourceCollaborative},
		Content:       failingFor{Strategy: &stubStrategy{name: recommend.SourceContent}, users: map[int]bool{2: true, 4: true}},
		Popularity:    failingFor{Strategy: pop, users: map[int]bool{2: true, 4: true}},
	}, logging.Nop())
	if err != nil {
		t.Fatal(err)
	}
	g, err := recommend.NewGenerator(recommend.GeneratorDeps{
		Engine: engine, Repo: store, Profiles: store, Catalog: store,
	}, logging.Nop())
	if err != nil {
		t.Fatal(err)
	}

	res, err := g.GenerateAll(ctx)
	if err != nil {
		t.Fatalf("GenerateAll() error = %v", err)
	}
	want := recommend.BatchResult{Users: 5, Succeeded: 3, Failed: 2, Written: 3}
	if res != want {
		t.Errorf("GenerateAll() = %+v, want %+v", res, want)
	}

	written := map[int]bool{}
	for _, r := range store.Records() {
		written[*r.UserID] = true
	}
	for u := 1; u <= 5; u++ {
		if failed := u == 2 || u == 4; written[u] == failed {
			t.Errorf("user %d written = %v, want %v", u, written[u], !failed)
		}
	}
}

func TestGenerator_GenerateAllCanceled(t *testing.T) {
	f := newEngineFixture(t, recommend.DefaultConfig())
	f.rateN(1, 1)
	g := newGenerator(t, f, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := g.GenerateAll(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("GenerateAll() error = %v, want context.Canceled", err)
	}
	if res.Succeeded != 0 {
		t.Errorf("Succeeded = %d, want 0", res.Succeeded)
	}
}

func TestGenerator_GenerateAllActiveUsersError(t *testing.T) {
	f := newEngineFixture(t, recommend.DefaultConfig())
	f.store.Errs.ActiveUsers = errors.New("db down")
	g := newGenerator(t, f, nil)
	if _, err := g.GenerateAll(context.Background()); err == nil {
		t.Error("GenerateAll() error = nil, want error")
	}
}

func TestGenerator_GenerateGeneral(t *testing.T) {
	trendingItems := make([]recommend.Item, 25)
	for i := range trendingItems {
		trendingItems[i] = recommend.Item{ID: 500 + i}
	}

	tests := []struct {
		name     string
		kind     recommend.Type
		trending recommend.TrendingSource
		setup    func(f *engineFixture)
		verify   func(t *testing.T, f *engineFixture, n int, err error)
	}{
		{
			name:     "trending stores at most twenty rows",
			kind:     recommend.TypeTrending,
			trending: &recommendtest.Trending{Items: trendingItems},
			verify: func(t *testing.T, f *engineFixture, n int, err error) {
				if err != nil {
					t.Fatalf("GenerateGeneral() error = %v", err)
				}
				if n != 20 {
					t.Errorf("GenerateGeneral() = %d, want 20", n)
				}
				rows, _ := f.store.ListGeneral(context.Background(), recommend.TypeTrending, 100, f.clock.Now())
				if len(rows) != 20 {
					t.Fatalf("stored = %d, want 20", len(rows))
				}
				for _, r := range rows {
					if r.UserID != nil {
						t.Error("general row has a user")
					}
					if r.Score != 0.9 || r.Reason != "Currently trending on TMDb" {
						t.Errorf("row = (%f, %q), want (0.9, Currently trending on TMDb)", r.Score, r.Reason)
					}
					if r.Metadata["source"] != "tmdb_trending" {
						t.Errorf("Metadata[source] = %v, want tmdb_trending", r.Metadata["source"])
					}
					if !r.ExpiresAt.Equal(epoch.Add(24 * time.Hour)) {
						t.Errorf("ExpiresAt = %v, want +24h", r.ExpiresAt)
					}
				}
			},
		},
		{
			name: "trending without a source",
			kind: recommend.TypeTrending,
			verify: func(t *testing.T, f *engineFixture, n int, err error) {
				if !errors.Is(err, recommend.ErrNoTrendingSource) {
					t.Errorf("error = %v, want ErrNoTrendingSource", err)
				}
			},
		},
		{
			name:     "trending source failure",
			kind:     recommend.TypeTrending,
			trending: &recommendtest.Trending{Err: errors.New("upstream down")},
			verify: func(t *testing.T, f *engineFixture, n int, err error) {
				if err == nil {
					t.Error("error = nil, want upstream error")
				}
			},
		},
		{
			name: "popular applies the vote bound",
			kind: recommend.TypePopular,
			setup: func(f *engineFixture) {
				f.store.AddItems(
					recommend.Item{ID: 1, Popularity: 80, VoteAverage: 7.5, VoteCount: 5000},
					recommend.Item{ID: 2, Popularity: 90, VoteAverage: 7.5, VoteCount: 100},
					recommend.Item{ID: 3, Popularity: 20, VoteAverage: 8.0, VoteCount: 101},
				)
			},
			verify: func(t *testing.T, f *engineFixture, n int, err error) {
				if err != nil {
					t.Fatalf("GenerateGeneral() error = %v", err)
				}
				if n != 2 {
					t.Errorf("GenerateGeneral() = %d, want 2", n)
				}
				rows, _ := f.store.ListGeneral(context.Background(), recommend.TypePopular, 10, f.clock.Now())
				for _, r := range rows {
					if r.ItemID == 2 {
						t.Error("item with 100 votes stored")
					}
					if r.Reason != recommend.PopularReason {
						t.Errorf("Reason = %q, want %q", r.Reason, recommend.PopularReason)
					}
				}
			},
		},
		{
			name: "unsupported kind",
			kind: recommend.TypeHybrid,
			verify: func(t *testing.T, f *engineFixture, n int, err error) {
				if !errors.Is(err, recommend.ErrUnsupportedKind) {
					t.Errorf("error = %v, want ErrUnsupportedKind", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(t, recommend.DefaultConfig())
			if tt.setup != nil {
				tt.setup(f)
			}
			g := newGenerator(t, f, tt.trending)
			n, err := g.GenerateGeneral(context.Background(), tt.kind)
			tt.verify(t, f, n, err)
		})
	}
}

func TestGenerator_CleanupExpired(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, recommend.DefaultConfig())
	g := newGenerator(t, f, &recommendtest.Trending{Items: []recommend.Item{{ID: 1}, {ID: 2}}})

	if _, err := g.GenerateGeneral(ctx, recommend.TypeTrending); err != nil {
		t.Fatal(err)
	}
	uid := 3
	keep := epoch.Add(30 * 24 * time.Hour)
	if err := f.store.ReplaceForUser(ctx, uid, recommend.TypeHybrid, []recommend.Recommendation{
		{UserID: &uid, ItemID: 9, Type: recommend.TypeHybrid, ExpiresAt: &keep},
		{UserID: &uid, ItemID: 10, Type: recommend.TypeHybrid},
	}); err != nil {
		t.Fatal(err)
	}

	f.clock.Advance(24 * time.Hour)
	if n, err := g.CleanupExpired(ctx); err != nil || n != 0 {
		t.Errorf("CleanupExpired() at expiry = %d, %v; want 0, nil", n, err)
	}

	f.clock.Advance(time.Second)
	n, err := g.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CleanupExpired() = %d, want 2", n)
	}
	if got := len(f.store.Records()); got != 2 {
		t.Errorf("remaining records = %d, want 2", got)
	}
}
