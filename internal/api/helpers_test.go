// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/marquee-app/marquee/internal/auth"
	"github.com/marquee-app/marquee/internal/cache"
	"github.com/marquee-app/marquee/internal/config"
	"github.com/marquee-app/marquee/internal/database"
	"github.com/marquee-app/marquee/internal/events"
	"github.com/marquee-app/marquee/internal/logging"
	"github.com/marquee-app/marquee/internal/recommend"
	"github.com/marquee-app/marquee/internal/recommend/algorithms"
)

// testDBSemaphore serializes DuckDB test databases.
var testDBSemaphore = make(chan struct{}, 1)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// testMovies: 1, 2 and 4 pass the popularity filter; 4 has too few votes for
// the popular list; 3 is not popular enough for either.
var testMovies = []database.Movie{
	{ID: 1, Title: "Arrival", Popularity: 90, VoteAverage: 8, VoteCount: 500, GenreIDs: []int{878, 18}},
	{ID: 2, Title: "Heat", Popularity: 50, VoteAverage: 7, VoteCount: 200, GenreIDs: []int{80}},
	{ID: 3, Title: "Obscure", Popularity: 5, VoteAverage: 9, VoteCount: 1000, GenreIDs: []int{18}},
	{ID: 4, Title: "Upstart", Popularity: 80, VoteAverage: 7.5, VoteCount: 50, GenreIDs: []int{28}},
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []*events.InteractionEvent
	err    error
}

func (p *fakePublisher) PublishInteraction(_ context.Context, e *events.InteractionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) published() []*events.InteractionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*events.InteractionEvent(nil), p.events...)
}

// stubRecommender returns canned results.
type stubRecommender struct {
	items       []recommend.ScoredItem
	err         error
	fallback    []recommend.ScoredItem
	fallbackErr error
}

func (s *stubRecommender) Recommend(context.Context, int, int) ([]recommend.ScoredItem, bool, error) {
	return s.items, false, s.err
}

func (s *stubRecommender) Fallback(context.Context, int, int) ([]recommend.ScoredItem, error) {
	return s.fallback, s.fallbackErr
}

func (s *stubRecommender) Invalidate(context.Context, int) error { return nil }

func (s *stubRecommender) Config() recommend.Config { return recommend.DefaultConfig() }

type testEnv struct {
	db        *database.DB
	engine    *recommend.Engine
	generator *recommend.Generator
	cache     *cache.MemoryStore
	clock     *cache.ManualClock
	publisher *fakePublisher
	handler   *Handler
	server    http.Handler
}

type envOptions struct {
	// noPublisher leaves the handler without an event publisher.
	noPublisher bool
	recommender Recommender
	security    *config.SecurityConfig
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 2})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	clock := cache.NewManualClock(testEpoch)
	db.SetClock(clock)
	if _, err := db.UpsertMovies(context.Background(), testMovies); err != nil {
		t.Fatalf("UpsertMovies() error = %v", err)
	}

	store := cache.NewMemoryStore(1000, clock)
	cfg := recommend.DefaultConfig()
	sims := algorithms.NewSimilarityEngine(cfg, db, store, logging.Nop())
	engine, err := recommend.NewEngine(cfg, recommend.EngineDeps{
		Interactions:  db,
		Collaborative: algorithms.NewCollaborative(db, sims, db),
		Content:       algorithms.NewContent(cfg, db, db, db),
		Popularity:    algorithms.NewPopularity(cfg, db, db),
		Cache:         store,
	}, logging.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	generator, err := recommend.NewGenerator(recommend.GeneratorDeps{
		Engine:   engine,
		Repo:     db,
		Profiles: db,
		Catalog:  db,
		Clock:    clock,
	}, logging.Nop())
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	env := &testEnv{
		db:        db,
		engine:    engine,
		generator: generator,
		cache:     store,
		clock:     clock,
		publisher: &fakePublisher{},
	}

	deps := HandlerDeps{
		Store:       db,
		Recommender: engine,
		Generator:   generator,
		Cache:       store,
		Clock:       clock,
	}
	if opts.recommender != nil {
		deps.Recommender = opts.recommender
	}
	if !opts.noPublisher {
		deps.Publisher = env.publisher
	}
	handler, err := NewHandler(deps, logging.Nop())
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	env.handler = handler

	sec := opts.security
	if sec == nil {
		sec = &config.SecurityConfig{AuthMode: auth.ModeNone, RateLimitDisabled: true}
	}
	authMW, err := NewAuthMiddleware(sec)
	if err != nil {
		t.Fatalf("NewAuthMiddleware() error = %v", err)
	}
	env.server = NewRouter(handler, NewChiMiddleware(ChiMiddlewareConfigFromSecurity(sec)), authMW).SetupChi()
	return env
}

// testResponse mirrors APIResponse with raw data for typed decoding.
type testResponse struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Metadata Metadata        `json:"metadata"`
	Error    *APIError       `json:"error"`
}

// do sends a request and decodes the envelope when there is a body.
func (env *testEnv) do(t *testing.T, method, path, body string, header ...string) (int, testResponse) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	var resp testResponse
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, resp
}

func decodeData(t *testing.T, resp testResponse, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(resp.Data, v); err != nil {
		t.Fatalf("decode data %s: %v", resp.Data, err)
	}
}

func itemIDs(items []recommend.ScoredItem) []int {
	ids := make([]int, len(items))
	for i := range items {
		ids[i] = items[i].Item.ID
	}
	return ids
}

func errorCode(resp testResponse) string {
	if resp.Error == nil {
		return ""
	}
	return resp.Error.Code
}

var errBoom = errors.New("boom")
