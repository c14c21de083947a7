// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

// Package recommendtest provides an in-memory implementation of every
// storage interface in package recommend, for tests.
package recommendtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/marquee-app/marquee/internal/recommend"
)

// Store is an in-memory catalog, interaction log, profile store and
// recommendation repository. Setting a field of Errs makes the matching
// method fail.
type Store struct {
	mu        sync.RWMutex
	items     map[int]recommend.Item
	ratings   map[int]map[int]float64
	favorites map[int]map[int]struct{}
	genres    map[int][]string
	recs      []recommend.Recommendation
	nextID    int64

	Errs Errors
}

// Errors injects failures per method.
type Errors struct {
	AllRatings      error
	UserRatings     error
	Favorites       error
	RatingCount     error
	Items           error
	ItemsByGenres   error
	PopularItems    error
	PreferredGenres error
	ActiveUsers     error
	Replace         error
	List            error
	DeleteExpired   error
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		items:     make(map[int]recommend.Item),
		ratings:   make(map[int]map[int]float64),
		favorites: make(map[int]map[int]struct{}),
		genres:    make(map[int][]string),
	}
}

// AddItems inserts or replaces catalog items.
func (s *Store) AddItems(items ...recommend.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		s.items[it.ID] = it
	}
}

// Rate records a rating, replacing any previous one.
func (s *Store) Rate(userID, itemID int, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ratings[userID] == nil {
		s.ratings[userID] = make(map[int]float64)
	}
	s.ratings[userID][itemID] = value
}

// Favorite marks itemID as a favorite of userID.
func (s *Store) Favorite(userID, itemID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.favorites[userID] == nil {
		s.favorites[userID] = make(map[int]struct{})
	}
	s.favorites[userID][itemID] = struct{}{}
}

// SetPreferredGenres stores the user's explicit genre names.
func (s *Store) SetPreferredGenres(userID int, names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.genres[userID] = append([]string(nil), names...)
}

// Records returns a copy of every stored recommendation.
func (s *Store) Records() []recommend.Recommendation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]recommend.Recommendation(nil), s.recs...)
}

// AllRatings implements recommend.InteractionStore.
func (s *Store) AllRatings(context.Context) (map[int]map[int]float64, error) {
	if s.Errs.AllRatings != nil {
		return nil, s.Errs.AllRatings
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]map[int]float64, len(s.ratings))
	for u, r := range s.ratings {
		out[u] = copyRatings(r)
	}
	return out, nil
}

// UserRatings implements recommend.InteractionStore.
func (s *Store) UserRatings(_ context.Context, userID int) (map[int]float64, error) {
	if s.Errs.UserRatings != nil {
		return nil, s.Errs.UserRatings
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyRatings(s.ratings[userID]), nil
}

// Favorites implements recommend.InteractionStore.
func (s *Store) Favorites(_ context.Context, userID int) (map[int]struct{}, error) {
	if s.Errs.Favorites != nil {
		return nil, s.Errs.Favorites
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]struct{}, len(s.favorites[userID]))
	for id := range s.favorites[userID] {
		out[id] = struct{}{}
	}
	return out, nil
}

// RatingCount implements recommend.InteractionStore.
func (s *Store) RatingCount(_ context.Context, userID int) (int, error) {
	if s.Errs.RatingCount != nil {
		return 0, s.Errs.RatingCount
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ratings[userID]), nil
}

// Item implements recommend.Catalog.
func (s *Store) Item(_ context.Context, id int) (recommend.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return recommend.Item{}, recommend.ErrNotFound
	}
	return it, nil
}

// Items implements recommend.Catalog.
func (s *Store) Items(_ context.Context, ids []int) (map[int]recommend.Item, error) {
	if s.Errs.Items != nil {
		return nil, s.Errs.Items
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]recommend.Item, len(ids))
	for _, id := range ids {
		if it, ok := s.items[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

// ItemsByGenres implements recommend.Catalog.
func (s *Store) ItemsByGenres(_ context.Context, codes []int, exclude map[int]struct{}, limit int) ([]recommend.Item, error) {
	if s.Errs.ItemsByGenres != nil {
		return nil, s.Errs.ItemsByGenres
	}
	want := make(map[int]struct{}, len(codes))
	for _, c := range codes {
		want[c] = struct{}{}
	}

	s.mu.RLock()
	var out []recommend.Item
	for _, it := range s.items {
		if _, skip := exclude[it.ID]; skip {
			continue
		}
		for _, g := range it.GenreIDs {
			if _, ok := want[g]; ok {
				out = append(out, it)
				break
			}
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Popularity != out[j].Popularity {
			return out[i].Popularity > out[j].Popularity
		}
		if out[i].VoteAverage != out[j].VoteAverage {
			return out[i].VoteAverage > out[j].VoteAverage
		}
		return out[i].ID < out[j].ID
	})
	return truncate(out, limit), nil
}

// PopularItems implements recommend.Catalog.
func (s *Store) PopularItems(_ context.Context, f recommend.PopularityFilter, exclude map[int]struct{}, limit int) ([]recommend.Item, error) {
	if s.Errs.PopularItems != nil {
		return nil, s.Errs.PopularItems
	}
	s.mu.RLock()
	var out []recommend.Item
	for _, it := range s.items {
		if _, skip := exclude[it.ID]; skip {
			continue
		}
		if it.Popularity > f.MinPopularity && it.VoteAverage > f.MinRating &&
			(f.MinVoteCount <= 0 || it.VoteCount > f.MinVoteCount) {
			out = append(out, it)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Popularity != out[j].Popularity {
			return out[i].Popularity > out[j].Popularity
		}
		return out[i].ID < out[j].ID
	})
	return truncate(out, limit), nil
}

// PreferredGenres implements recommend.UserProfiles.
func (s *Store) PreferredGenres(_ context.Context, userID int) ([]string, error) {
	if s.Errs.PreferredGenres != nil {
		return nil, s.Errs.PreferredGenres
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.genres[userID]...), nil
}

// ActiveUsers implements recommend.UserProfiles.
func (s *Store) ActiveUsers(_ context.Context, limit int) ([]int, error) {
	if s.Errs.ActiveUsers != nil {
		return nil, s.Errs.ActiveUsers
	}
	s.mu.RLock()
	users := make([]int, 0, len(s.ratings))
	for u, r := range s.ratings {
		if len(r) > 0 {
			users = append(users, u)
		}
	}
	s.mu.RUnlock()
	sort.Ints(users)
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

// ReplaceForUser implements recommend.RecommendationRepository.
func (s *Store) ReplaceForUser(_ context.Context, userID int, recType recommend.Type, recs []recommend.Recommendation) error {
	if s.Errs.Replace != nil {
		return s.Errs.Replace
	}
	s.replace(func(r recommend.Recommendation) bool {
		return r.UserID != nil && *r.UserID == userID && r.Type == recType
	}, recs)
	return nil
}

// ReplaceGeneral implements recommend.RecommendationRepository.
func (s *Store) ReplaceGeneral(_ context.Context, recType recommend.Type, recs []recommend.Recommendation) error {
	if s.Errs.Replace != nil {
		return s.Errs.Replace
	}
	s.replace(func(r recommend.Recommendation) bool {
		return r.UserID == nil && r.Type == recType
	}, recs)
	return nil
}

func (s *Store) replace(match func(recommend.Recommendation) bool, recs []recommend.Recommendation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.recs[:0]
	for _, r := range s.recs {
		if !match(r) {
			kept = append(kept, r)
		}
	}
	s.recs = kept
	for _, r := range recs {
		s.nextID++
		r.ID = s.nextID
		s.recs = append(s.recs, r)
	}
}

// ListForUser implements recommend.RecommendationRepository.
func (s *Store) ListForUser(_ context.Context, userID int, recType recommend.Type, limit int, now time.Time) ([]recommend.Recommendation, error) {
	return s.list(func(r recommend.Recommendation) bool {
		return r.UserID != nil && *r.UserID == userID && r.Type == recType
	}, limit, now)
}

// ListGeneral implements recommend.RecommendationRepository.
func (s *Store) ListGeneral(_ context.Context, recType recommend.Type, limit int, now time.Time) ([]recommend.Recommendation, error) {
	return s.list(func(r recommend.Recommendation) bool {
		return r.UserID == nil && r.Type == recType
	}, limit, now)
}

func (s *Store) list(match func(recommend.Recommendation) bool, limit int, now time.Time) ([]recommend.Recommendation, error) {
	if s.Errs.List != nil {
		return nil, s.Errs.List
	}
	s.mu.RLock()
	var out []recommend.Recommendation
	for _, r := range s.recs {
		if match(r) && !r.Expired(now) {
			if it, ok := s.items[r.ItemID]; ok {
				item := it
				r.Item = &item
			}
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ItemID < out[j].ItemID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteExpired implements recommend.RecommendationRepository.
func (s *Store) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	if s.Errs.DeleteExpired != nil {
		return 0, s.Errs.DeleteExpired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.recs[:0]
	removed := 0
	for _, r := range s.recs {
		if r.Expired(now) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.recs = kept
	return removed, nil
}

// Trending is a static recommend.TrendingSource.
type Trending struct {
	Items []recommend.Item
	Err   error
}

// Trending implements recommend.TrendingSource.
func (t *Trending) Trending(_ context.Context, limit int) ([]recommend.Item, error) {
	if t.Err != nil {
		return nil, t.Err
	}
	return truncate(append([]recommend.Item(nil), t.Items...), limit), nil
}

func copyRatings(in map[int]float64) map[int]float64 {
	out := make(map[int]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func truncate(items []recommend.Item, limit int) []recommend.Item {
	if limit >= 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

var (
	_ recommend.InteractionStore         = (*Store)(nil)
	_ recommend.Catalog                  = (*Store)(nil)
	_ recommend.UserProfiles             = (*Store)(nil)
	_ recommend.RecommendationRepository = (*Store)(nil)
	_ recommend.TrendingSource           = (*Trending)(nil)
)
