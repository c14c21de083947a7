// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package algorithms

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/marquee-app/marquee/internal/recommend"
	"github.com/marquee-app/marquee/internal/recommend/recommendtest"
)

func TestGenreTables(t *testing.T) {
	if len(genreCodes) != 19 {
		t.Errorf("len(genreCodes) = %d, want 19", len(genreCodes))
	}

	tests := []struct {
		code int
		want float64
	}{
		{28, 1.0}, {12, 1.0}, {10752, 1.0}, {878, 1.0}, {14, 1.0},
		{18, 0.9}, {10749, 0.9}, {53, 0.9},
		{35, 0.8}, {10751, 0.8},
		{27, 0.7},
		{99, 0.6},
		{10770, 0.5},
		{80, 0.5}, {16, 0.5}, {424242, 0.5},
	}
	for _, tt := range tests {
		if got := GenreBaseWeight(tt.code); got != tt.want {
			t.Errorf("GenreBaseWeight(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}

	if code, ok := GenreCode("Science Fiction"); !ok || code != 878 {
		t.Errorf("GenreCode(Science Fiction) = %d, %v; want 878, true", code, ok)
	}
	if _, ok := GenreCode("Sci-Fi"); ok {
		t.Error("GenreCode(Sci-Fi) found, want unknown")
	}

	got := GenreCodes([]string{"Drama", "Nope", "Drama", "War"})
	if len(got) != 2 || got[0] != 18 || got[1] != 10752 {
		t.Errorf("GenreCodes() = %v, want [18 10752]", got)
	}
}

func TestBuildProfile(t *testing.T) {
	items := map[int]recommend.Item{
		1: {ID: 1, GenreIDs: []int{878, 18}},
		2: {ID: 2, GenreIDs: []int{35}},
		3: {ID: 3, GenreIDs: []int{27}},
	}

	tests := []struct {
		name      string
		preferred []string
		ratings   map[int]float64
		want      Profile
	}{
		{
			name:      "explicit preferences only",
			preferred: []string{"Science Fiction", "Unknown"},
			want:      Profile{878: 1.0},
		},
		{
			name:      "high ratings add weighted genres",
			preferred: []string{"Science Fiction"},
			ratings:   map[int]float64{1: 5.0, 2: 3.0, 3: 4.0},
			want:      Profile{878: 1.0, 18: 0.9, 27: 0.7 * 0.8},
		},
		{
			name:    "max wins over explicit weight",
			ratings: map[int]float64{1: 4.5},
			want:    Profile{878: 0.9, 18: 0.9 * 0.9},
		},
		{
			name: "empty",
			want: Profile{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildProfile(tt.preferred, tt.ratings, items, 4.0)
			if len(got) != len(tt.want) {
				t.Fatalf("BuildProfile() = %v, want %v", got, tt.want)
			}
			for g, w := range tt.want {
				if math.Abs(got[g]-w) > epsilon {
					t.Errorf("profile[%d] = %f, want %f", g, got[g], w)
				}
			}
		})
	}
}

func TestProfile_Score(t *testing.T) {
	tests := []struct {
		name      string
		profile   Profile
		item      recommend.Item
		wantBase  float64
		wantFinal float64
	}{
		{
			name:      "full match blends popularity and rating",
			profile:   Profile{878: 1.0},
			item:      recommend.Item{GenreIDs: []int{878}, Popularity: 90, VoteAverage: 8.0},
			wantBase:  1.0,
			wantFinal: 0.94,
		},
		{
			name:      "non-overlapping genres are ignored",
			profile:   Profile{878: 1.0},
			item:      recommend.Item{GenreIDs: []int{878, 27}, Popularity: 500, VoteAverage: 10},
			wantBase:  1.0,
			wantFinal: 1.0,
		},
		{
			name:      "weighted average over overlapping genres",
			profile:   Profile{878: 1.0, 27: 0.5},
			item:      recommend.Item{GenreIDs: []int{878, 27}},
			wantBase:  (1.0*1.0 + 0.5*0.7) / 1.7,
			wantFinal: (1.0*1.0 + 0.5*0.7) / 1.7 * 0.6,
		},
		{
			name:    "no overlap",
			profile: Profile{878: 1.0},
			item:    recommend.Item{GenreIDs: []int{35}, Popularity: 90, VoteAverage: 8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, final := tt.profile.Score(tt.item)
			if math.Abs(base-tt.wantBase) > epsilon {
				t.Errorf("base = %f, want %f", base, tt.wantBase)
			}
			if math.Abs(final-tt.wantFinal) > epsilon {
				t.Errorf("final = %f, want %f", final, tt.wantFinal)
			}
		})
	}
}

func contentStore() *recommendtest.Store {
	s := recommendtest.New()
	s.AddItems(
		recommend.Item{ID: 1, Title: "Arrival", GenreIDs: []int{878, 18}, Popularity: 90, VoteAverage: 8.0},
		recommend.Item{ID: 2, Title: "Dune", GenreIDs: []int{878, 12}, Popularity: 80, VoteAverage: 7.5},
		recommend.Item{ID: 3, Title: "Alien", GenreIDs: []int{878, 27}, Popularity: 70, VoteAverage: 8.2},
		recommend.Item{ID: 4, Title: "Airplane!", GenreIDs: []int{35}, Popularity: 95, VoteAverage: 7.0},
		recommend.Item{ID: 5, Title: "Moon", GenreIDs: []int{878}, Popularity: 20, VoteAverage: 7.6},
	)
	return s
}

func TestContent_Recommend(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(s *recommendtest.Store)
		req    recommend.Request
		verify func(t *testing.T, got []recommend.ScoredItem, err error)
	}{
		{
			name: "ranks genre matches and excludes non-overlapping items",
			setup: func(s *recommendtest.Store) {
				s.SetPreferredGenres(1, "Science Fiction")
			},
			req: recommend.Request{UserID: 1, Limit: 10},
			verify: func(t *testing.T, got []recommend.ScoredItem, err error) {
				if err != nil {
					t.Fatalf("Recommend() error = %v", err)
				}
				if len(got) != 4 {
					t.Fatalf("len(Recommend()) = %d, want 4", len(got))
				}
				for i, it := range got {
					if it.Item.ID == 4 {
						t.Error("non-overlapping item 4 returned")
					}
					if it.Reason != "Similar to your preferred genres: Science Fiction" {
						t.Errorf("Reason = %q", it.Reason)
					}
					if i > 0 && got[i-1].Score < it.Score {
						t.Errorf("results not sorted at %d", i)
					}
				}
				if got[0].Item.ID != 1 {
					t.Errorf("top item = %d, want 1", got[0].Item.ID)
				}
			},
		},
		{
			name: "rated and favorited items are excluded",
			setup: func(s *recommendtest.Store) {
				s.SetPreferredGenres(1, "Science Fiction")
				s.Rate(1, 1, 5.0)
				s.Favorite(1, 2)
			},
			req: recommend.Request{UserID: 1, Limit: 10},
			verify: func(t *testing.T, got []recommend.ScoredItem, err error) {
				if err != nil {
					t.Fatalf("Recommend() error = %v", err)
				}
				for _, it := range got {
					if it.Item.ID == 1 || it.Item.ID == 2 {
						t.Errorf("item %d returned, want excluded", it.Item.ID)
					}
				}
				if len(got) != 2 {
					t.Errorf("len(Recommend()) = %d, want 2", len(got))
				}
			},
		},
		{
			name: "reason lists raw names in order",
			setup: func(s *recommendtest.Store) {
				s.SetPreferredGenres(1, "Comedy", "Sci-Fi", "Science Fiction")
			},
			req: recommend.Request{UserID: 1, Limit: 1},
			verify: func(t *testing.T, got []recommend.ScoredItem, err error) {
				if err != nil {
					t.Fatalf("Recommend() error = %v", err)
				}
				if len(got) != 1 {
					t.Fatalf("len(Recommend()) = %d, want 1", len(got))
				}
				want := "Similar to your preferred genres: Comedy, Sci-Fi, Science Fiction"
				if got[0].Reason != want {
					t.Errorf("Reason = %q, want %q", got[0].Reason, want)
				}
			},
		},
		{
			name: "no preferred genres yields nothing even with high ratings",
			setup: func(s *recommendtest.Store) {
				s.Rate(1, 1, 5.0)
			},
			req: recommend.Request{UserID: 1, Limit: 10},
			verify: func(t *testing.T, got []recommend.ScoredItem, err error) {
				if err != nil || len(got) != 0 {
					t.Errorf("Recommend() = %v, %v; want empty, nil", got, err)
				}
			},
		},
		{
			name: "only unknown genre names yields nothing",
			setup: func(s *recommendtest.Store) {
				s.SetPreferredGenres(1, "Sci-Fi")
			},
			req: recommend.Request{UserID: 1, Limit: 10},
			verify: func(t *testing.T, got []recommend.ScoredItem, err error) {
				if err != nil || len(got) != 0 {
					t.Errorf("Recommend() = %v, %v; want empty, nil", got, err)
				}
			},
		},
		{
			name: "request exclusions are honored",
			setup: func(s *recommendtest.Store) {
				s.SetPreferredGenres(1, "Science Fiction")
			},
			req: recommend.Request{UserID: 1, Limit: 10, Exclude: map[int]struct{}{1: {}}},
			verify: func(t *testing.T, got []recommend.ScoredItem, err error) {
				if err != nil {
					t.Fatalf("Recommend() error = %v", err)
				}
				for _, it := range got {
					if it.Item.ID == 1 {
						t.Error("excluded item 1 returned")
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := contentStore()
			tt.setup(s)
			c := NewContent(recommend.DefaultConfig(), s, s, s)
			if c.Name() != recommend.SourceContent {
				t.Errorf("Name() = %q, want %q", c.Name(), recommend.SourceContent)
			}
			got, err := c.Recommend(context.Background(), tt.req)
			tt.verify(t, got, err)
		})
	}
}

func TestContent_Errors(t *testing.T) {
	s := contentStore()
	s.SetPreferredGenres(1, "Science Fiction")
	s.Errs.ItemsByGenres = errors.New("db down")

	c := NewContent(recommend.DefaultConfig(), s, s, s)
	if _, err := c.Recommend(context.Background(), recommend.Request{UserID: 1, Limit: 5}); err == nil {
		t.Error("Recommend() error = nil, want error")
	}
}
