// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package algorithms

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/marquee-app/marquee/internal/recommend"
)

// ContentReasonPrefix precedes the user's preferred genre names.
const ContentReasonPrefix = "Similar to your preferred genres: "

// minContentScore drops candidates whose genre match is too weak.
const minContentScore = 0.1

// Profile maps a genre code to a preference weight in [0, 1].
type Profile map[int]float64

// BuildProfile derives a taste profile. Explicit preferred genres weigh 1.0.
// Every genre of an item rated at or above threshold contributes
// GenreBaseWeight(g) * rating/5; the larger weight wins per genre.
func BuildProfile(preferred []string, ratings map[int]float64, items map[int]recommend.Item, threshold float64) Profile {
	p := make(Profile)
	for _, code := range GenreCodes(preferred) {
		p[code] = 1.0
	}
	for itemID, r := range ratings {
		if r < threshold {
			continue
		}
		item, ok := items[itemID]
		if !ok {
			continue
		}
		for _, g := range item.GenreIDs {
			w := GenreBaseWeight(g) * (r / 5.0)
			if w > p[g] {
				p[g] = w
			}
		}
	}
	return p
}

// Score returns the weighted genre match of item against the profile and
// the popularity-blended final score, clamped to 1.
func (p Profile) Score(item recommend.Item) (base, final float64) {
	var num, den float64
	seen := make(map[int]struct{}, len(item.GenreIDs))
	for _, g := range item.GenreIDs {
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		pw, ok := p[g]
		if !ok {
			continue
		}
		w := GenreBaseWeight(g)
		num += pw * w
		den += w
	}
	if den == 0 {
		return 0, 0
	}
	base = num / den
	final = base * (0.6 + 0.2*math.Min(item.Popularity/100, 1) + 0.2*math.Min(item.VoteAverage/10, 1))
	return base, math.Min(final, 1.0)
}

// Content scores catalog items against the user's genre taste profile.
type Content struct {
	interactions recommend.InteractionStore
	profiles     recommend.UserProfiles
	catalog      recommend.Catalog
	threshold    float64
	multiplier   int
}

// NewContent creates the content strategy.
//
//nolint:gocritic // hugeParam: Config is read once at construction
func NewContent(cfg recommend.Config, interactions recommend.InteractionStore, profiles recommend.UserProfiles, catalog recommend.Catalog) *Content {
	return &Content{
		interactions: interactions,
		profiles:     profiles,
		catalog:      catalog,
		threshold:    cfg.HighRatingThreshold,
		multiplier:   cfg.CandidateMultiplier,
	}
}

// Name returns the strategy identifier.
func (c *Content) Name() string {
	return recommend.SourceContent
}

// Recommend scores items sharing a genre with the user's explicit
// preferences. Users without recognized preferred genres get no results.
//
//nolint:gocritic // hugeParam: Request is passed by value across strategies
func (c *Content) Recommend(ctx context.Context, req recommend.Request) ([]recommend.ScoredItem, error) {
	if req.Limit <= 0 {
		return nil, nil
	}

	preferred, err := c.profiles.PreferredGenres(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("preferred genres: %w", err)
	}
	ratings, err := c.interactions.UserRatings(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("user ratings: %w", err)
	}

	liked := make([]int, 0, len(ratings))
	for id, r := range ratings {
		if r >= c.threshold {
			liked = append(liked, id)
		}
	}
	var likedItems map[int]recommend.Item
	if len(liked) > 0 {
		if likedItems, err = c.catalog.Items(ctx, liked); err != nil {
			return nil, fmt.Errorf("load rated items: %w", err)
		}
	}

	profile := BuildProfile(preferred, ratings, likedItems, c.threshold)
	codes := GenreCodes(preferred)
	if len(profile) == 0 || len(codes) == 0 {
		return nil, nil
	}

	favorites, err := c.interactions.Favorites(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("favorites: %w", err)
	}
	exclude := make(map[int]struct{}, len(ratings)+len(favorites)+len(req.Exclude))
	for id := range ratings {
		exclude[id] = struct{}{}
	}
	for id := range favorites {
		exclude[id] = struct{}{}
	}
	for id := range req.Exclude {
		exclude[id] = struct{}{}
	}

	candidates, err := c.catalog.ItemsByGenres(ctx, codes, exclude, req.Limit*c.multiplier)
	if err != nil {
		return nil, fmt.Errorf("candidate items: %w", err)
	}

	reason := ContentReasonPrefix + strings.Join(preferred, ", ")
	out := make([]recommend.ScoredItem, 0, len(candidates))
	for _, item := range candidates {
		base, final := profile.Score(item)
		if base <= minContentScore {
			continue
		}
		out = append(out, recommend.ScoredItem{
			Item:   item,
			Score:  final,
			Reason: reason,
			Source: recommend.SourceContent,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Item.ID < out[j].Item.ID
	})
	if len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out, nil
}
