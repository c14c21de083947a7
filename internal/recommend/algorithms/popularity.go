// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package algorithms

import (
	"context"
	"fmt"

	"github.com/marquee-app/marquee/internal/recommend"
)

// Popularity ranks unseen catalog items by global popularity. It is the
// baseline for cold-start users and pads hybrid results.
//
// The score is computed as:
//
//	score(item) = 0.6*min(popularity/100, 1) + 0.4*(vote_average/10)
//
// Results keep the catalog order, popularity descending.
type Popularity struct {
	interactions recommend.InteractionStore
	catalog      recommend.Catalog
	filter       recommend.PopularityFilter
}

// NewPopularity creates the popularity strategy.
//
//nolint:gocritic // hugeParam: Config is read once at construction
func NewPopularity(cfg recommend.Config, interactions recommend.InteractionStore, catalog recommend.Catalog) *Popularity {
	return &Popularity{
		interactions: interactions,
		catalog:      catalog,
		filter:       cfg.Popularity,
	}
}

// Name returns the strategy identifier.
func (p *Popularity) Name() string {
	return recommend.SourcePopularity
}

// Recommend returns popular items the user has neither rated nor favorited.
//
//nolint:gocritic // hugeParam: Request is passed by value across strategies
func (p *Popularity) Recommend(ctx context.Context, req recommend.Request) ([]recommend.ScoredItem, error) {
	if req.Limit <= 0 {
		return nil, nil
	}

	ratings, err := p.interactions.UserRatings(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("user ratings: %w", err)
	}
	favorites, err := p.interactions.Favorites(ctx, req.UserID)
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

	filter := p.filter
	if req.MinVoteCount > filter.MinVoteCount {
		filter.MinVoteCount = req.MinVoteCount
	}
	items, err := p.catalog.PopularItems(ctx, filter, exclude, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("popular items: %w", err)
	}

	out := make([]recommend.ScoredItem, 0, len(items))
	for _, item := range items {
		out = append(out, recommend.ScoredItem{
			Item:   item,
			Score:  recommend.PopularityScore(item),
			Reason: recommend.PopularReason,
			Source: recommend.SourcePopularity,
		})
	}
	return out, nil
}

var (
	_ recommend.Strategy = (*Collaborative)(nil)
	_ recommend.Strategy = (*Content)(nil)
	_ recommend.Strategy = (*Popularity)(nil)
	_ MatrixSource       = (*SimilarityEngine)(nil)
)
