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

	"github.com/marquee-app/marquee/internal/recommend"
)

// CollaborativeReasonFormat formats the predicted rating into the reason.
const CollaborativeReasonFormat = "Recommended by users with similar tastes (score: %.2f)"

// MatrixSource provides the user-user similarity matrix.
type MatrixSource interface {
	Matrix(ctx context.Context) (Matrix, error)
}

// Collaborative implements user-based collaborative filtering.
//
// For a target user u and an item i u has not rated:
//
//	score(u, i) = sum_{v in N(u)} sim(u, v) * r(v, i) / sum_{v in N(u)} |sim(u, v)|
//
// where N(u) are u's neighbors in the similarity matrix that rated i. The
// score is a predicted rating on the user rating scale.
type Collaborative struct {
	interactions recommend.InteractionStore
	similarity   MatrixSource
	catalog      recommend.Catalog
}

// NewCollaborative creates the collaborative strategy.
func NewCollaborative(interactions recommend.InteractionStore, similarity MatrixSource, catalog recommend.Catalog) *Collaborative {
	return &Collaborative{
		interactions: interactions,
		similarity:   similarity,
		catalog:      catalog,
	}
}

// Name returns the strategy identifier.
func (c *Collaborative) Name() string {
	return recommend.SourceCollaborative
}

// Recommend predicts ratings for items rated by the user's neighbors that
// the user has neither rated nor favorited. Users absent from the matrix get
// no results, and items missing from the catalog are skipped.
//
//nolint:gocritic // hugeParam: Request is passed by value across strategies
func (c *Collaborative) Recommend(ctx context.Context, req recommend.Request) ([]recommend.ScoredItem, error) {
	if req.Limit <= 0 {
		return nil, nil
	}

	matrix, err := c.similarity.Matrix(ctx)
	if err != nil {
		return nil, fmt.Errorf("similarity matrix: %w", err)
	}
	neighbors, ok := matrix.Neighbors(req.UserID)
	if !ok || len(neighbors) == 0 {
		return nil, nil
	}

	ratings, err := c.interactions.AllRatings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	own := ratings[req.UserID]

	favorites, err := c.interactions.Favorites(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("favorites: %w", err)
	}

	// Sum neighbors in id order so repeated calls agree bit for bit.
	neighborIDs := make([]int, 0, len(neighbors))
	for id := range neighbors {
		neighborIDs = append(neighborIDs, id)
	}
	sort.Ints(neighborIDs)

	weighted := make(map[int]float64)
	weights := make(map[int]float64)
	for _, neighborID := range neighborIDs {
		sim := neighbors[neighborID]
		for itemID, r := range ratings[neighborID] {
			if _, rated := own[itemID]; rated || req.Excluded(itemID) {
				continue
			}
			if _, fav := favorites[itemID]; fav {
				continue
			}
			weighted[itemID] += r * sim
			weights[itemID] += math.Abs(sim)
		}
	}

	type prediction struct {
		id    int
		score float64
	}
	preds := make([]prediction, 0, len(weighted))
	for id, ws := range weighted {
		if w := weights[id]; w > 0 {
			preds = append(preds, prediction{id: id, score: ws / w})
		}
	}
	sort.Slice(preds, func(i, j int) bool {
		if preds[i].score != preds[j].score {
			return preds[i].score > preds[j].score
		}
		return preds[i].id < preds[j].id
	})

	ids := make([]int, len(preds))
	for i, p := range preds {
		ids[i] = p.id
	}
	items, err := c.catalog.Items(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load candidate items: %w", err)
	}

	out := make([]recommend.ScoredItem, 0, req.Limit)
	for _, p := range preds {
		item, ok := items[p.id]
		if !ok {
			continue
		}
		out = append(out, recommend.ScoredItem{
			Item:   item,
			Score:  p.score,
			Reason: fmt.Sprintf(CollaborativeReasonFormat, p.score),
			Source: recommend.SourceCollaborative,
		})
		if len(out) == req.Limit {
			break
		}
	}
	return out, nil
}
