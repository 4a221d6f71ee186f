// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

package recommend

import (
	"context"

	"github.com/tomtom215/reelway/internal/logging"
	"github.com/tomtom215/reelway/internal/recommend/algorithms"
)

// Generator scores candidates for every user the model knows about.
// Only users seen during training are covered; cold users are served by
// the online fallback instead.
type Generator struct {
	maxRecommendations int
}

// NewGenerator creates a generator capped at maxRecommendations scored
// items per user.
func NewGenerator(maxRecommendations int) *Generator {
	return &Generator{maxRecommendations: maxRecommendations}
}

// Generate returns each trained user's top-scored items in descending
// score order.
func (g *Generator) Generate(ctx context.Context, model *algorithms.ALS) (map[string][]algorithms.ItemScore, error) {
	users := model.Users()
	scores := make(map[string][]algorithms.ItemScore, len(users))

	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		top, err := model.TopItems(ctx, userID, g.maxRecommendations)
		if err != nil {
			return nil, &ComputationError{Stage: "generate", Err: err}
		}
		scores[userID] = top
	}

	log := logging.FromContext(ctx)
	log.Info().
		Int("users", len(scores)).
		Msg("candidate generation complete")
	return scores, nil
}
