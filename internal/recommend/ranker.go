// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

package recommend

import (
	"context"
	"sort"

	"github.com/tomtom215/reelway/internal/logging"
	"github.com/tomtom215/reelway/internal/recommend/algorithms"
)

// Ranker turns raw model scores into the persisted recommendation rows:
// it drops movies the user already interacted with and movies without
// displayable artwork, keeps only movies sharing at least one genre
// with the user's profile, and caps the result per user. Running the
// filter over already-filtered rows changes nothing.
type Ranker struct {
	catalog            MovieCatalog
	store              RecommendationStore
	maxRecommendations int
}

// NewRanker creates a ranker writing at most maxRecommendations rows
// per user.
func NewRanker(catalog MovieCatalog, store RecommendationStore, maxRecommendations int) *Ranker {
	return &Ranker{
		catalog:            catalog,
		store:              store,
		maxRecommendations: maxRecommendations,
	}
}

// Rank filters and orders every user's scored candidates. Movies in
// the user's interaction index never come back: the model scores a
// user's own training items near-maximally, so without the exclusion
// the persisted sets would mostly repeat what the user already saw.
// Users whose candidates are entirely filtered out stay in the result
// with an empty slice so Persist clears their stale rows.
func (r *Ranker) Rank(ctx context.Context, scores map[string][]algorithms.ItemScore, profile GenreProfile, interacted InteractionIndex) (map[string][]RankedMovie, error) {
	movies, err := r.resolveMovies(ctx, scores)
	if err != nil {
		return nil, err
	}

	ranked := make(map[string][]RankedMovie, len(scores))
	for userID, items := range scores {
		rows := make([]RankedMovie, 0, len(items))
		for _, item := range items {
			if interacted.Has(userID, item.ItemID) {
				continue
			}
			movie, ok := movies[item.ItemID]
			if !ok || !movie.Displayable() {
				continue
			}
			genres := NormalizeGenres(movie.RawGenres)
			if !profile.Overlaps(userID, genres) {
				continue
			}
			rows = append(rows, RankedMovie{
				UserID:          userID,
				MovieID:         movie.MovieID,
				Title:           movie.Title,
				Genres:          genres,
				PredictedRating: item.Score,
			})
		}

		// Candidates arrive score-ordered, but filtering may interleave
		// equal scores; a stable re-sort keeps the output deterministic.
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].PredictedRating > rows[j].PredictedRating
		})
		if len(rows) > r.maxRecommendations {
			rows = rows[:r.maxRecommendations]
		}
		ranked[userID] = rows
	}
	return ranked, nil
}

func (r *Ranker) resolveMovies(ctx context.Context, scores map[string][]algorithms.ItemScore) (map[string]Movie, error) {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, items := range scores {
		for _, item := range items {
			if _, ok := seen[item.ItemID]; ok {
				continue
			}
			seen[item.ItemID] = struct{}{}
			ids = append(ids, item.ItemID)
		}
	}

	movies, err := r.catalog.MoviesByID(ctx, ids)
	if err != nil {
		return nil, &StorageError{Op: "resolve movies", Err: err}
	}
	return movies, nil
}

// Persist replaces each user's stored rows with the ranked set. An
// empty set clears the user. Returns the total rows written.
func (r *Ranker) Persist(ctx context.Context, ranked map[string][]RankedMovie) (int, error) {
	users := make([]string, 0, len(ranked))
	for userID := range ranked {
		users = append(users, userID)
	}
	sort.Strings(users)

	rows := 0
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return rows, err
		}
		recs := ranked[userID]
		if err := r.store.ReplaceRecommendations(ctx, userID, recs); err != nil {
			return rows, &StorageError{Op: "replace recommendations", Err: err}
		}
		rows += len(recs)
	}

	log := logging.FromContext(ctx)
	log.Info().
		Int("users", len(users)).
		Int("rows", rows).
		Msg("recommendations persisted")
	return rows, nil
}
