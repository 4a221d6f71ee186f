// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/reelway/internal/config"
	"github.com/tomtom215/reelway/internal/logging"
	"github.com/tomtom215/reelway/internal/metrics"
)

// Path identifies which route served an online request.
const (
	PathPrimary  = "PRIMARY"
	PathFallback = "FALLBACK"
)

// RecommendOptions tune a single online request.
type RecommendOptions struct {
	// ExcludeIDs drops the given movies from the response, e.g. ones
	// the client is already showing.
	ExcludeIDs []string

	// Refresh skips the stored rows and forces the fallback scan.
	Refresh bool
}

// RecommendResult is one served online response.
type RecommendResult struct {
	// Movies in display order, at most the configured display count.
	Movies []RankedMovie

	// Path is PathPrimary when stored pipeline rows were served and
	// PathFallback when the genre-overlap scan produced the result.
	Path string
}

// Recommender is the online serving path. It prefers the pipeline's
// stored rows and falls back to a bounded genre-overlap scan of the
// catalog when the user has none. Every internal failure is logged and
// surfaced as ErrRecommendUnavailable with an empty result.
type Recommender struct {
	store   RecommendationStore
	source  InteractionSource
	catalog MovieCatalog
	cfg     config.FallbackConfig
}

// NewRecommender creates the online recommender.
func NewRecommender(store RecommendationStore, source InteractionSource, catalog MovieCatalog, cfg config.FallbackConfig) *Recommender {
	return &Recommender{
		store:   store,
		source:  source,
		catalog: catalog,
		cfg:     cfg,
	}
}

// Recommend serves one user's movie list. source names the interaction
// list (liked, saved, viewed) the fallback profile is built from.
func (r *Recommender) Recommend(ctx context.Context, userID, source string, opts RecommendOptions) (*RecommendResult, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()
	ctx = logging.ContextWithNewRunID(ctx)

	result, err := r.recommend(ctx, userID, source, opts)
	if err != nil {
		metrics.RecordRecommendRequest(metrics.PathError, time.Since(start))
		log := logging.FromContext(ctx)
		log.Error().
			Str("user_id", userID).
			Str("source", source).
			Err(err).
			Msg("recommendation request failed")
		return &RecommendResult{Movies: []RankedMovie{}}, ErrRecommendUnavailable
	}

	path := metrics.PathFallback
	if result.Path == PathPrimary {
		path = metrics.PathPrimary
	}
	metrics.RecordRecommendRequest(path, time.Since(start))
	return result, nil
}

func (r *Recommender) recommend(ctx context.Context, userID, source string, opts RecommendOptions) (*RecommendResult, error) {
	switch source {
	case SourceLiked, SourceSaved, SourceViewed:
	default:
		return nil, fmt.Errorf("unknown interaction source %q", source)
	}

	exclude := make(map[string]struct{}, len(opts.ExcludeIDs))
	for _, id := range opts.ExcludeIDs {
		exclude[id] = struct{}{}
	}

	if !opts.Refresh {
		movies, err := r.storedRows(ctx, userID, exclude)
		if err != nil {
			return nil, err
		}
		if len(movies) > 0 {
			return &RecommendResult{Movies: movies, Path: PathPrimary}, nil
		}
	}

	movies, err := r.fallbackRows(ctx, userID, source, exclude)
	if err != nil {
		return nil, err
	}
	return &RecommendResult{Movies: movies, Path: PathFallback}, nil
}

// storedRows serves the pipeline's persisted rows. The store query
// over-fetches so exclusions do not starve the display count.
func (r *Recommender) storedRows(ctx context.Context, userID string, exclude map[string]struct{}) ([]RankedMovie, error) {
	recs, err := r.store.Recommendations(ctx, userID, r.cfg.DisplayCount+len(exclude))
	if err != nil {
		return nil, &StorageError{Op: "read recommendations", Err: err}
	}

	movies := make([]RankedMovie, 0, r.cfg.DisplayCount)
	for _, rec := range recs {
		if _, skip := exclude[rec.MovieID]; skip {
			continue
		}
		movies = append(movies, rec)
		if len(movies) == r.cfg.DisplayCount {
			break
		}
	}
	return movies, nil
}

// fallbackRows scores a bounded catalog scan by how many genres each
// movie shares with the user's interaction history. Movies sharing no
// genre are excluded outright, so a user with no history gets an empty
// fallback response rather than arbitrary titles.
func (r *Recommender) fallbackRows(ctx context.Context, userID, source string, exclude map[string]struct{}) ([]RankedMovie, error) {
	profile, interacted, err := r.userProfile(ctx, userID, source)
	if err != nil {
		return nil, err
	}

	// The user's own movies never come back as recommendations.
	scanExclude := make([]string, 0, len(exclude)+len(interacted))
	for id := range exclude {
		scanExclude = append(scanExclude, id)
	}
	for id := range interacted {
		if _, dup := exclude[id]; !dup {
			scanExclude = append(scanExclude, id)
		}
	}
	sort.Strings(scanExclude)

	candidates, err := r.catalog.ScanMoviesFiltered(ctx, r.cfg.ScanLimit, true, scanExclude)
	if err != nil {
		return nil, &StorageError{Op: "scan movies", Err: err}
	}
	metrics.FallbackCandidatesScanned.Observe(float64(len(candidates)))

	type scored struct {
		movie  Movie
		genres []string
		shared int
	}
	matches := make([]scored, 0, len(candidates))
	for _, movie := range candidates {
		genres := NormalizeGenres(movie.RawGenres)
		shared := 0
		for _, g := range genres {
			if _, ok := profile[g]; ok {
				shared++
			}
		}
		if shared == 0 {
			continue
		}
		matches = append(matches, scored{movie: movie, genres: genres, shared: shared})
	}

	// Candidates arrive in stable catalog order; a stable sort keeps
	// equal-overlap ties in that order.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].shared > matches[j].shared
	})

	seenTitles := make(map[string]struct{}, r.cfg.DisplayCount)
	movies := make([]RankedMovie, 0, r.cfg.DisplayCount)
	for _, m := range matches {
		title := strings.ToLower(strings.TrimSpace(m.movie.Title))
		if _, dup := seenTitles[title]; dup {
			continue
		}
		seenTitles[title] = struct{}{}
		movies = append(movies, RankedMovie{
			UserID:          userID,
			MovieID:         m.movie.MovieID,
			Title:           m.movie.Title,
			Genres:          m.genres,
			PredictedRating: float64(m.shared),
		})
		if len(movies) == r.cfg.DisplayCount {
			break
		}
	}
	return movies, nil
}

// userProfile unions the genres of every movie in the user's list for
// the given source and returns the interacted movie IDs.
func (r *Recommender) userProfile(ctx context.Context, userID, source string) (map[string]struct{}, map[string]struct{}, error) {
	log := logging.FromContext(ctx)

	interacted := make(map[string]struct{})
	list, err := r.source.UserInteractions(ctx, userID, source)
	if err != nil {
		return nil, nil, &StorageError{Op: "read interactions", Err: err}
	}
	ids, skipped, err := ParseItemRefs(list.Items)
	if err != nil {
		// A corrupt list yields an empty profile, not a failed request.
		log.Warn().
			Str("user_id", userID).
			Str("source", source).
			Err(err).
			Msg("ignoring unparseable interaction list")
		ids = nil
	}
	if skipped > 0 {
		log.Debug().
			Str("user_id", userID).
			Str("source", source).
			Int("skipped", skipped).
			Msg("skipped malformed interaction items")
	}
	for _, id := range ids {
		interacted[id] = struct{}{}
	}

	profile := make(map[string]struct{})
	if len(interacted) == 0 {
		return profile, interacted, nil
	}

	lookup := make([]string, 0, len(interacted))
	for id := range interacted {
		lookup = append(lookup, id)
	}
	sort.Strings(lookup)

	movies, err := r.catalog.MoviesByID(ctx, lookup)
	if err != nil {
		return nil, nil, &StorageError{Op: "resolve movies", Err: err}
	}
	for _, movie := range movies {
		for _, g := range NormalizeGenres(movie.RawGenres) {
			profile[g] = struct{}{}
		}
	}
	return profile, interacted, nil
}
