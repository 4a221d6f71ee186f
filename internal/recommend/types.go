// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

package recommend

import (
	"context"
	"strings"
)

// Interaction sources recognized by the extractor and the fallback
// ranker. Sources map 1:1 to the per-user lists the streaming backend
// maintains.
const (
	SourceLiked  = "liked"
	SourceSaved  = "saved"
	SourceViewed = "viewed"
)

// InteractionList is one user's raw list for a single source, exactly
// as stored. Items is a JSON array whose elements may be numbers,
// numeric strings, or objects carrying a "movieId" key; see
// ParseItemRefs.
type InteractionList struct {
	UserID string
	Source string
	Items  []byte
}

// InteractionEvent is one flattened training record: a user acted on a
// movie with a source-derived strength. Genres are denormalized from
// the catalog at extraction time so later stages never re-join.
type InteractionEvent struct {
	UserID   string   `json:"userId"   validate:"required"`
	MovieID  string   `json:"movieId"  validate:"required"`
	Strength float64  `json:"strength" validate:"gt=0"`
	Genres   []string `json:"genres"`
}

// Movie is read-only catalog metadata. RawGenres keeps the stored form
// (pipe/comma-delimited string or JSON array); normalize with
// NormalizeGenres at the point of use.
type Movie struct {
	MovieID    string
	Title      string
	RawGenres  string
	PosterURL  string
	TrailerURL string
}

// Displayable reports whether the movie carries the artwork required
// to surface it: poster and trailer present and not the literal "nan"
// the upstream scraper writes for missing values.
func (m Movie) Displayable() bool {
	return displayableURL(m.PosterURL) && displayableURL(m.TrailerURL)
}

func displayableURL(u string) bool {
	u = strings.TrimSpace(u)
	return u != "" && !strings.EqualFold(u, "nan")
}

// RankedMovie is one persisted recommendation row for a user.
type RankedMovie struct {
	UserID          string
	MovieID         string
	Title           string
	Genres          []string
	PredictedRating float64
}

// GenreProfile maps each user to the union of genres across the movies
// they interacted with. Rebuilt from scratch every pipeline run.
type GenreProfile map[string]map[string]struct{}

// Add unions the given genres into the user's profile.
func (p GenreProfile) Add(userID string, genres []string) {
	if len(genres) == 0 {
		return
	}
	set, ok := p[userID]
	if !ok {
		set = make(map[string]struct{}, len(genres))
		p[userID] = set
	}
	for _, g := range genres {
		set[g] = struct{}{}
	}
}

// Overlaps reports whether any of the given genres appears in the
// user's profile.
func (p GenreProfile) Overlaps(userID string, genres []string) bool {
	set, ok := p[userID]
	if !ok {
		return false
	}
	for _, g := range genres {
		if _, ok := set[g]; ok {
			return true
		}
	}
	return false
}

// InteractionIndex maps each user to the set of movies they already
// interacted with. Rebuilt from scratch every pipeline run.
type InteractionIndex map[string]map[string]struct{}

// Add records one user/movie interaction.
func (ix InteractionIndex) Add(userID, movieID string) {
	set, ok := ix[userID]
	if !ok {
		set = make(map[string]struct{})
		ix[userID] = set
	}
	set[movieID] = struct{}{}
}

// Has reports whether the user already interacted with the movie.
func (ix InteractionIndex) Has(userID, movieID string) bool {
	_, ok := ix[userID][movieID]
	return ok
}

// InteractionSource reads raw per-user interaction lists.
type InteractionSource interface {
	// ListInteractions returns every user's list for one source.
	ListInteractions(ctx context.Context, source string) ([]InteractionList, error)

	// UserInteractions returns a single user's list for one source.
	// A user without a stored list yields an empty Items array, not an
	// error.
	UserInteractions(ctx context.Context, userID, source string) (InteractionList, error)
}

// MovieCatalog reads movie metadata.
type MovieCatalog interface {
	// MoviesByID resolves the given IDs. Unknown IDs are simply absent
	// from the result map.
	MoviesByID(ctx context.Context, ids []string) (map[string]Movie, error)

	// ScanMovies returns up to limit catalog rows in stable storage
	// order.
	ScanMovies(ctx context.Context, limit int) ([]Movie, error)

	// ScanMoviesFiltered is ScanMovies with optional server-side
	// filtering: displayableOnly keeps only rows with usable artwork,
	// and excludeIDs drops the given movie IDs before the limit applies.
	ScanMoviesFiltered(ctx context.Context, limit int, displayableOnly bool, excludeIDs []string) ([]Movie, error)
}

// RecommendationStore persists and serves ranked recommendation rows.
type RecommendationStore interface {
	// ReplaceRecommendations atomically swaps the user's stored rows
	// for the given set. An empty set clears the user.
	ReplaceRecommendations(ctx context.Context, userID string, recs []RankedMovie) error

	// Recommendations returns up to limit stored rows for the user in
	// rank order.
	Recommendations(ctx context.Context, userID string, limit int) ([]RankedMovie, error)
}
