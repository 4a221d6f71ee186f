// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

package recommend

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// fakeStore is an in-memory stand-in for the database, implementing
// every store-facing interface the pipeline and the online path use.
type fakeStore struct {
	mu sync.Mutex

	// lists is source -> userID -> raw JSON items.
	lists  map[string]map[string][]byte
	movies map[string]Movie
	recs   map[string][]RankedMovie

	// failOp forces an error from the named operation.
	failOp string
}

var errFakeStore = errors.New("induced store failure")

func newFakeStore() *fakeStore {
	return &fakeStore{
		lists:  make(map[string]map[string][]byte),
		movies: make(map[string]Movie),
		recs:   make(map[string][]RankedMovie),
	}
}

func (f *fakeStore) setList(userID, source, items string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lists[source] == nil {
		f.lists[source] = make(map[string][]byte)
	}
	f.lists[source][userID] = []byte(items)
}

func (f *fakeStore) addMovie(m Movie) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movies[m.MovieID] = m
}

func (f *fakeStore) ListInteractions(_ context.Context, source string) ([]InteractionList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOp == "list" {
		return nil, errFakeStore
	}

	users := make([]string, 0, len(f.lists[source]))
	for userID := range f.lists[source] {
		users = append(users, userID)
	}
	sort.Strings(users)

	lists := make([]InteractionList, 0, len(users))
	for _, userID := range users {
		lists = append(lists, InteractionList{
			UserID: userID,
			Source: source,
			Items:  f.lists[source][userID],
		})
	}
	return lists, nil
}

func (f *fakeStore) UserInteractions(_ context.Context, userID, source string) (InteractionList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOp == "user_interactions" {
		return InteractionList{}, errFakeStore
	}

	items, ok := f.lists[source][userID]
	if !ok {
		items = []byte("[]")
	}
	return InteractionList{UserID: userID, Source: source, Items: items}, nil
}

func (f *fakeStore) MoviesByID(_ context.Context, ids []string) (map[string]Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOp == "movies_by_id" {
		return nil, errFakeStore
	}

	result := make(map[string]Movie)
	for _, id := range ids {
		if m, ok := f.movies[id]; ok {
			result[id] = m
		}
	}
	return result, nil
}

func (f *fakeStore) ScanMovies(ctx context.Context, limit int) ([]Movie, error) {
	return f.ScanMoviesFiltered(ctx, limit, false, nil)
}

func (f *fakeStore) ScanMoviesFiltered(_ context.Context, limit int, displayableOnly bool, excludeIDs []string) ([]Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOp == "scan" {
		return nil, errFakeStore
	}

	exclude := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		exclude[id] = struct{}{}
	}

	ids := make([]string, 0, len(f.movies))
	for id := range f.movies {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	movies := make([]Movie, 0, limit)
	for _, id := range ids {
		if len(movies) == limit {
			break
		}
		if _, skip := exclude[id]; skip {
			continue
		}
		m := f.movies[id]
		if displayableOnly && !m.Displayable() {
			continue
		}
		movies = append(movies, m)
	}
	return movies, nil
}

func (f *fakeStore) ReplaceRecommendations(_ context.Context, userID string, recs []RankedMovie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOp == "replace" {
		return errFakeStore
	}

	if len(recs) == 0 {
		delete(f.recs, userID)
		return nil
	}
	f.recs[userID] = append([]RankedMovie(nil), recs...)
	return nil
}

func (f *fakeStore) Recommendations(_ context.Context, userID string, limit int) ([]RankedMovie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOp == "read_recs" {
		return nil, errFakeStore
	}

	recs := f.recs[userID]
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return append([]RankedMovie(nil), recs...), nil
}

var (
	_ InteractionSource   = (*fakeStore)(nil)
	_ MovieCatalog        = (*fakeStore)(nil)
	_ RecommendationStore = (*fakeStore)(nil)
)

// displayableMovie builds a catalog row that passes the artwork gate.
func displayableMovie(id, title, genres string) Movie {
	return Movie{
		MovieID:    id,
		Title:      title,
		RawGenres:  genres,
		PosterURL:  "https://img.example/" + id + ".jpg",
		TrailerURL: "https://vid.example/" + id + ".mp4",
	}
}
