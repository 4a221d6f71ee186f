// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/reelway/internal/database/query"
	"github.com/tomtom215/reelway/internal/recommend"
)

// moviesByIDChunk bounds IN-clause size for catalog lookups.
const moviesByIDChunk = 512

// MoviesByID resolves catalog rows for the given IDs. Unknown IDs are
// absent from the result map.
func (db *DB) MoviesByID(ctx context.Context, ids []string) (_ map[string]recommend.Movie, err error) {
	defer observeQuery("movies_by_id", "movies", time.Now(), &err)

	result := make(map[string]recommend.Movie, len(ids))

	for start := 0; start < len(ids); start += moviesByIDChunk {
		end := start + moviesByIDChunk
		if end > len(ids) {
			end = len(ids)
		}
		if err := db.moviesByIDChunked(ctx, ids[start:end], result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (db *DB) moviesByIDChunked(ctx context.Context, ids []string, result map[string]recommend.Movie) error {
	if len(ids) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	where, args := query.NewWhereBuilder().AddIn("movie_id", ids).Build()
	//nolint:gosec // where contains only placeholders from the builder
	q := fmt.Sprintf(`SELECT movie_id, title, genres, poster_url, trailer_url FROM movies %s`, where)

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("failed to query movies by id: %w", err)
	}
	defer func() { _ = rows.Close() }() //nolint:errcheck // error on close after read is not actionable

	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return err
		}
		result[m.MovieID] = m
	}
	return rows.Err()
}

// ScanMovies returns up to limit catalog rows in stable ID order,
// optionally restricted to displayable rows (poster and trailer
// present) and excluding the given IDs.
func (db *DB) ScanMovies(ctx context.Context, limit int) ([]recommend.Movie, error) {
	return db.ScanMoviesFiltered(ctx, limit, false, nil)
}

// ScanMoviesFiltered is ScanMovies with server-side filters applied.
func (db *DB) ScanMoviesFiltered(ctx context.Context, limit int, displayableOnly bool, excludeIDs []string) (_ []recommend.Movie, err error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	defer observeQuery("scan_movies", "movies", time.Now(), &err)

	wb := query.NewWhereBuilder()
	if displayableOnly {
		wb.AddDisplayableArtwork()
	}
	wb.AddNotIn("movie_id", excludeIDs)
	where, args := wb.Build()

	//nolint:gosec // where contains only placeholders from the builder
	q := fmt.Sprintf(`SELECT movie_id, title, genres, poster_url, trailer_url
		FROM movies %s ORDER BY movie_id LIMIT ?`, where)
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to scan movies: %w", err)
	}
	defer func() { _ = rows.Close() }() //nolint:errcheck // error on close after read is not actionable

	var movies []recommend.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("movie scan iteration failed: %w", err)
	}

	return movies, nil
}

// UpsertMovie stores a catalog row, replacing any previous value.
func (db *DB) UpsertMovie(ctx context.Context, m recommend.Movie) (err error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	defer observeQuery("upsert_movie", "movies", time.Now(), &err)

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO movies (movie_id, title, genres, poster_url, trailer_url)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (movie_id) DO UPDATE SET
			title = excluded.title,
			genres = excluded.genres,
			poster_url = excluded.poster_url,
			trailer_url = excluded.trailer_url`,
		m.MovieID, m.Title, nullable(m.RawGenres), nullable(m.PosterURL), nullable(m.TrailerURL))
	if err != nil {
		return fmt.Errorf("failed to upsert movie %s: %w", m.MovieID, err)
	}
	return nil
}

// scanMovie reads one catalog row from the current cursor position.
func scanMovie(rows *sql.Rows) (recommend.Movie, error) {
	var m recommend.Movie
	var genres, poster, trailer sql.NullString

	if err := rows.Scan(&m.MovieID, &m.Title, &genres, &poster, &trailer); err != nil {
		return m, fmt.Errorf("failed to scan movie row: %w", err)
	}
	m.RawGenres = genres.String
	m.PosterURL = poster.String
	m.TrailerURL = trailer.String
	return m, nil
}

// nullable maps empty strings to SQL NULL.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Ensure interface compliance.
var _ recommend.MovieCatalog = (*DB)(nil)
