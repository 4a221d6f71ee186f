// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelway/internal/logging"
	"github.com/tomtom215/reelway/internal/recommend"
)

// ReplaceRecommendations atomically swaps a user's stored rows for the
// given set inside one transaction. The delete and inserts commit
// together, so readers either see the old set or the new set, never a
// cleared or partially written one. An empty set clears the user.
func (db *DB) ReplaceRecommendations(ctx context.Context, userID string, recs []recommend.RankedMovie) (err error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	defer observeQuery("replace_recommendations", "recommendations", time.Now(), &err)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin recommendation replace: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errorIsDone(err) {
			logging.Warn().Err(err).Str("user_id", userID).Msg("Recommendation replace rollback failed")
		}
	}()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM recommendations WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear recommendations for user %s: %w", userID, err)
	}

	for i, rec := range recs {
		genres, err := json.Marshal(rec.Genres)
		if err != nil {
			return fmt.Errorf("failed to encode genres for movie %s: %w", rec.MovieID, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recommendations (user_id, "rank", movie_id, title, genres, predicted_rating, generated_at)
			 VALUES (?, ?, ?, ?, ?, ?, current_timestamp)`,
			userID, i+1, rec.MovieID, rec.Title, string(genres), rec.PredictedRating); err != nil {
			return fmt.Errorf("failed to insert recommendation %s for user %s: %w", rec.MovieID, userID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recommendation replace: %w", err)
	}
	return nil
}

// Recommendations returns up to limit stored rows for the user in rank
// order.
func (db *DB) Recommendations(ctx context.Context, userID string, limit int) (_ []recommend.RankedMovie, err error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	defer observeQuery("read_recommendations", "recommendations", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT movie_id, title, genres, predicted_rating
		 FROM recommendations
		 WHERE user_id = ?
		 ORDER BY "rank"
		 LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer func() { _ = rows.Close() }() //nolint:errcheck // error on close after read is not actionable

	var recs []recommend.RankedMovie
	for rows.Next() {
		var rec recommend.RankedMovie
		var title, genres sql.NullString

		if err := rows.Scan(&rec.MovieID, &title, &genres, &rec.PredictedRating); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation row: %w", err)
		}
		rec.UserID = userID
		rec.Title = title.String
		if genres.Valid && genres.String != "" {
			if err := json.Unmarshal([]byte(genres.String), &rec.Genres); err != nil {
				// Stored by us as a JSON array; a bad row is logged
				// and served without genres rather than failing the
				// whole read.
				logging.Warn().Err(err).Str("movie_id", rec.MovieID).Msg("Stored genres are not valid JSON")
			}
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recommendation iteration failed: %w", err)
	}

	return recs, nil
}

// RecommendationCount returns how many rows are stored for the user.
func (db *DB) RecommendationCount(ctx context.Context, userID string) (_ int, err error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	defer observeQuery("count_recommendations", "recommendations", time.Now(), &err)

	var n int
	err = db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM recommendations WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count recommendations: %w", err)
	}
	return n, nil
}

// errorIsDone reports whether a rollback failed only because the
// transaction already committed.
func errorIsDone(err error) bool {
	return errors.Is(err, sql.ErrTxDone)
}

// Ensure interface compliance.
var _ recommend.RecommendationStore = (*DB)(nil)
