// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

package database

import (
	"context"
	"fmt"
)

// schemaStatements creates the three tables the recommendation core
// reads and writes. Statements are idempotent so reopening an existing
// file is a no-op.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS movies (
		movie_id    VARCHAR PRIMARY KEY,
		title       VARCHAR NOT NULL,
		genres      VARCHAR,
		poster_url  VARCHAR,
		trailer_url VARCHAR
	)`,

	// One row per user per source; items is the raw JSON array of item
	// references exactly as the streaming backend wrote it.
	`CREATE TABLE IF NOT EXISTS interaction_lists (
		user_id    VARCHAR NOT NULL,
		source     VARCHAR NOT NULL,
		items      VARCHAR NOT NULL DEFAULT '[]',
		updated_at TIMESTAMP DEFAULT current_timestamp,
		PRIMARY KEY (user_id, source)
	)`,

	`CREATE TABLE IF NOT EXISTS recommendations (
		user_id          VARCHAR NOT NULL,
		"rank"           INTEGER NOT NULL,
		movie_id         VARCHAR NOT NULL,
		title            VARCHAR,
		genres           VARCHAR,
		predicted_rating DOUBLE NOT NULL,
		generated_at     TIMESTAMP DEFAULT current_timestamp,
		PRIMARY KEY (user_id, "rank")
	)`,

	`CREATE INDEX IF NOT EXISTS idx_interaction_lists_source
		ON interaction_lists (source)`,

	`CREATE INDEX IF NOT EXISTS idx_recommendations_user
		ON recommendations (user_id)`,
}

// createTables applies the schema.
func (db *DB) createTables(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
