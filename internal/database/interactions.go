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

	"github.com/tomtom215/reelway/internal/recommend"
)

// ListInteractions returns every user's raw list for one source. Users
// whose list is an empty array are included; the extractor decides what
// to do with them.
func (db *DB) ListInteractions(ctx context.Context, source string) (_ []recommend.InteractionList, err error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	defer observeQuery("list_interactions", "interaction_lists", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, items FROM interaction_lists WHERE source = ? ORDER BY user_id`,
		source)
	if err != nil {
		return nil, fmt.Errorf("failed to query interaction lists: %w", err)
	}
	defer func() { _ = rows.Close() }() //nolint:errcheck // error on close after read is not actionable

	var lists []recommend.InteractionList
	for rows.Next() {
		var userID, items string
		if err := rows.Scan(&userID, &items); err != nil {
			return nil, fmt.Errorf("failed to scan interaction list: %w", err)
		}
		lists = append(lists, recommend.InteractionList{
			UserID: userID,
			Source: source,
			Items:  []byte(items),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("interaction list iteration failed: %w", err)
	}

	return lists, nil
}

// UserInteractions returns one user's raw list for one source. A user
// without a stored row yields an empty array, not an error.
func (db *DB) UserInteractions(ctx context.Context, userID, source string) (_ recommend.InteractionList, err error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	defer observeQuery("user_interactions", "interaction_lists", time.Now(), &err)

	list := recommend.InteractionList{
		UserID: userID,
		Source: source,
		Items:  []byte("[]"),
	}

	var items string
	err = db.conn.QueryRowContext(ctx,
		`SELECT items FROM interaction_lists WHERE user_id = ? AND source = ?`,
		userID, source).Scan(&items)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return list, nil
	case err != nil:
		return list, fmt.Errorf("failed to query user interactions: %w", err)
	}

	list.Items = []byte(items)
	return list, nil
}

// UpsertInteractionList stores a user's raw list for one source,
// replacing any previous value.
func (db *DB) UpsertInteractionList(ctx context.Context, userID, source string, items []byte) (err error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	defer observeQuery("upsert_interaction_list", "interaction_lists", time.Now(), &err)

	if len(items) == 0 {
		items = []byte("[]")
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO interaction_lists (user_id, source, items, updated_at)
		 VALUES (?, ?, ?, current_timestamp)
		 ON CONFLICT (user_id, source) DO UPDATE SET
			items = excluded.items,
			updated_at = now()`,
		userID, source, string(items))
	if err != nil {
		return fmt.Errorf("failed to upsert interaction list: %w", err)
	}
	return nil
}

// Ensure interface compliance.
var _ recommend.InteractionSource = (*DB)(nil)
