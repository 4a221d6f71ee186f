// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

package database

import (
	"context"
	"testing"

	"github.com/tomtom215/reelway/internal/recommend"
)

func TestInteractionListsRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	seedList(t, db, "u1", recommend.SourceLiked, `[42, "43", {"movieId": 44}]`)
	seedList(t, db, "u2", recommend.SourceLiked, `[50]`)
	seedList(t, db, "u1", recommend.SourceSaved, `[60]`)

	lists, err := db.ListInteractions(ctx, recommend.SourceLiked)
	if err != nil {
		t.Fatalf("ListInteractions() error: %v", err)
	}

	if len(lists) != 2 {
		t.Fatalf("got %d liked lists, want 2", len(lists))
	}
	// Ordered by user ID.
	if lists[0].UserID != "u1" || lists[1].UserID != "u2" {
		t.Errorf("list order = %s, %s", lists[0].UserID, lists[1].UserID)
	}
	if lists[0].Source != recommend.SourceLiked {
		t.Errorf("source = %q, want liked", lists[0].Source)
	}
	if string(lists[0].Items) != `[42, "43", {"movieId": 44}]` {
		t.Errorf("items passed through modified: %s", lists[0].Items)
	}
}

func TestListInteractionsEmptySource(t *testing.T) {
	db := setupTestDB(t)

	lists, err := db.ListInteractions(context.Background(), recommend.SourceViewed)
	if err != nil {
		t.Fatalf("ListInteractions() error: %v", err)
	}
	if len(lists) != 0 {
		t.Errorf("got %d lists for empty source, want 0", len(lists))
	}
}

func TestUserInteractions(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	seedList(t, db, "u1", recommend.SourceLiked, `[42]`)

	t.Run("existing row", func(t *testing.T) {
		list, err := db.UserInteractions(ctx, "u1", recommend.SourceLiked)
		if err != nil {
			t.Fatalf("UserInteractions() error: %v", err)
		}
		if string(list.Items) != `[42]` {
			t.Errorf("items = %s, want [42]", list.Items)
		}
	})

	t.Run("missing row yields empty array", func(t *testing.T) {
		list, err := db.UserInteractions(ctx, "nobody", recommend.SourceLiked)
		if err != nil {
			t.Fatalf("UserInteractions() error: %v", err)
		}
		if string(list.Items) != "[]" {
			t.Errorf("items = %s, want []", list.Items)
		}
	})
}

func TestUpsertInteractionListReplaces(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	seedList(t, db, "u1", recommend.SourceLiked, `[1]`)
	seedList(t, db, "u1", recommend.SourceLiked, `[1, 2, 3]`)

	list, err := db.UserInteractions(ctx, "u1", recommend.SourceLiked)
	if err != nil {
		t.Fatalf("UserInteractions() error: %v", err)
	}
	if string(list.Items) != `[1, 2, 3]` {
		t.Errorf("items = %s, want replaced list", list.Items)
	}
}
