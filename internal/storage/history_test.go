// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wardrobeai/stylist-tui/internal/api"
)

func openTestStore(t *testing.T) *HistoryStore {
	t.Helper()
	s, err := OpenHistoryAt(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenHistoryAt: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func rankedList(products ...api.Product) *api.ProductList {
	return &api.ProductList{Source: api.SourceRanked, Items: products}
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	list := rankedList(
		api.Product{ID: "p1", Title: "Linen Shirt", Price: "$49", Retailer: "acme"},
		api.Product{ID: "p2", Title: "Denim Jacket", Price: "$120"},
	)
	if err := s.Record(ctx, "alice", "t1", list); err != nil {
		t.Fatalf("Record: %v", err)
	}

	recs, err := s.Recent(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(recs))
	}
	if recs[0].Source != "ranked" {
		t.Errorf("source = %q, want ranked", recs[0].Source)
	}

	// Other users see nothing.
	other, err := s.Recent(ctx, "bob", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("bob should have no history, got %d", len(other))
	}
}

func TestRecordIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	list := rankedList(api.Product{ID: "p1", Title: "Linen Shirt"})
	for i := 0; i < 3; i++ {
		if err := s.Record(ctx, "alice", "t1", list); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	n, err := s.Count(ctx, "alice")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1 after duplicate records", n)
	}

	// Same product in a different thread is a separate row.
	if err := s.Record(ctx, "alice", "t2", list); err != nil {
		t.Fatalf("Record: %v", err)
	}
	n, _ = s.Count(ctx, "alice")
	if n != 2 {
		t.Errorf("count = %d, want 2 across threads", n)
	}
}

func TestRecordSkipsEmpty(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Record(ctx, "alice", "t1", nil); err != nil {
		t.Errorf("nil list: %v", err)
	}
	if err := s.Record(ctx, "alice", "t1", rankedList()); err != nil {
		t.Errorf("empty list: %v", err)
	}
	if err := s.Record(ctx, "alice", "t1", rankedList(api.Product{Title: "no id"})); err != nil {
		t.Errorf("id-less product: %v", err)
	}

	n, _ := s.Count(ctx, "alice")
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestMarkLiked(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	list := rankedList(
		api.Product{ID: "p1", Title: "Linen Shirt"},
		api.Product{ID: "p2", Title: "Denim Jacket"},
	)
	if err := s.Record(ctx, "alice", "t1", list); err != nil {
		t.Fatalf("Record: %v", err)
	}

	if err := s.MarkLiked(ctx, "alice", "p2"); err != nil {
		t.Fatalf("MarkLiked: %v", err)
	}
	if err := s.MarkLiked(ctx, "alice", "missing"); err != ErrNotFound {
		t.Errorf("MarkLiked missing = %v, want ErrNotFound", err)
	}

	liked, err := s.Liked(ctx, "alice")
	if err != nil {
		t.Fatalf("Liked: %v", err)
	}
	if len(liked) != 1 || liked[0].ProductID != "p2" {
		t.Errorf("liked = %+v, want just p2", liked)
	}
}

func TestExportMarkdown(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	empty, err := s.ExportMarkdown(ctx, "alice")
	if err != nil {
		t.Fatalf("ExportMarkdown: %v", err)
	}
	if !strings.Contains(empty, "No recommendations") {
		t.Error("empty export should note empty history")
	}

	list := rankedList(api.Product{
		ID: "p1", Title: "Linen Shirt", Price: "$49",
		Retailer: "acme", Link: "https://shop.example/p1",
	})
	if err := s.Record(ctx, "alice", "t1", list); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.MarkLiked(ctx, "alice", "p1"); err != nil {
		t.Fatalf("MarkLiked: %v", err)
	}

	doc, err := s.ExportMarkdown(ctx, "alice")
	if err != nil {
		t.Fatalf("ExportMarkdown: %v", err)
	}
	for _, want := range []string{"Linen Shirt", "$49", "acme", "https://shop.example/p1", "♥", "Chat t1"} {
		if !strings.Contains(doc, want) {
			t.Errorf("export missing %q:\n%s", want, doc)
		}
	}
}
