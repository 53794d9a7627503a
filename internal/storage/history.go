// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wardrobeai/stylist-tui/internal/api"
)

// =============================================================================
// RECOMMENDATION HISTORY
// =============================================================================

// ErrNotFound is returned when a history lookup matches nothing.
var ErrNotFound = errors.New("storage: not found")

// Recommendation is one product the stylist suggested, as recorded locally.
type Recommendation struct {
	ID         int64
	UserID     string
	ThreadID   string
	ProductID  string
	Title      string
	Price      string
	Rating     string
	Retailer   string
	Link       string
	Source     string
	Liked      bool
	RecordedAt time.Time
}

// HistoryStore persists recommendation history in SQLite.
type HistoryStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS recommendations (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id     TEXT NOT NULL,
	thread_id   TEXT NOT NULL DEFAULT '',
	product_id  TEXT NOT NULL,
	title       TEXT NOT NULL,
	price       TEXT NOT NULL DEFAULT '',
	rating      TEXT NOT NULL DEFAULT '',
	retailer    TEXT NOT NULL DEFAULT '',
	link        TEXT NOT NULL DEFAULT '',
	source      TEXT NOT NULL DEFAULT '',
	liked       INTEGER NOT NULL DEFAULT 0,
	recorded_at TIMESTAMP NOT NULL,
	UNIQUE(user_id, thread_id, product_id)
);
CREATE INDEX IF NOT EXISTS idx_recommendations_user
	ON recommendations(user_id, recorded_at DESC);
`

// OpenHistory opens (or creates) the history database at the default
// location (~/.stylist/history.db).
func OpenHistory() (*HistoryStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(home, ".stylist")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return OpenHistoryAt(filepath.Join(dir, "history.db"))
}

// OpenHistoryAt opens (or creates) the history database at path.
func OpenHistoryAt(path string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}
	// SQLite handles one writer at a time; serialize on the pool.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init history schema: %w", err)
	}
	return &HistoryStore{db: db}, nil
}

// Close releases the database handle.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

// Record stores the products from one stylist reply. Products already
// recorded for the same user and thread are skipped, so re-recording after
// a refetch is safe.
func (s *HistoryStore) Record(ctx context.Context, userID, threadID string, list *api.ProductList) error {
	if list == nil || len(list.Items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO recommendations
			(user_id, thread_id, product_id, title, price, rating, retailer, link, source, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, thread_id, product_id) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, p := range list.Items {
		if p.ID == "" {
			continue
		}
		rating := ""
		if p.Rating > 0 {
			rating = strconv.FormatFloat(p.Rating, 'f', -1, 64)
		}
		if _, err := stmt.ExecContext(ctx,
			userID, threadID, p.ID, p.Title, p.Price, rating,
			p.Retailer, p.Link, string(list.Source), now); err != nil {
			return fmt.Errorf("failed to record recommendation %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// MarkLiked flags a recorded recommendation as liked.
func (s *HistoryStore) MarkLiked(ctx context.Context, userID, productID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE recommendations SET liked = 1 WHERE user_id = ? AND product_id = ?`,
		userID, productID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Recent returns up to limit recommendations for userID, newest first.
// A limit of zero or less returns everything.
func (s *HistoryStore) Recent(ctx context.Context, userID string, limit int) ([]Recommendation, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, thread_id, product_id, title, price, rating,
		       retailer, link, source, liked, recorded_at
		FROM recommendations
		WHERE user_id = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecommendations(rows)
}

// Liked returns all liked recommendations for userID, newest first.
func (s *HistoryStore) Liked(ctx context.Context, userID string) ([]Recommendation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, thread_id, product_id, title, price, rating,
		       retailer, link, source, liked, recorded_at
		FROM recommendations
		WHERE user_id = ? AND liked = 1
		ORDER BY recorded_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecommendations(rows)
}

// Count returns how many recommendations are recorded for userID.
func (s *HistoryStore) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recommendations WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

func scanRecommendations(rows *sql.Rows) ([]Recommendation, error) {
	var out []Recommendation
	for rows.Next() {
		var r Recommendation
		if err := rows.Scan(&r.ID, &r.UserID, &r.ThreadID, &r.ProductID,
			&r.Title, &r.Price, &r.Rating, &r.Retailer, &r.Link,
			&r.Source, &r.Liked, &r.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
