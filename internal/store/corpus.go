package store

import (
	"context"
	"fmt"
	"time"
)

// Page is one history or bookmark entry in the search corpus.
type Page struct {
	Locator string
	Title   string
}

// RecordVisit upserts a history row for the URL, bumping its visit
// count and last-visit time. Empty URLs are ignored.
func (s *Store) RecordVisit(ctx context.Context, locator, title string) error {
	if locator == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history(url, title, visit_count, last_visit) VALUES(?, ?, 1, ?)
		 ON CONFLICT(url) DO UPDATE SET
		   title       = excluded.title,
		   visit_count = visit_count + 1,
		   last_visit  = excluded.last_visit`,
		locator, title, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("recording visit: %w", err)
	}
	return nil
}

// RecentHistory returns the most recently visited pages, newest first.
func (s *Store) RecentHistory(ctx context.Context, limit int) ([]Page, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, COALESCE(title, '') FROM history
		 ORDER BY last_visit DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	return scanPages(rows)
}

// SaveBookmark upserts a bookmark.
func (s *Store) SaveBookmark(ctx context.Context, locator, title string) error {
	if locator == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bookmarks(url, title, added_at) VALUES(?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET title = excluded.title`,
		locator, title, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("saving bookmark: %w", err)
	}
	return nil
}

// ReplaceBookmarks swaps the whole bookmark set in one transaction.
// Used when the browser sends a full bookmark snapshot.
func (s *Store) ReplaceBookmarks(ctx context.Context, pages []Page) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replacing bookmarks: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bookmarks`); err != nil {
		return fmt.Errorf("replacing bookmarks: %w", err)
	}
	now := time.Now().Unix()
	for _, p := range pages {
		if p.Locator == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO bookmarks(url, title, added_at) VALUES(?, ?, ?)
			 ON CONFLICT(url) DO UPDATE SET title = excluded.title`,
			p.Locator, p.Title, now); err != nil {
			return fmt.Errorf("replacing bookmarks: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replacing bookmarks: %w", err)
	}
	return nil
}

// DeleteBookmark removes a bookmark. Absent URLs are a no-op.
func (s *Store) DeleteBookmark(ctx context.Context, locator string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE url = ?`, locator); err != nil {
		return fmt.Errorf("deleting bookmark: %w", err)
	}
	return nil
}

// Bookmarks returns all bookmarks, newest first.
func (s *Store) Bookmarks(ctx context.Context) ([]Page, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, COALESCE(title, '') FROM bookmarks ORDER BY added_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying bookmarks: %w", err)
	}
	defer rows.Close()

	return scanPages(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanPages(rows rowScanner) ([]Page, error) {
	var pages []Page
	for rows.Next() {
		var p Page
		if err := rows.Scan(&p.Locator, &p.Title); err != nil {
			return nil, fmt.Errorf("scanning page row: %w", err)
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating page rows: %w", err)
	}
	return pages, nil
}
