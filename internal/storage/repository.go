package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MenuLink is a cached image search result for a restaurant menu query.
type MenuLink struct {
	Query    string
	Link     string
	CachedAt int64
}

// maxQueryLength bounds cache keys; longer queries are not cached.
const maxQueryLength = 200

// SaveMenuLink inserts or refreshes the link for query.
func (db *DB) SaveMenuLink(ctx context.Context, query, link string) error {
	query = strings.TrimSpace(query)
	if query == "" || link == "" {
		return errors.New("menu link: empty query or link")
	}
	if len([]rune(query)) > maxQueryLength {
		return fmt.Errorf("menu link: query longer than %d runes", maxQueryLength)
	}

	const stmt = `
	INSERT INTO menu_links (query, link, cached_at) VALUES (?, ?, ?)
	ON CONFLICT(query) DO UPDATE SET link = excluded.link, cached_at = excluded.cached_at`

	if _, err := db.conn.ExecContext(ctx, stmt, query, link, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to save menu link: %w", err)
	}
	return nil
}

// GetMenuLink returns the cached link for query. Expired and missing
// entries both return nil, nil.
func (db *DB) GetMenuLink(ctx context.Context, query string) (*MenuLink, error) {
	const stmt = `SELECT query, link, cached_at FROM menu_links WHERE query = ? AND cached_at > ?`

	var ml MenuLink
	err := db.conn.QueryRowContext(ctx, stmt, strings.TrimSpace(query), db.ttlCutoff()).
		Scan(&ml.Query, &ml.Link, &ml.CachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query menu link: %w", err)
	}
	return &ml, nil
}

// DeleteExpiredMenuLinks removes entries older than ttl.
func (db *DB) DeleteExpiredMenuLinks(ctx context.Context, ttl time.Duration) (int64, error) {
	const stmt = `DELETE FROM menu_links WHERE cached_at < ?`
	expiryTime := time.Now().Add(-ttl).Unix()

	result, err := db.conn.ExecContext(ctx, stmt, expiryTime)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired menu links: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected for menu links: %w", err)
	}
	return rowsAffected, nil
}

// CountMenuLinks returns the number of unexpired menu links.
func (db *DB) CountMenuLinks(ctx context.Context) (int, error) {
	const stmt = `SELECT COUNT(*) FROM menu_links WHERE cached_at > ?`

	var count int
	if err := db.conn.QueryRowContext(ctx, stmt, db.ttlCutoff()).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count menu links: %w", err)
	}
	return count, nil
}

// touchMenuLink rewrites cached_at; tests use it to age entries.
func (db *DB) touchMenuLink(ctx context.Context, query string, cachedAt time.Time) error {
	_, err := db.conn.ExecContext(ctx, `UPDATE menu_links SET cached_at = ? WHERE query = ?`, cachedAt.Unix(), query)
	return err
}
