// Package storage provides the SQLite cache backing menu link lookups.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver for database/sql

	"github.com/garyellow/whattoeat-linebot/internal/config"
)

// DB wraps the SQLite database connection
type DB struct {
	conn     *sql.DB
	path     string
	cacheTTL time.Duration
}

// New opens (creating if needed) the database at dbPath and initializes the schema.
// cacheTTL specifies how long cached data remains valid before expiring.
func New(ctx context.Context, dbPath string, cacheTTL time.Duration) (*DB, error) {
	inMemory := dbPath == ":memory:"
	if !inMemory {
		if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	conn, err := sql.Open("sqlite", buildDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if inMemory {
		// Every connection to :memory: is a separate database.
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(4)
		conn.SetMaxIdleConns(2)
	}
	conn.SetConnMaxLifetime(config.DatabaseConnMaxLifetime)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := InitSchema(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{
		conn:     conn,
		path:     dbPath,
		cacheTTL: cacheTTL,
	}, nil
}

// buildDSN applies pragmas per connection: WAL for concurrent readers,
// a busy timeout for write contention, NORMAL sync for speed.
func buildDSN(dbPath string) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", config.DatabaseBusyTimeout.Milliseconds()))
	q.Add("_pragma", "synchronous(NORMAL)")
	if dbPath != ":memory:" {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	return "file:" + dbPath + "?" + q.Encode()
}

// Close closes the database connection
func (db *DB) Close() error {
	if db == nil || db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Ping verifies the database is reachable; used by the readiness probe.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// ttlCutoff returns the Unix timestamp before which entries are expired.
func (db *DB) ttlCutoff() int64 {
	return time.Now().Add(-db.cacheTTL).Unix()
}

// NewTestDB creates an in-memory database for testing with a 7-day TTL.
func NewTestDB() (*DB, error) {
	return New(context.Background(), ":memory:", 168*time.Hour)
}
