// Package archive mirrors governance logs into SQLite for audit
// queries over histories too large to scan line by line.
//
// The archive is a read-side tool: the durable JSONL log stays the
// source of truth, and Import is idempotent, so re-importing the same
// log (or an extended version of it) is always safe.
package archive

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Archive provides durable, queryable storage for governance events.
// Uses SQLite with WAL mode for concurrent read access.
type Archive struct {
	db *sql.DB
}

// Open creates or opens a SQLite archive at the given path. Applies
// required pragmas and the schema automatically; safe to call on an
// existing archive.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to archive: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY during imports.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Archive{db: db}, nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return nil
}

// Count returns the number of archived events.
func (a *Archive) Count(ctx context.Context) (int64, error) {
	var count int64
	err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

// LastID returns the highest archived event id, or 0 for an empty
// archive.
func (a *Archive) LastID(ctx context.Context) (int64, error) {
	var last sql.NullInt64
	err := a.db.QueryRowContext(ctx, "SELECT MAX(id) FROM events").Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("last event id: %w", err)
	}
	return last.Int64, nil
}
