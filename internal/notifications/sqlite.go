package notifications

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps seen digests in a single sqlite database. INSERT OR
// IGNORE against the (scope, digest) primary key is the atomic
// check-then-create unit.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and
// ensures the schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open seen store: %w", err)
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS seen_hashes (
			scope   TEXT NOT NULL,
			digest  TEXT NOT NULL,
			seen_at INTEGER NOT NULL,
			PRIMARY KEY (scope, digest)
		)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create seen_hashes table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// MarkIfNew inserts the record and reports whether a row was created.
func (s *SQLiteStore) MarkIfNew(ctx context.Context, scopeKey, digest string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO seen_hashes (scope, digest, seen_at)
		VALUES (?, ?, ?)`,
		scopeKey, digest, time.Now().Unix())
	if err != nil {
		return false, fmt.Errorf("insert seen hash: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows > 0, nil
}

// Prune deletes records last seen before the cutoff.
func (s *SQLiteStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM seen_hashes WHERE seen_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune seen store: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(rows), nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
