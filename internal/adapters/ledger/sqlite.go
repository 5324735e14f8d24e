// Package ledger records completed downloads in a SQLite database.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"github.com/jobrunner/granula/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS downloads (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	url           TEXT    NOT NULL,
	path          TEXT    NOT NULL,
	bytes         INTEGER NOT NULL,
	downloaded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_downloads_downloaded_at ON downloads(downloaded_at);
`

// SQLiteLedger implements DownloadLedger on a SQLite file.
type SQLiteLedger struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the ledger database at path.
func Open(ctx context.Context, path string) (*SQLiteLedger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, &domain.StorageError{Operation: "open", Key: path, Err: err}
		}
	}

	// WAL lets concurrent workers append without blocking history reads.
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, &domain.StorageError{Operation: "open", Key: path, Err: err}
	}

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &domain.StorageError{Operation: "open", Key: path, Err: err}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, &domain.StorageError{Operation: "migrate", Key: path, Err: err}
	}

	return &SQLiteLedger{db: db, now: time.Now}, nil
}

// Record stores one completed download. A zero DownloadedAt is set to now.
func (l *SQLiteLedger) Record(ctx context.Context, entry domain.LedgerEntry) error {
	at := entry.DownloadedAt
	if at.IsZero() {
		at = l.now()
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO downloads (url, path, bytes, downloaded_at) VALUES (?, ?, ?, ?)`,
		entry.URL, entry.Path, entry.Bytes, at.UTC().UnixMilli(),
	)
	if err != nil {
		return &domain.StorageError{Operation: "record", Key: entry.URL, Err: err}
	}
	return nil
}

// Recent returns up to limit entries, newest first. limit <= 0 returns all.
func (l *SQLiteLedger) Recent(ctx context.Context, limit int) ([]domain.LedgerEntry, error) {
	query := `SELECT id, url, path, bytes, downloaded_at FROM downloads ORDER BY downloaded_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &domain.StorageError{Operation: "history", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var (
			e  domain.LedgerEntry
			ms int64
		)
		if err := rows.Scan(&e.ID, &e.URL, &e.Path, &e.Bytes, &ms); err != nil {
			return nil, &domain.StorageError{Operation: "history", Err: err}
		}
		e.DownloadedAt = time.UnixMilli(ms).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StorageError{Operation: "history", Err: err}
	}

	return entries, nil
}

// Close closes the database.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}
