package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

var errNotFound = errors.New("file not found")

// ledger records the chorus files written by the service so they can be
// served, cleaned up and expired.
type ledger struct {
	db *sql.DB
}

// entry is one stored chorus file.
type entry struct {
	ID              string
	Path            string
	SourceName      string
	Quality         string
	StartSeconds    float64
	DurationSeconds float64
	CreatedAt       time.Time
}

func openLedger(dataSourceName string) (*ledger, error) {
	dbPath := dataSourceName
	if idx := strings.Index(dataSourceName, "?"); idx != -1 {
		dbPath = dataSourceName[:idx]
	}
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, outputDirPerm); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	if !strings.Contains(dataSourceName, "_busy_timeout") {
		sep := "?"
		if strings.Contains(dataSourceName, "?") {
			sep = "&"
		}
		dataSourceName += sep + "_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &ledger{db: db}, nil
}

func createTables(db *sql.DB) error {
	const schema = `
    CREATE TABLE IF NOT EXISTS chorus_files (
        id TEXT PRIMARY KEY,
        path TEXT NOT NULL,
        source_name TEXT NOT NULL DEFAULT '',
        quality TEXT NOT NULL DEFAULT '',
        start_seconds REAL NOT NULL DEFAULT 0,
        duration_seconds REAL NOT NULL DEFAULT 0,
        created_at INTEGER NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_chorus_files_created ON chorus_files(created_at);
    `
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating ledger tables: %w", err)
	}
	return nil
}

func (l *ledger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

func (l *ledger) record(ctx context.Context, e entry) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO chorus_files
		 (id, path, source_name, quality, start_seconds, duration_seconds, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Path, e.SourceName, e.Quality, e.StartSeconds, e.DurationSeconds, e.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("recording %s: %w", e.ID, err)
	}
	return nil
}

func (l *ledger) lookup(ctx context.Context, id string) (entry, error) {
	var (
		e       entry
		created int64
	)
	err := l.db.QueryRowContext(ctx,
		`SELECT id, path, source_name, quality, start_seconds, duration_seconds, created_at
		 FROM chorus_files WHERE id = ?`, id).
		Scan(&e.ID, &e.Path, &e.SourceName, &e.Quality, &e.StartSeconds, &e.DurationSeconds, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return entry{}, fmt.Errorf("%w: %s", errNotFound, id)
	}
	if err != nil {
		return entry{}, fmt.Errorf("looking up %s: %w", id, err)
	}
	e.CreatedAt = time.Unix(created, 0)
	return e, nil
}

// remove deletes the entry and its file. Removing an unknown id is not an
// error.
func (l *ledger) remove(ctx context.Context, id string) error {
	e, err := l.lookup(ctx, id)
	if errors.Is(err, errNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := os.Remove(e.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", e.Path, err)
	}
	if _, err := l.db.ExecContext(ctx, `DELETE FROM chorus_files WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting %s: %w", id, err)
	}
	return nil
}

// expire removes every entry created before cutoff and returns how many
// were removed.
func (l *ledger) expire(ctx context.Context, cutoff time.Time) (int, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id FROM chorus_files WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("listing expired files: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("scanning expired files: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return 0, err
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for i, id := range ids {
		if err := l.remove(ctx, id); err != nil {
			return i, err
		}
	}
	return len(ids), nil
}
