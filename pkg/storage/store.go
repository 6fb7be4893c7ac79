// Package storage caches the last probed status of each agent in a local
// SQLite database, so list views can paint immediately while fresh probes
// run in the background.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DBFileName is the cache database file created under the data directory.
const DBFileName = "status.db"

// Record is one agent's cached status.
type Record struct {
	Path    string
	Label   string
	State   string
	Enabled bool
	Updated time.Time
}

// Store is a status cache backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open creates or opens the cache database under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, DBFileName))
	if err != nil {
		return nil, fmt.Errorf("open status cache: %w", err)
	}

	// WAL lets a background prober write while the UI reads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("configure status cache: %w", err)
		}
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate status cache: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS agent_status (
		path TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		state TEXT NOT NULL,
		enabled INTEGER NOT NULL,
		updated_at_unixms INTEGER NOT NULL
	);`)
	return err
}

// Put inserts or replaces the cached status for rec.Path.
func (s *Store) Put(rec Record) error {
	if rec.Path == "" {
		return errors.New("empty record path")
	}
	if rec.Updated.IsZero() {
		rec.Updated = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO agent_status(path, label, state, enabled, updated_at_unixms) VALUES(?, ?, ?, ?, ?)`,
		rec.Path, rec.Label, rec.State, boolToInt(rec.Enabled), rec.Updated.UnixMilli(),
	)
	return err
}

// Get returns the cached status for path, reporting whether one exists.
func (s *Store) Get(path string) (Record, bool, error) {
	var rec Record
	var enabled int
	var updatedMs int64
	err := s.db.QueryRow(
		`SELECT path, label, state, enabled, updated_at_unixms FROM agent_status WHERE path = ?`,
		path,
	).Scan(&rec.Path, &rec.Label, &rec.State, &enabled, &updatedMs)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	rec.Enabled = enabled != 0
	rec.Updated = time.UnixMilli(updatedMs)
	return rec, true, nil
}

// All returns every cached record, ordered by path.
func (s *Store) All() ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT path, label, state, enabled, updated_at_unixms FROM agent_status ORDER BY path ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var enabled int
		var updatedMs int64
		if err := rows.Scan(&rec.Path, &rec.Label, &rec.State, &enabled, &updatedMs); err != nil {
			return nil, err
		}
		rec.Enabled = enabled != 0
		rec.Updated = time.UnixMilli(updatedMs)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes the cached status for path. Deleting an absent path is not
// an error.
func (s *Store) Delete(path string) error {
	_, err := s.db.Exec(`DELETE FROM agent_status WHERE path = ?`, path)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
