// Package sqlitestore provides a durable kvstore.Store backed by SQLite.
// It plays the origin-scoped shared store when tabs live in separate
// processes: every process opening the same file sees the same entries.
package sqlitestore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/pkg/errors"

	"github.com/cleanflow/go-client-session/kvstore"
)

const (
	dirPermissions = 0750
	busyTimeout    = 5 * time.Second
)

var _ kvstore.Store = (*SQLiteStore)(nil)

// SQLiteStore implements kvstore.Store over a single-table SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database file at path and ensures the
// entries table exists. WAL mode is enabled so concurrent readers are not
// blocked by a writer in another process.
func Open(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, errors.Wrap(err, "[sqlitestore.Open] creating database directory")
	}

	connStr := fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL&_synchronous=NORMAL",
		path, busyTimeout.Milliseconds())

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, errors.Wrap(err, "[sqlitestore.Open] opening database")
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS entries (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "[sqlitestore.Open] creating entries table")
	}

	return &SQLiteStore{db: db, path: path}, nil
}

func (ss *SQLiteStore) Get(key string) (string, bool, error) {
	var value string
	err := ss.db.QueryRow(`SELECT value FROM entries WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "[SQLiteStore.Get] querying entry")
	}
	return value, true, nil
}

func (ss *SQLiteStore) Set(key, value string) error {
	_, err := ss.db.Exec(
		`INSERT INTO entries (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return errors.Wrap(err, "[SQLiteStore.Set] upserting entry")
	}
	return nil
}

func (ss *SQLiteStore) Delete(key string) error {
	if _, err := ss.db.Exec(`DELETE FROM entries WHERE key = ?`, key); err != nil {
		return errors.Wrap(err, "[SQLiteStore.Delete] deleting entry")
	}
	return nil
}

// Close closes the underlying database connection.
func (ss *SQLiteStore) Close() error {
	if err := ss.db.Close(); err != nil {
		return errors.Wrap(err, "[SQLiteStore.Close] closing database")
	}
	return nil
}
