// Package db is the durable stack store: the per-work-order pending queue
// of encoded services, backed by sqlite. It is the sole source of truth for
// what remains to be pushed and must survive process restarts, so every
// mutation happens inside a transaction under an exclusive file lock.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const dbFile = ".wo/stack.db"

// DB wraps the stack database connection.
type DB struct {
	conn    *sql.DB
	baseDir string
}

// Open opens an existing stack database.
func Open(baseDir string) (*DB, error) {
	dbPath := filepath.Join(baseDir, dbFile)

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("stack database not found: run 'wo init' first")
	}

	return open(baseDir, dbPath)
}

// Initialize creates the stack database and its schema.
func Initialize(baseDir string) (*DB, error) {
	dbPath := filepath.Join(baseDir, dbFile)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	return open(baseDir, dbPath)
}

func open(baseDir, dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL for concurrent reads while writes are serialized
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=500"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	db := &DB{conn: conn, baseDir: baseDir}

	if err := db.ensureSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// withWriteLock executes fn while holding the exclusive write lock.
// Single-writer discipline: concurrent stack stores are not supported.
func (db *DB) withWriteLock(fn func() error) error {
	locker := newWriteLocker(db.baseDir)
	if err := locker.acquire(defaultTimeout); err != nil {
		return err
	}
	defer locker.release()
	return fn()
}

func (db *DB) ensureSchema() error {
	return db.withWriteLock(func() error {
		if _, err := db.conn.Exec(schema); err != nil {
			return err
		}
		_, err := db.conn.Exec(
			`INSERT OR REPLACE INTO schema_info (key, value) VALUES ('version', ?)`,
			fmt.Sprintf("%d", SchemaVersion))
		return err
	})
}

// SchemaVersionInDB returns the schema version recorded in the database.
func (db *DB) SchemaVersionInDB() (int, error) {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM schema_info WHERE key = 'version'`).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var v int
	fmt.Sscanf(value, "%d", &v)
	return v, nil
}
