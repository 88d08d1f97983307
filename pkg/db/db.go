// Package db is the SQLite-backed document store for page snapshots and
// conversion records. Both collections are keyed by natural keys (page URL,
// and (page_url, source, target)) with upsert semantics.
package db

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const DefaultDBName = "convscrape.db"

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

type DB struct {
	*sql.DB
	path string
}

// openDB opens a SQLite database at the given path
func openDB(dbPath string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory database exists per connection; keep the pool at one so
	// every caller sees the same data.
	if dbPath == ":memory:" {
		sqlDB.SetMaxOpenConns(1)
	}

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return sqlDB, nil
}

// Open opens or creates the store at path and ensures the schema exists.
// The handle is passed explicitly to every collaborator; there is no
// package-level database state.
func Open(dbPath string) (*DB, error) {
	if dbPath == "" {
		dbPath = DefaultDBName
	}

	sqlDB, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	db := &DB{
		DB:   sqlDB,
		path: dbPath,
	}

	if err := db.ensureSchemaExists(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// ensureSchemaExists checks if the schema exists and initializes it if not
func (db *DB) ensureSchemaExists() error {
	var tableName string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='pages'").Scan(&tableName)

	if err == sql.ErrNoRows {
		return db.InitSchema()
	}

	if err != nil {
		return fmt.Errorf("failed to check schema: %w", err)
	}

	return nil
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// InitSchema initializes the database schema
func (db *DB) InitSchema() error {
	_, err := db.Exec(schema)
	return err
}
