// Package db is the SQLite store behind every persisted artifact: named blobs (crawl results,
// label codec, classifier, manifest) and a history of build runs.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

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

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = sqlDB.Close() // Close error less important than PRAGMA error
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return sqlDB, nil
}

// Open opens or creates the store at dbPath, creating its directory when needed.
func Open(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
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
		_ = db.Close() // Close error less important than schema error
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// OpenExisting opens a store that must already exist, read-only. The file is never created or
// given a schema, so a path that is not a wikicat store is an error.
func OpenExisting(dbPath string) (*DB, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("store %s: %w", dbPath, err)
	}

	sqlDB, err := openDB("file:" + uriEscaper.Replace(dbPath) + "?mode=ro")
	if err != nil {
		return nil, err
	}
	db := &DB{
		DB:   sqlDB,
		path: dbPath,
	}

	exists, err := db.schemaExists()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if !exists {
		_ = db.Close()
		return nil, fmt.Errorf("store %s has no wikicat schema", dbPath)
	}
	return db, nil
}

// NewWithDB wraps an already opened connection without touching the schema.
func NewWithDB(sqlDB *sql.DB) *DB {
	return &DB{DB: sqlDB}
}

// ensureSchemaExists checks if the schema exists and initializes it if not
func (db *DB) ensureSchemaExists() error {
	exists, err := db.schemaExists()
	if err != nil {
		return err
	}
	if !exists {
		return db.InitSchema()
	}
	return nil
}

func (db *DB) schemaExists() (bool, error) {
	var tableName string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='blobs'").Scan(&tableName)

	if err == sql.ErrNoRows {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to check schema: %w", err)
	}

	return true, nil
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
