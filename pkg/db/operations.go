package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dtnitsch/wikicat/models"
	"github.com/dtnitsch/wikicat/pkg/hashing"
)

// BlobInfo describes a stored blob without its content.
type BlobInfo struct {
	Name        string
	ContentHash string
	SizeBytes   int64
	UpdatedAt   time.Time
}

const upsertBlob = `
	INSERT INTO blobs (name, content, content_hash, size_bytes, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		content = excluded.content,
		content_hash = excluded.content_hash,
		size_bytes = excluded.size_bytes,
		updated_at = excluded.updated_at
`

// PutBlob stores content under name, replacing any previous version.
func (db *DB) PutBlob(name string, content []byte) error {
	_, err := db.Exec(upsertBlob, name, content, hashing.ContentHash(content), len(content), time.Now().UTC())
	if err != nil {
		return &models.PersistenceError{Blob: name, Op: "save", Err: err}
	}
	return nil
}

// PutBlobs stores every blob in one transaction: either all are replaced or none.
// Names are written in the order given.
func (db *DB) PutBlobs(names []string, blobs map[string][]byte) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for _, name := range names {
		content, ok := blobs[name]
		if !ok {
			return &models.PersistenceError{Blob: name, Op: "save", Err: errors.New("no content given")}
		}
		if _, err := tx.Exec(upsertBlob, name, content, hashing.ContentHash(content), len(content), now); err != nil {
			return &models.PersistenceError{Blob: name, Op: "save", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit blobs: %w", err)
	}
	return nil
}

// GetBlob returns the content stored under name. A missing blob is a PersistenceError
// wrapping models.ErrBlobNotFound.
func (db *DB) GetBlob(name string) ([]byte, error) {
	var content []byte
	err := db.QueryRow("SELECT content FROM blobs WHERE name = ?", name).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.PersistenceError{Blob: name, Op: "load", Err: models.ErrBlobNotFound}
	}
	if err != nil {
		return nil, &models.PersistenceError{Blob: name, Op: "load", Err: err}
	}
	return content, nil
}

// GetBlobInfo returns metadata for name.
func (db *DB) GetBlobInfo(name string) (*BlobInfo, error) {
	var info BlobInfo
	err := db.QueryRow(`
		SELECT name, content_hash, size_bytes, updated_at
		FROM blobs
		WHERE name = ?
	`, name).Scan(&info.Name, &info.ContentHash, &info.SizeBytes, &info.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.PersistenceError{Blob: name, Op: "load", Err: models.ErrBlobNotFound}
	}
	if err != nil {
		return nil, &models.PersistenceError{Blob: name, Op: "load", Err: err}
	}
	return &info, nil
}

// ListBlobs returns metadata for every stored blob, ordered by name.
func (db *DB) ListBlobs() ([]BlobInfo, error) {
	rows, err := db.Query(`
		SELECT name, content_hash, size_bytes, updated_at
		FROM blobs
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs: %w", err)
	}
	defer rows.Close()

	var blobs []BlobInfo
	for rows.Next() {
		var b BlobInfo
		if err := rows.Scan(&b.Name, &b.ContentHash, &b.SizeBytes, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan blob: %w", err)
		}
		blobs = append(blobs, b)
	}
	return blobs, rows.Err()
}

// DeleteBlob removes name. Deleting a missing blob is not an error.
func (db *DB) DeleteBlob(name string) error {
	if _, err := db.Exec("DELETE FROM blobs WHERE name = ?", name); err != nil {
		return &models.PersistenceError{Blob: name, Op: "delete", Err: err}
	}
	return nil
}
