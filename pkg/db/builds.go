package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	BuildRunning   = "running"
	BuildSucceeded = "succeeded"
	BuildFailed    = "failed"
)

// Build is one recorded build run.
type Build struct {
	BuildID        string
	StartedAt      time.Time
	FinishedAt     sql.NullTime
	Status         string
	UsedCachedData bool
	CategoryCount  int
	ArticleCount   int
	VocabularySize int
	ErrorMessage   sql.NullString
}

// StartBuild records a new running build.
func (db *DB) StartBuild(buildID string, startedAt time.Time, usedCachedData bool) error {
	_, err := db.Exec(`
		INSERT INTO builds (build_id, started_at, status, used_cached_data)
		VALUES (?, ?, ?, ?)
	`, buildID, startedAt.UTC(), BuildRunning, usedCachedData)
	if err != nil {
		return fmt.Errorf("failed to record build start: %w", err)
	}
	return nil
}

// FinishBuild marks a build succeeded with its final counts.
func (db *DB) FinishBuild(buildID string, categories, articles, vocabulary int) error {
	return db.updateBuild(buildID, BuildSucceeded, categories, articles, vocabulary, NewNullString(""))
}

// FailBuild marks a build failed. Counts already known may be zero.
func (db *DB) FailBuild(buildID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return db.updateBuild(buildID, BuildFailed, 0, 0, 0, NewNullString(msg))
}

func (db *DB) updateBuild(buildID, status string, categories, articles, vocabulary int, errMsg sql.NullString) error {
	res, err := db.Exec(`
		UPDATE builds
		SET finished_at = ?, status = ?, category_count = ?, article_count = ?, vocabulary_size = ?, error_message = ?
		WHERE build_id = ?
	`, time.Now().UTC(), status, categories, articles, vocabulary, errMsg, buildID)
	if err != nil {
		return fmt.Errorf("failed to update build: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update build: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("build %s not found", buildID)
	}
	return nil
}

// GetBuild retrieves a build by its ID
func (db *DB) GetBuild(buildID string) (*Build, error) {
	var b Build
	err := db.QueryRow(`
		SELECT build_id, started_at, finished_at, status, used_cached_data,
		       category_count, article_count, vocabulary_size, error_message
		FROM builds
		WHERE build_id = ?
	`, buildID).Scan(&b.BuildID, &b.StartedAt, &b.FinishedAt, &b.Status, &b.UsedCachedData,
		&b.CategoryCount, &b.ArticleCount, &b.VocabularySize, &b.ErrorMessage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("build %s not found", buildID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get build: %w", err)
	}
	return &b, nil
}

// ListBuilds returns the most recent builds first. limit <= 0 returns all.
func (db *DB) ListBuilds(limit int) ([]Build, error) {
	query := `
		SELECT build_id, started_at, finished_at, status, used_cached_data,
		       category_count, article_count, vocabulary_size, error_message
		FROM builds
		ORDER BY started_at DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	defer rows.Close()

	var builds []Build
	for rows.Next() {
		var b Build
		if err := rows.Scan(&b.BuildID, &b.StartedAt, &b.FinishedAt, &b.Status, &b.UsedCachedData,
			&b.CategoryCount, &b.ArticleCount, &b.VocabularySize, &b.ErrorMessage); err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		builds = append(builds, b)
	}
	return builds, rows.Err()
}

// NewNullString returns an invalid NullString for "".
func NewNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
