// Package storage persists submissions in a local SQLite database.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/newsproof/newsproof/internal/classify"
	"github.com/newsproof/newsproof/internal/ingest"
)

const defaultPerPage = 10

// SubmissionStore implements ingest.Store on SQLite.
type SubmissionStore struct {
	db *sql.DB
}

// NewSubmissionStore opens (or creates) the database at path and ensures the
// schema exists.
func NewSubmissionStore(path string) (*SubmissionStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// modernc sqlite serializes writes; one connection avoids lock churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect sqlite database: %w", err)
	}

	store := &SubmissionStore{db: db}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SubmissionStore) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS submissions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			type TEXT NOT NULL,
			content TEXT NOT NULL,
			original_url TEXT,
			title TEXT,
			word_count INTEGER NOT NULL DEFAULT 0,
			prediction TEXT,
			confidence REAL,
			processing_time REAL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_user_created ON submissions(user_id, created_at)`,
	}
	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("execute schema query: %w", err)
		}
	}
	return nil
}

// Create inserts a new submission row without a prediction yet.
func (s *SubmissionStore) Create(ctx context.Context, sub *ingest.Submission) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, user_id, type, content, original_url, title, word_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.UserID, sub.Type, sub.Content, sub.OriginalURL, sub.Title, sub.WordCount, sub.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// RecordPrediction fills in the classification outcome for a submission.
func (s *SubmissionStore) RecordPrediction(ctx context.Context, id string, label classify.Label, confidence, processingTime float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE submissions SET prediction = ?, confidence = ?, processing_time = ? WHERE id = ?`,
		string(label), confidence, processingTime, id,
	)
	if err != nil {
		return fmt.Errorf("update prediction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("submission %s not found", id)
	}
	return nil
}

// ListByUser returns the user's submissions, newest first. Page numbering
// starts at 1.
func (s *SubmissionStore) ListByUser(ctx context.Context, userID string, page, perPage int) ([]ingest.Submission, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, type, content, original_url, title, word_count,
		        COALESCE(prediction, ''), COALESCE(confidence, 0), COALESCE(processing_time, 0), created_at
		 FROM submissions WHERE user_id = ?
		 ORDER BY created_at DESC, id
		 LIMIT ? OFFSET ?`,
		userID, perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var subs []ingest.Submission
	for rows.Next() {
		var sub ingest.Submission
		var prediction string
		var createdAt int64
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Type, &sub.Content, &sub.OriginalURL, &sub.Title,
			&sub.WordCount, &prediction, &sub.Confidence, &sub.ProcessingTime, &createdAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		sub.Prediction = classify.Label(prediction)
		sub.CreatedAt = time.Unix(createdAt, 0)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Stats counts stored submissions per verdict.
func (s *SubmissionStore) Stats(ctx context.Context) (ingest.Stats, error) {
	stats := ingest.Stats{ByLabel: make(map[classify.Label]int)}

	rows, err := s.db.QueryContext(ctx,
		`SELECT COALESCE(prediction, ''), COUNT(*) FROM submissions GROUP BY prediction`)
	if err != nil {
		return stats, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var label string
		var count int
		if err := rows.Scan(&label, &count); err != nil {
			return stats, fmt.Errorf("scan stats: %w", err)
		}
		stats.Total += count
		if label != "" {
			stats.ByLabel[classify.Label(label)] = count
		}
	}
	return stats, rows.Err()
}

// Close releases the underlying database handle.
func (s *SubmissionStore) Close() error {
	return s.db.Close()
}
