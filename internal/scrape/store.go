package scrape

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/contextdeck/contextdeck/internal/db"
)

// JobStatus is the lifecycle state of a scrape job.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job tracks a single scrape request through its lifecycle. Completed jobs
// point at the media context created from the scraped content.
type Job struct {
	ID             string    `json:"id"`
	URL            string    `json:"url"`
	RemoteID       string    `json:"remote_id,omitempty"`
	Status         JobStatus `json:"status"`
	Error          string    `json:"error,omitempty"`
	MediaContextID string    `json:"media_context_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Store provides persistence for scrape jobs.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// CreateJob inserts a new pending job. The generated ID is written back.
func (s *Store) CreateJob(ctx context.Context, job *Job) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = StatusPending
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scrape_jobs (id, url, remote_id, status, error, media_context_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.URL, job.RemoteID, string(job.Status), job.Error,
		nullable(job.MediaContextID),
		now.Format(time.DateTime), now.Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("inserting scrape job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, url, remote_id, status, error, media_context_id, created_at, updated_at
		FROM scrape_jobs WHERE id = ?`, id)
	return scanJob(row)
}

// ListJobs returns jobs newest first, optionally filtered by status.
func (s *Store) ListJobs(ctx context.Context, status JobStatus) ([]Job, error) {
	query := `
		SELECT id, url, remote_id, status, error, media_context_id, created_at, updated_at
		FROM scrape_jobs`
	args := []any{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying scrape jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// UpdateJob writes the mutable fields of a job back to the database.
func (s *Store) UpdateJob(ctx context.Context, job *Job) error {
	job.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE scrape_jobs
		SET remote_id = ?, status = ?, error = ?, media_context_id = ?, updated_at = ?
		WHERE id = ?`,
		job.RemoteID, string(job.Status), job.Error,
		nullable(job.MediaContextID),
		job.UpdatedAt.Format(time.DateTime), job.ID,
	)
	if err != nil {
		return fmt.Errorf("updating scrape job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(sc scanner) (*Job, error) {
	var (
		job              Job
		status           string
		mediaContextID   sql.NullString
		created, updated string
	)
	err := sc.Scan(
		&job.ID, &job.URL, &job.RemoteID, &status, &job.Error,
		&mediaContextID, &created, &updated,
	)
	if err != nil {
		return nil, err
	}
	job.Status = JobStatus(status)
	job.MediaContextID = mediaContextID.String
	job.CreatedAt = parseTimestamp(created)
	job.UpdatedAt = parseTimestamp(updated)
	return &job, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(time.DateTime, s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}
