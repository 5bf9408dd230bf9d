package pages

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/contextdeck/contextdeck/internal/db"
)

// Store provides persistence for generated pages.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// CreatePage inserts a new page. If p.ID is empty a UUID is generated and
// written back into p.
func (s *Store) CreatePage(ctx context.Context, p *Page) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}

	ids, err := json.Marshal(p.ContextIDs)
	if err != nil {
		return fmt.Errorf("encoding context ids: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO generated_pages (
			id, created_at, name, description, html_content, prompt,
			media_context_ids, status, file_size, view_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.CreatedAt.Format(time.DateTime),
		p.Name,
		p.Description,
		p.HTMLContent,
		p.Prompt,
		string(ids),
		string(p.Status),
		p.FileSize,
		p.ViewCount,
	)
	if err != nil {
		return fmt.Errorf("inserting page: %w", err)
	}
	return nil
}

// GetPage retrieves a single page by ID, including its HTML content.
func (s *Store) GetPage(ctx context.Context, id string) (*Page, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, name, description, html_content, prompt,
			   media_context_ids, status, file_size, view_count, last_viewed_at
		FROM generated_pages WHERE id = ?`, id)
	return scanPage(row)
}

// ListPages returns page metadata, optionally filtered by status, newest
// first. HTML content is omitted to keep list responses small.
func (s *Store) ListPages(ctx context.Context, status Status) ([]Page, error) {
	query := `
		SELECT id, created_at, name, description, '', prompt,
			   media_context_ids, status, file_size, view_count, last_viewed_at
		FROM generated_pages`
	args := []any{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying pages: %w", err)
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, *p)
	}
	return pages, rows.Err()
}

// SetStatus transitions a page to the given status.
func (s *Store) SetStatus(ctx context.Context, id string, status Status) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE generated_pages SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("updating page status: %w", err)
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

// RecordView bumps the view counter and view timestamp.
func (s *Store) RecordView(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE generated_pages
		SET view_count = view_count + 1, last_viewed_at = datetime('now')
		WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("recording page view: %w", err)
	}
	return nil
}

// DeletePage removes a page.
func (s *Store) DeletePage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM generated_pages WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting page: %w", err)
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

func scanPage(sc scanner) (*Page, error) {
	var (
		p          Page
		created    string
		status     string
		ids        string
		lastViewed sql.NullString
	)
	err := sc.Scan(
		&p.ID, &created, &p.Name, &p.Description, &p.HTMLContent, &p.Prompt,
		&ids, &status, &p.FileSize, &p.ViewCount, &lastViewed,
	)
	if err != nil {
		return nil, err
	}

	p.CreatedAt = parseTimestamp(created)
	p.Status = Status(status)
	if err := json.Unmarshal([]byte(ids), &p.ContextIDs); err != nil {
		p.ContextIDs = nil
	}
	if lastViewed.Valid {
		t := parseTimestamp(lastViewed.String)
		p.LastViewedAt = &t
	}
	return &p, nil
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
