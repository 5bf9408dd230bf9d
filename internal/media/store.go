package media

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/contextdeck/contextdeck/internal/db"
)

// Store provides persistence for media contexts and their chunks.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// CreateContext inserts a new media context. If mc.ID is empty a UUID is
// generated. The generated ID is written back into mc.
func (s *Store) CreateContext(ctx context.Context, mc *Context) error {
	if mc.ID == "" {
		mc.ID = uuid.New().String()
	}
	if mc.CreatedAt.IsZero() {
		mc.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO media_contexts (
			id, created_at, name, kind, size, file_url, thumbnail_url, user_tags,
			summary, key_insights, suggested_tags, notable_features
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		mc.ID,
		mc.CreatedAt.Format(time.DateTime),
		mc.Name,
		string(mc.Kind),
		mc.Size,
		nullable(mc.FileURL),
		nullable(mc.ThumbnailURL),
		mc.UserTags,
		mc.Annotation.Summary,
		mc.Annotation.KeyInsights,
		mc.Annotation.SuggestedTags,
		mc.Annotation.NotableFeatures,
	)
	if err != nil {
		return fmt.Errorf("inserting media context: %w", err)
	}
	return nil
}

// GetContext retrieves a single media context by ID.
func (s *Store) GetContext(ctx context.Context, id string) (*Context, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, name, kind, size, file_url, thumbnail_url, user_tags,
			   summary, key_insights, suggested_tags, notable_features
		FROM media_contexts WHERE id = ?`, id)
	return scanContext(row)
}

// ContextFilter controls which media contexts are returned by ListContexts.
type ContextFilter struct {
	Kind   Kind
	Search string // matched against name, user tags, and annotation fields
	Limit  int
	Offset int
}

// ListContexts returns media contexts matching the filter, newest first.
func (s *Store) ListContexts(ctx context.Context, filter ContextFilter) ([]Context, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		clauses = append(clauses, "(name LIKE ? OR user_tags LIKE ? OR summary LIKE ? OR key_insights LIKE ? OR suggested_tags LIKE ? OR notable_features LIKE ?)")
		args = append(args, like, like, like, like, like, like)
	}

	query := "SELECT id, created_at, name, kind, size, file_url, thumbnail_url, user_tags, summary, key_insights, suggested_tags, notable_features FROM media_contexts"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying media contexts: %w", err)
	}
	defer rows.Close()

	var contexts []Context
	for rows.Next() {
		mc, err := scanContext(rows)
		if err != nil {
			return nil, err
		}
		contexts = append(contexts, *mc)
	}
	return contexts, rows.Err()
}

// SearchContexts returns contexts where any of the terms appears in the
// context's searchable fields or in the annotation of one of its chunks.
// Matching is case-insensitive substring matching.
func (s *Store) SearchContexts(ctx context.Context, terms []string) ([]Context, error) {
	var cleaned []string
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		return nil, nil
	}

	var (
		clauses []string
		args    []any
	)
	for _, t := range cleaned {
		like := "%" + t + "%"
		clauses = append(clauses, `(
			c.name LIKE ? OR c.user_tags LIKE ? OR c.summary LIKE ? OR c.key_insights LIKE ?
			OR c.suggested_tags LIKE ? OR c.notable_features LIKE ?
			OR EXISTS (
				SELECT 1 FROM media_chunks ch WHERE ch.media_context_id = c.id AND (
					ch.preview LIKE ? OR ch.summary LIKE ? OR ch.key_insights LIKE ?
					OR ch.suggested_tags LIKE ? OR ch.notable_features LIKE ?
				)
			)
		)`)
		args = append(args, like, like, like, like, like, like, like, like, like, like, like)
	}

	query := `SELECT c.id, c.created_at, c.name, c.kind, c.size, c.file_url, c.thumbnail_url, c.user_tags,
			c.summary, c.key_insights, c.suggested_tags, c.notable_features
		FROM media_contexts c
		WHERE ` + strings.Join(clauses, " OR ") + `
		ORDER BY c.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching media contexts: %w", err)
	}
	defer rows.Close()

	var contexts []Context
	for rows.Next() {
		mc, err := scanContext(rows)
		if err != nil {
			return nil, err
		}
		contexts = append(contexts, *mc)
	}
	return contexts, rows.Err()
}

// UpdateContext changes the editable fields of a media context: name and
// user tags. All other fields are immutable after creation.
func (s *Store) UpdateContext(ctx context.Context, id, name, userTags string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE media_contexts SET name = ?, user_tags = ? WHERE id = ?",
		name, userTags, id,
	)
	if err != nil {
		return fmt.Errorf("updating media context: %w", err)
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

// SetContextAnnotation fills the single-pass annotation fields of a context.
func (s *Store) SetContextAnnotation(ctx context.Context, id string, a Annotation) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE media_contexts
		SET summary = ?, key_insights = ?, suggested_tags = ?, notable_features = ?
		WHERE id = ?`,
		a.Summary, a.KeyInsights, a.SuggestedTags, a.NotableFeatures, id,
	)
	if err != nil {
		return fmt.Errorf("setting context annotation: %w", err)
	}
	return nil
}

// DeleteContext removes a media context and, via cascade, its chunks.
func (s *Store) DeleteContext(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM media_contexts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting media context: %w", err)
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

// CreateChunk inserts a single chunk row. Chunks are never updated afterward.
func (s *Store) CreateChunk(ctx context.Context, c *Chunk) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO media_chunks (
			id, media_context_id, chunk_index, preview,
			summary, key_insights, suggested_tags, notable_features, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.ContextID,
		c.Index,
		c.Preview,
		c.Annotation.Summary,
		c.Annotation.KeyInsights,
		c.Annotation.SuggestedTags,
		c.Annotation.NotableFeatures,
		c.CreatedAt.Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("inserting chunk %d for %s: %w", c.Index, c.ContextID, err)
	}
	return nil
}

// ListChunks returns all stored chunks for a context in index order. The
// returned indices may contain gaps where annotation failed.
func (s *Store) ListChunks(ctx context.Context, contextID string) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, media_context_id, chunk_index, preview,
			   summary, key_insights, suggested_tags, notable_features, created_at
		FROM media_chunks WHERE media_context_id = ? ORDER BY chunk_index`, contextID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var (
			c  Chunk
			ts string
		)
		err := rows.Scan(
			&c.ID, &c.ContextID, &c.Index, &c.Preview,
			&c.Annotation.Summary, &c.Annotation.KeyInsights,
			&c.Annotation.SuggestedTags, &c.Annotation.NotableFeatures, &ts,
		)
		if err != nil {
			return nil, err
		}
		c.CreatedAt = parseTimestamp(ts)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// CountContexts returns the number of media contexts, optionally by kind.
func (s *Store) CountContexts(ctx context.Context, kind Kind) (int, error) {
	var (
		count int
		err   error
	)
	if kind == "" {
		err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM media_contexts").Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM media_contexts WHERE kind = ?", string(kind)).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("counting media contexts: %w", err)
	}
	return count, nil
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanContext(sc scanner) (*Context, error) {
	var (
		mc                    Context
		kind, ts              string
		fileURL, thumbnailURL sql.NullString
	)

	err := sc.Scan(
		&mc.ID, &ts, &mc.Name, &kind, &mc.Size, &fileURL, &thumbnailURL, &mc.UserTags,
		&mc.Annotation.Summary, &mc.Annotation.KeyInsights,
		&mc.Annotation.SuggestedTags, &mc.Annotation.NotableFeatures,
	)
	if err != nil {
		return nil, err
	}

	mc.Kind = Kind(kind)
	mc.CreatedAt = parseTimestamp(ts)
	if fileURL.Valid {
		mc.FileURL = fileURL.String
	}
	if thumbnailURL.Valid {
		mc.ThumbnailURL = thumbnailURL.String
	}
	return &mc, nil
}

func parseTimestamp(ts string) time.Time {
	if t, err := time.Parse(time.DateTime, ts); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05Z", ts); err == nil {
		return t
	}
	return time.Time{}
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
