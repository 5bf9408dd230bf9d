// Package activity keeps an insert-only feed of library events: uploads,
// annotation runs, page generation, scrapes, deletions.
package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/contextdeck/contextdeck/internal/db"
)

// Action identifies what happened.
type Action string

const (
	ActionUploaded      Action = "uploaded"
	ActionAnnotated     Action = "annotated"
	ActionPageGenerated Action = "page_generated"
	ActionPagePublished Action = "page_published"
	ActionScraped       Action = "scraped"
	ActionDeleted       Action = "deleted"
)

// Entry is a single activity feed item.
type Entry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Actor       string    `json:"actor"`
	Action      Action    `json:"action"`
	SubjectID   string    `json:"subject_id"`
	SubjectName string    `json:"subject_name"`
	Detail      string    `json:"detail"`
}

// Store provides append and list operations for the feed. Entries are
// never updated or deleted.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Log inserts an entry. If entry.ID is empty a UUID is generated.
func (s *Store) Log(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Actor == "" {
		entry.Actor = "system"
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_entries (id, timestamp, actor, action, subject_id, subject_name, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp.Format(db.TimestampNano),
		entry.Actor,
		string(entry.Action),
		entry.SubjectID,
		entry.SubjectName,
		entry.Detail,
	)
	if err != nil {
		return fmt.Errorf("inserting activity entry: %w", err)
	}
	return nil
}

// Record satisfies the recorder seams of the pipeline, page generator, and
// scrape service.
func (s *Store) Record(ctx context.Context, action, subjectID, subjectName, detail string) error {
	return s.Log(ctx, Entry{
		Action:      Action(action),
		SubjectID:   subjectID,
		SubjectName: subjectName,
		Detail:      detail,
	})
}

// List returns the most recent entries, newest first. limit <= 0 returns
// the default of 50.
func (s *Store) List(ctx context.Context, limit int, action Action) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, timestamp, actor, action, subject_id, subject_name, detail
		FROM activity_entries`
	args := []any{}
	if action != "" {
		query += " WHERE action = ?"
		args = append(args, string(action))
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying activity entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e      Entry
			ts     string
			action string
		)
		if err := rows.Scan(&e.ID, &ts, &e.Actor, &action, &e.SubjectID, &e.SubjectName, &e.Detail); err != nil {
			return nil, err
		}
		e.Action = Action(action)
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			e.Timestamp = t.UTC()
		} else if t, err := time.Parse(time.DateTime, ts); err == nil {
			e.Timestamp = t.UTC()
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
