package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/contextdeck/contextdeck/internal/db"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Session is a chat conversation over the media library.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is a single turn in a session. Assistant messages carry the IDs
// of the media contexts they were grounded on.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	SourceIDs []string  `json:"source_ids"`
	CreatedAt time.Time `json:"created_at"`
}

// Store provides persistence for chat sessions and messages.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// CreateSession inserts a new session. The generated ID is written back.
func (s *Store) CreateSession(ctx context.Context, session *Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		session.ID, session.Title,
		now.Format(time.DateTime), now.Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("inserting chat session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	var (
		session          Session
		created, updated string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, created_at, updated_at FROM chat_sessions WHERE id = ?`, id).
		Scan(&session.ID, &session.Title, &created, &updated)
	if err != nil {
		return nil, err
	}
	session.CreatedAt = parseTimestamp(created)
	session.UpdatedAt = parseTimestamp(updated)
	return &session, nil
}

// ListSessions returns all sessions, most recently updated first.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, created_at, updated_at
		FROM chat_sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying chat sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			session          Session
			created, updated string
		)
		if err := rows.Scan(&session.ID, &session.Title, &created, &updated); err != nil {
			return nil, err
		}
		session.CreatedAt = parseTimestamp(created)
		session.UpdatedAt = parseTimestamp(updated)
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// TouchSession bumps a session's updated_at.
func (s *Store) TouchSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE chat_sessions SET updated_at = ? WHERE id = ?",
		time.Now().UTC().Format(time.DateTime), id)
	if err != nil {
		return fmt.Errorf("touching chat session: %w", err)
	}
	return nil
}

// DeleteSession removes a session and, via cascade, its messages.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM chat_sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting chat session: %w", err)
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

// CreateMessage inserts a message. The generated ID is written back.
func (s *Store) CreateMessage(ctx context.Context, m *Message) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	sources, err := json.Marshal(m.SourceIDs)
	if err != nil {
		return fmt.Errorf("encoding source ids: %w", err)
	}

	// Fixed-width nanosecond timestamps keep messages ordered within a
	// burst under the column's TEXT comparison.
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, session_id, role, content, source_ids, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.SessionID, string(m.Role), m.Content, string(sources),
		m.CreatedAt.Format(db.TimestampNano),
	)
	if err != nil {
		return fmt.Errorf("inserting chat message: %w", err)
	}
	return nil
}

// ListMessages returns a session's messages in chronological order.
func (s *Store) ListMessages(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, source_ids, created_at
		FROM chat_messages WHERE session_id = ? ORDER BY created_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying chat messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var (
			m       Message
			role    string
			sources string
			created string
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &role, &m.Content, &sources, &created); err != nil {
			return nil, err
		}
		m.Role = Role(role)
		m.CreatedAt = parseTimestamp(created)
		if err := json.Unmarshal([]byte(sources), &m.SourceIDs); err != nil {
			m.SourceIDs = nil
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
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
