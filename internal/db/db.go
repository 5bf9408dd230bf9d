package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// TimestampNano is a fixed-width RFC 3339 layout for TEXT timestamp
// columns. The zero-padded fraction keeps the column's lexical order
// identical to chronological order, which time.RFC3339Nano does not
// guarantee because it trims trailing zeros.
const TimestampNano = "2006-01-02T15:04:05.000000000Z07:00"

// DB wraps a sql.DB with contextdeck-specific helpers.
type DB struct {
	*sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// migrate runs all schema migrations.
func (d *DB) migrate() error {
	_, err := d.Exec(schema)
	return err
}

// schema contains the full database schema. New tables are added here.
const schema = `
CREATE TABLE IF NOT EXISTS media_contexts (
    id TEXT PRIMARY KEY,
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    name TEXT NOT NULL,
    kind TEXT NOT NULL CHECK(kind IN ('text','image','video','document')),
    size INTEGER NOT NULL DEFAULT 0,
    file_url TEXT,
    thumbnail_url TEXT,
    user_tags TEXT NOT NULL DEFAULT '',
    summary TEXT NOT NULL DEFAULT '',
    key_insights TEXT NOT NULL DEFAULT '',
    suggested_tags TEXT NOT NULL DEFAULT '',
    notable_features TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_media_kind ON media_contexts(kind);
CREATE INDEX IF NOT EXISTS idx_media_created ON media_contexts(created_at);

CREATE TABLE IF NOT EXISTS media_chunks (
    id TEXT PRIMARY KEY,
    media_context_id TEXT NOT NULL REFERENCES media_contexts(id) ON DELETE CASCADE,
    chunk_index INTEGER NOT NULL,
    preview TEXT NOT NULL DEFAULT '',
    summary TEXT NOT NULL DEFAULT '',
    key_insights TEXT NOT NULL DEFAULT '',
    suggested_tags TEXT NOT NULL DEFAULT '',
    notable_features TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    UNIQUE(media_context_id, chunk_index)
);

CREATE INDEX IF NOT EXISTS idx_chunks_context ON media_chunks(media_context_id, chunk_index);

CREATE TABLE IF NOT EXISTS generated_pages (
    id TEXT PRIMARY KEY,
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    html_content TEXT NOT NULL,
    prompt TEXT NOT NULL DEFAULT '',
    media_context_ids TEXT NOT NULL DEFAULT '[]',
    status TEXT NOT NULL DEFAULT 'draft' CHECK(status IN ('draft','published','archived')),
    file_size INTEGER NOT NULL DEFAULT 0,
    view_count INTEGER NOT NULL DEFAULT 0,
    last_viewed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_pages_status ON generated_pages(status);

CREATE TABLE IF NOT EXISTS scrape_jobs (
    id TEXT PRIMARY KEY,
    url TEXT NOT NULL,
    remote_id TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending','running','completed','failed')),
    error TEXT NOT NULL DEFAULT '',
    media_context_id TEXT,
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_scrape_status ON scrape_jobs(status);

CREATE TABLE IF NOT EXISTS chat_sessions (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS chat_messages (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
    role TEXT NOT NULL CHECK(role IN ('user','assistant','system')),
    content TEXT NOT NULL,
    source_ids TEXT NOT NULL DEFAULT '[]',
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages(session_id, created_at);

CREATE TABLE IF NOT EXISTS activity_entries (
    id TEXT PRIMARY KEY,
    timestamp DATETIME NOT NULL DEFAULT (datetime('now')),
    actor TEXT NOT NULL DEFAULT 'system',
    action TEXT NOT NULL CHECK(action IN ('uploaded','annotated','page_generated','page_published','scraped','deleted')),
    subject_id TEXT NOT NULL DEFAULT '',
    subject_name TEXT NOT NULL DEFAULT '',
    detail TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_activity_timestamp ON activity_entries(timestamp);
`
