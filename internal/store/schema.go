// Package store provides the SQLite-backed entry store and the repository contract
// over journal entries, moods, tags and application settings.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/dagaz/internal/apperr"
)

const (
	driverName = "sqlite3_dagaz"

	// SchemaVersion is the highest schema version this build understands.
	SchemaVersion int64 = 1
	component         = "journaldb"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS dagaz_versions (
	component  TEXT PRIMARY KEY,
	version    INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS moods (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	name     TEXT NOT NULL,
	category TEXT NOT NULL CHECK (category IN ('Positive', 'Neutral', 'Negative')),
	emoji    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tags (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL COLLATE NOCASE UNIQUE CHECK (length(trim(name)) > 0),
	is_prebuilt BOOLEAN NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS journal_entries (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	entry_date         TEXT NOT NULL UNIQUE,
	title              TEXT NOT NULL CHECK (length(title) BETWEEN 1 AND 500),
	content            TEXT NOT NULL CHECK (length(content) > 0),
	created_at         DATETIME NOT NULL,
	updated_at         DATETIME NOT NULL,
	word_count         INTEGER NOT NULL DEFAULT 0 CHECK (word_count >= 0),
	category           TEXT NOT NULL DEFAULT '' CHECK (length(category) <= 200),
	primary_mood_id    INTEGER NOT NULL REFERENCES moods(id) ON DELETE RESTRICT,
	secondary_mood1_id INTEGER REFERENCES moods(id) ON DELETE RESTRICT,
	secondary_mood2_id INTEGER REFERENCES moods(id) ON DELETE RESTRICT
);

CREATE TABLE IF NOT EXISTS entry_tags (
	entry_id INTEGER NOT NULL REFERENCES journal_entries(id) ON DELETE CASCADE,
	tag_id   INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (entry_id, tag_id)
);

CREATE INDEX IF NOT EXISTS idx_entry_tags_tag ON entry_tags(tag_id);

CREATE TABLE IF NOT EXISTS app_settings (
	id              INTEGER PRIMARY KEY CHECK (id = 1),
	theme           TEXT NOT NULL DEFAULT 'Light',
	is_locked       BOOLEAN NOT NULL DEFAULT 0,
	credential_hash TEXT NOT NULL DEFAULT ''
);
`

func init() {
	// fold gives search and name lookups Unicode-aware case folding;
	// SQLite's built-in lower() only folds ASCII.
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("fold", strings.ToLower, true)
		},
	})
}

// Option configures a DB.
type Option func(*DB)

// WithClock overrides the clock used to stamp created_at/updated_at.
func WithClock(now func() time.Time) Option {
	return func(db *DB) {
		db.now = now
	}
}

// DB wraps a sql.DB with repository operations.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string, opts ...Option) (*DB, error) {
	conn, err := sql.Open(driverName, connString(dsn))
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w: %w", apperr.ErrStorageUnavailable, err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w: %w", apperr.ErrStorageUnavailable, err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply core schema: %w", err)
	}
	if err := checkVersion(conn); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn, now: time.Now}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}

const connParams = "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate"

// connString appends the connection parameters to dsn, which may already carry
// a query of its own (file:journal.db?mode=rwc).
func connString(dsn string) string {
	if strings.Contains(dsn, "?") {
		return strings.TrimSuffix(dsn, "&") + "&" + connParams
	}
	return dsn + "?" + connParams
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Version returns the recorded schema version, or 0 for an unversioned database.
func (db *DB) Version(ctx context.Context) (int64, error) {
	return schemaVersion(ctx, db.conn)
}

func schemaVersion(ctx context.Context, q querier) (int64, error) {
	var v int64
	err := q.QueryRowContext(ctx, `SELECT version FROM dagaz_versions WHERE component = ?`, component).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("store: read schema version: %w", err)
	}
	return v, nil
}

// checkVersion stamps a fresh database and refuses one written by a newer build.
func checkVersion(conn *sql.DB) error {
	ctx := context.Background()
	current, err := schemaVersion(ctx, conn)
	if err != nil {
		return err
	}
	switch {
	case current == 0:
		_, err := conn.ExecContext(ctx, `
			INSERT INTO dagaz_versions (component, version) VALUES (?, ?)
			ON CONFLICT(component) DO UPDATE SET version = excluded.version`, component, SchemaVersion)
		if err != nil {
			return fmt.Errorf("store: record schema version: %w", err)
		}
		return nil
	case current > SchemaVersion:
		return fmt.Errorf("store: database schema version %d is newer than supported version %d", current, SchemaVersion)
	default:
		return nil
	}
}
