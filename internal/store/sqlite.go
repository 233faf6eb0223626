// This file implements the SQLite-backed conversation state store.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"
	"github.com/quotepilot/quotepilot/internal/models"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists conversation state in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store. The DSN is a file path; its
// directory is created when missing.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(cfg.DSN)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("SQLiteStore failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		slog.Error("SQLiteStore failed to open connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLiteStore ping failed", "error", err)
		return nil, err
	}
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("SQLiteStore failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLiteStore ready", "dsn", cfg.DSN)
	return &SQLiteStore{db: db}, nil
}

// CreateSession allocates a fresh session row.
func (s *SQLiteStore) CreateSession(ctx context.Context, userID string) (*models.Session, error) {
	sess := models.Session{ID: NewSessionID(), UserID: userID, CreatedAt: time.Now().UTC()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, created_at) VALUES (?, ?, ?)`,
		sess.ID, sess.UserID, sess.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore CreateSession failed", "error", err)
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	slog.Debug("SQLiteStore CreateSession succeeded", "sessionID", sess.ID)
	return &sess, nil
}

// GetSession retrieves a session row, or nil when unknown.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	var sess models.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at FROM sessions WHERE id = ?`, sessionID).
		Scan(&sess.ID, &sess.UserID, &sess.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSession failed", "error", err, "sessionID", sessionID)
		return nil, err
	}
	return &sess, nil
}

// LoadState retrieves the state document for a session, or nil when absent.
func (s *SQLiteStore) LoadState(ctx context.Context, sessionID string) (*models.ConversationState, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM conversation_states WHERE session_id = ?`, sessionID).Scan(&raw)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore LoadState not found", "sessionID", sessionID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore LoadState failed", "error", err, "sessionID", sessionID)
		return nil, err
	}

	var state models.ConversationState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		slog.Error("SQLiteStore LoadState unmarshal failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to decode state for %s: %w", sessionID, err)
	}
	return &state, nil
}

// SaveState upserts the full state document in a single statement, so a
// concurrent load sees either the old or the new document.
func (s *SQLiteStore) SaveState(ctx context.Context, state *models.ConversationState) error {
	if state == nil || state.SessionID == "" {
		return fmt.Errorf("state with empty session id")
	}
	raw, err := json.Marshal(state)
	if err != nil {
		slog.Error("SQLiteStore SaveState marshal failed", "error", err, "sessionID", state.SessionID)
		return err
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversation_states (session_id, state, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		state.SessionID, string(raw), now, now)
	if err != nil {
		slog.Error("SQLiteStore SaveState failed", "error", err, "sessionID", state.SessionID)
		return err
	}
	slog.Debug("SQLiteStore SaveState succeeded", "sessionID", state.SessionID)
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
