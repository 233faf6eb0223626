// This file implements the PostgreSQL-backed conversation state store.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"
	"github.com/quotepilot/quotepilot/internal/models"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists conversation state in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store from a connection URL.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("PostgresStore failed to open connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("PostgresStore ping failed", "error", err)
		return nil, err
	}
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("PostgresStore failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("PostgresStore ready")
	return &PostgresStore{db: db}, nil
}

// CreateSession allocates a fresh session row.
func (s *PostgresStore) CreateSession(ctx context.Context, userID string) (*models.Session, error) {
	sess := models.Session{ID: NewSessionID(), UserID: userID, CreatedAt: time.Now().UTC()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, created_at) VALUES ($1, $2, $3)`,
		sess.ID, sess.UserID, sess.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore CreateSession failed", "error", err)
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	slog.Debug("PostgresStore CreateSession succeeded", "sessionID", sess.ID)
	return &sess, nil
}

// GetSession retrieves a session row, or nil when unknown.
func (s *PostgresStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	var sess models.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at FROM sessions WHERE id = $1`, sessionID).
		Scan(&sess.ID, &sess.UserID, &sess.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSession failed", "error", err, "sessionID", sessionID)
		return nil, err
	}
	return &sess, nil
}

// LoadState retrieves the state document for a session, or nil when absent.
func (s *PostgresStore) LoadState(ctx context.Context, sessionID string) (*models.ConversationState, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM conversation_states WHERE session_id = $1`, sessionID).Scan(&raw)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore LoadState not found", "sessionID", sessionID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore LoadState failed", "error", err, "sessionID", sessionID)
		return nil, err
	}

	var state models.ConversationState
	if err := json.Unmarshal(raw, &state); err != nil {
		slog.Error("PostgresStore LoadState unmarshal failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to decode state for %s: %w", sessionID, err)
	}
	return &state, nil
}

// SaveState upserts the full state document in a single statement.
func (s *PostgresStore) SaveState(ctx context.Context, state *models.ConversationState) error {
	if state == nil || state.SessionID == "" {
		return fmt.Errorf("state with empty session id")
	}
	raw, err := json.Marshal(state)
	if err != nil {
		slog.Error("PostgresStore SaveState marshal failed", "error", err, "sessionID", state.SessionID)
		return err
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversation_states (session_id, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
		state.SessionID, raw, now, now)
	if err != nil {
		slog.Error("PostgresStore SaveState failed", "error", err, "sessionID", state.SessionID)
		return err
	}
	slog.Debug("PostgresStore SaveState succeeded", "sessionID", state.SessionID)
	return nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
