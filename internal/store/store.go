// Package store provides conversation state persistence for QuotePilot.
//
// State is stored as one JSON document per session id so that each backend's
// single-key write gives per-turn atomicity: a subsequent load observes
// either the previous state or the fully saved one, never a partial write.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quotepilot/quotepilot/internal/models"
)

// Store is the durable thread-keyed persistence contract. LoadState returns
// (nil, nil) when no state exists for the session: absence is not an error,
// which lets the engine resume sessions after restarts.
type Store interface {
	CreateSession(ctx context.Context, userID string) (*models.Session, error)
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	LoadState(ctx context.Context, sessionID string) (*models.ConversationState, error)
	SaveState(ctx context.Context, state *models.ConversationState) error
	Close() error
}

// Opts holds backend configuration shared by the store constructors.
type Opts struct {
	DSN  string
	Addr string // Redis address
}

// Option configures a store backend.
type Option func(*Opts)

// WithDSN sets the database DSN (file path for SQLite, URL for Postgres).
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithAddr sets the Redis address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// NewSessionID allocates a fresh opaque session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// ValidateSessionID rejects malformed session identifiers.
func ValidateSessionID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", models.ErrInvalidSessionID, id)
	}
	return nil
}

// InMemoryStore keeps sessions and state in process memory. Used by tests
// and as the default when no DSN is configured.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	states   map[string]models.ConversationState
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]models.Session),
		states:   make(map[string]models.ConversationState),
	}
}

// CreateSession allocates a fresh session with an opaque identifier.
func (s *InMemoryStore) CreateSession(ctx context.Context, userID string) (*models.Session, error) {
	sess := models.Session{ID: NewSessionID(), UserID: userID, CreatedAt: time.Now().UTC()}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return &sess, nil
}

// GetSession returns the session record, or nil when unknown.
func (s *InMemoryStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

// LoadState returns a copy of the stored state, or nil when absent.
func (s *InMemoryStore) LoadState(ctx context.Context, sessionID string) (*models.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[sessionID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

// SaveState stores the full state under its session id.
func (s *InMemoryStore) SaveState(ctx context.Context, state *models.ConversationState) error {
	if state == nil || state.SessionID == "" {
		return fmt.Errorf("state with empty session id")
	}
	s.mu.Lock()
	s.states[state.SessionID] = *state
	s.mu.Unlock()
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }
