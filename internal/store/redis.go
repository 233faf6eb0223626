// This file implements the Redis-backed conversation state store. Any keyed
// store with atomic per-key writes satisfies the persistence contract; Redis
// SET on the state key is such a write.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/quotepilot/quotepilot/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	redisSessionKeyPrefix = "quotepilot:session:"
	redisStateKeyPrefix   = "quotepilot:state:"
)

// RedisStore persists conversation state in Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis store and verifies connectivity.
func NewRedisStore(opts ...Option) (*RedisStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		slog.Error("RedisStore address not set")
		return nil, fmt.Errorf("redis address not set")
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		slog.Error("RedisStore ping failed", "error", err, "addr", cfg.Addr)
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	slog.Debug("RedisStore ready", "addr", cfg.Addr)
	return &RedisStore{client: client}, nil
}

// CreateSession allocates a fresh session record.
func (s *RedisStore) CreateSession(ctx context.Context, userID string) (*models.Session, error) {
	sess := models.Session{ID: NewSessionID(), UserID: userID, CreatedAt: time.Now().UTC()}
	raw, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := s.client.Set(ctx, redisSessionKeyPrefix+sess.ID, raw, 0).Err(); err != nil {
		slog.Error("RedisStore CreateSession failed", "error", err)
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	slog.Debug("RedisStore CreateSession succeeded", "sessionID", sess.ID)
	return &sess, nil
}

// GetSession retrieves a session record, or nil when unknown.
func (s *RedisStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	raw, err := s.client.Get(ctx, redisSessionKeyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		slog.Error("RedisStore GetSession failed", "error", err, "sessionID", sessionID)
		return nil, err
	}
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	return &sess, nil
}

// LoadState retrieves the state document, or nil when absent.
func (s *RedisStore) LoadState(ctx context.Context, sessionID string) (*models.ConversationState, error) {
	raw, err := s.client.Get(ctx, redisStateKeyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		slog.Debug("RedisStore LoadState not found", "sessionID", sessionID)
		return nil, nil
	}
	if err != nil {
		slog.Error("RedisStore LoadState failed", "error", err, "sessionID", sessionID)
		return nil, err
	}
	var state models.ConversationState
	if err := json.Unmarshal(raw, &state); err != nil {
		slog.Error("RedisStore LoadState unmarshal failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to decode state for %s: %w", sessionID, err)
	}
	return &state, nil
}

// SaveState writes the full state document under the session key.
func (s *RedisStore) SaveState(ctx context.Context, state *models.ConversationState) error {
	if state == nil || state.SessionID == "" {
		return fmt.Errorf("state with empty session id")
	}
	raw, err := json.Marshal(state)
	if err != nil {
		slog.Error("RedisStore SaveState marshal failed", "error", err, "sessionID", state.SessionID)
		return err
	}
	if err := s.client.Set(ctx, redisStateKeyPrefix+state.SessionID, raw, 0).Err(); err != nil {
		slog.Error("RedisStore SaveState failed", "error", err, "sessionID", state.SessionID)
		return err
	}
	slog.Debug("RedisStore SaveState succeeded", "sessionID", state.SessionID)
	return nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
