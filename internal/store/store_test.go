package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotepilot/quotepilot/internal/models"
)

func TestValidateSessionID(t *testing.T) {
	assert.NoError(t, ValidateSessionID(NewSessionID()))
	assert.ErrorIs(t, ValidateSessionID("not-a-uuid"), models.ErrInvalidSessionID)
	assert.ErrorIs(t, ValidateSessionID(""), models.ErrInvalidSessionID)
}

// exerciseStore runs the shared persistence contract against any backend.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, "user-42")
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, "user-42", sess.UserID)

	got, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sess.ID, got.ID)

	missing, err := s.GetSession(ctx, NewSessionID())
	require.NoError(t, err)
	assert.Nil(t, missing)

	// absence of state is not an error
	state, err := s.LoadState(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, state)

	state = models.NewConversationState(sess.ID, "user-42")
	state.AppendMessage(models.RoleUser, "I need travel insurance")
	dest := "Japan"
	state.TripDetails.Destination = &dest
	state.CurrentIntent = models.IntentQuote
	require.NoError(t, s.SaveState(ctx, state))

	loaded, err := s.LoadState(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, models.IntentQuote, loaded.CurrentIntent)
	require.NotNil(t, loaded.TripDetails.Destination)
	assert.Equal(t, "Japan", *loaded.TripDetails.Destination)
	require.Len(t, loaded.Messages, 1)
	assert.Equal(t, "I need travel insurance", loaded.Messages[0].Text)

	// a save replaces the whole document
	state.RequiresHuman = true
	require.NoError(t, s.SaveState(ctx, state))
	loaded, err = s.LoadState(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, loaded.RequiresHuman)

	assert.Error(t, s.SaveState(ctx, &models.ConversationState{}))
}

func TestInMemoryStore(t *testing.T) {
	s := NewInMemoryStore()
	defer s.Close()
	exerciseStore(t, s)
}

func TestInMemoryStoreIsolatesCopies(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	state := models.NewConversationState(NewSessionID(), "")
	require.NoError(t, s.SaveState(ctx, state))

	loaded, err := s.LoadState(ctx, state.SessionID)
	require.NoError(t, err)
	loaded.RequiresHuman = true

	again, err := s.LoadState(ctx, state.SessionID)
	require.NoError(t, err)
	assert.False(t, again.RequiresHuman, "mutating a loaded copy must not change the stored state")
}
