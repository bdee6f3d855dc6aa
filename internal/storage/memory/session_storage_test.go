package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/colloquy/internal/interfaces"
	"github.com/ternarybob/colloquy/internal/models"
)

func TestSessionLifecycle(t *testing.T) {
	store := NewSessionStorage()
	ctx := context.Background()

	exists, err := store.Exists(ctx, "session_x")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Get(ctx, "session_x")
	assert.ErrorIs(t, err, interfaces.ErrSessionNotFound)

	require.NoError(t, store.Create(ctx, "session_x"))

	exists, err = store.Exists(ctx, "session_x")
	require.NoError(t, err)
	assert.True(t, exists)

	session, err := store.Get(ctx, "session_x")
	require.NoError(t, err)
	assert.Equal(t, "session_x", session.ID)
	assert.Empty(t, session.Turns)
	assert.False(t, session.CreatedAt.IsZero())
}

func TestCreate_ExistingIsNoOp(t *testing.T) {
	store := NewSessionStorage()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "session_x"))
	turns := []models.Turn{{Role: models.RoleUser, Content: "hello"}}
	require.NoError(t, store.SetTurns(ctx, "session_x", turns))

	// Re-creating must not wipe the history.
	require.NoError(t, store.Create(ctx, "session_x"))

	session, err := store.Get(ctx, "session_x")
	require.NoError(t, err)
	assert.Len(t, session.Turns, 1)
}

func TestSetTurns(t *testing.T) {
	store := NewSessionStorage()
	ctx := context.Background()

	err := store.SetTurns(ctx, "missing", nil)
	assert.ErrorIs(t, err, interfaces.ErrSessionNotFound)

	require.NoError(t, store.Create(ctx, "session_x"))
	turns := []models.Turn{
		{Role: models.RoleUser, Content: "question"},
		{Role: models.RoleAssistant, Content: "answer"},
	}
	require.NoError(t, store.SetTurns(ctx, "session_x", turns))

	session, err := store.Get(ctx, "session_x")
	require.NoError(t, err)
	assert.Equal(t, turns, session.Turns)
}

func TestGet_ReturnsCopy(t *testing.T) {
	store := NewSessionStorage()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "session_x"))
	require.NoError(t, store.SetTurns(ctx, "session_x", []models.Turn{
		{Role: models.RoleUser, Content: "original"},
	}))

	session, err := store.Get(ctx, "session_x")
	require.NoError(t, err)
	session.Turns[0].Content = "mutated"

	fresh, err := store.Get(ctx, "session_x")
	require.NoError(t, err)
	assert.Equal(t, "original", fresh.Turns[0].Content)
}
