package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/colloquy/internal/common"
	"github.com/ternarybob/colloquy/internal/interfaces"
	"github.com/ternarybob/colloquy/internal/models"
	"github.com/ternarybob/colloquy/internal/services/index"
	"github.com/ternarybob/colloquy/internal/services/llm"
	"github.com/ternarybob/colloquy/internal/storage/memory"
)

func testSetup(t *testing.T) (*Service, interfaces.SessionStorage, *index.Manager) {
	t.Helper()
	logger := common.GetLogger()

	mock, err := llm.NewMockService(32, logger)
	require.NoError(t, err)

	sessions := memory.NewSessionStorage()
	manager := index.NewManager(t.TempDir(), mock, logger)
	svc := NewService(sessions, manager, mock, interfaces.SearchOptions{K: 2}, logger)
	return svc, sessions, manager
}

func seedIndex(t *testing.T, manager *index.Manager, sessionID string) {
	t.Helper()
	store := manager.ForSession(sessionID)
	require.NoError(t, store.LoadOrCreate(context.Background(), []models.Chunk{
		{Text: "Go was designed at Google in 2007.", Metadata: models.ChunkMetadata{Source: "go.txt", Row: "1"}},
		{Text: "Go has built-in concurrency via goroutines.", Metadata: models.ChunkMetadata{Source: "go.txt", Row: "2"}},
	}))
}

func TestChat_UnknownSessionRejectedBeforeRetrieval(t *testing.T) {
	svc, _, _ := testSetup(t)

	_, err := svc.Chat(context.Background(), "session_missing", "hello")
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindNotFound))
}

func TestChat_SessionWithoutIndex(t *testing.T) {
	svc, sessions, _ := testSetup(t)
	ctx := context.Background()

	require.NoError(t, sessions.Create(ctx, "session_a"))

	_, err := svc.Chat(ctx, "session_a", "hello")
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindNotFound))
}

func TestChat_EmptyMessage(t *testing.T) {
	svc, sessions, _ := testSetup(t)
	ctx := context.Background()

	require.NoError(t, sessions.Create(ctx, "session_a"))

	_, err := svc.Chat(ctx, "session_a", "")
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindConfiguration))
}

func TestChat_AppendsTurnsOnSuccess(t *testing.T) {
	svc, sessions, manager := testSetup(t)
	ctx := context.Background()

	require.NoError(t, sessions.Create(ctx, "session_a"))
	seedIndex(t, manager, "session_a")

	answer, err := svc.Chat(ctx, "session_a", "When was Go designed?")
	require.NoError(t, err)
	assert.NotEmpty(t, answer)

	session, err := sessions.Get(ctx, "session_a")
	require.NoError(t, err)
	require.Len(t, session.Turns, 2)
	assert.Equal(t, models.RoleUser, session.Turns[0].Role)
	assert.Equal(t, "When was Go designed?", session.Turns[0].Content)
	assert.Equal(t, models.RoleAssistant, session.Turns[1].Role)
	assert.Equal(t, answer, session.Turns[1].Content)

	// A second turn sees the first in history.
	_, err = svc.Chat(ctx, "session_a", "What about concurrency?")
	require.NoError(t, err)

	session, err = sessions.Get(ctx, "session_a")
	require.NoError(t, err)
	assert.Len(t, session.Turns, 4)
}

func TestChat_FailedTurnLeavesHistoryUnchanged(t *testing.T) {
	svc, sessions, _ := testSetup(t)
	ctx := context.Background()

	require.NoError(t, sessions.Create(ctx, "session_a"))

	// No index: the turn fails after session validation.
	_, err := svc.Chat(ctx, "session_a", "hello")
	require.Error(t, err)

	session, err := sessions.Get(ctx, "session_a")
	require.NoError(t, err)
	assert.Empty(t, session.Turns)
}
