package interfaces

import (
	"context"
)

// ChatService answers one question against a session's indexed documents
// using the two-stage retrieval chain (history-aware rewrite, then
// context-grounded answering).
type ChatService interface {
	// Chat validates the session, loads its retriever, invokes the
	// retrieval chain with the stored history, and appends the user and
	// assistant turns on success.
	Chat(ctx context.Context, sessionID, message string) (string, error)

	// HealthCheck verifies the chat path's collaborators are operational.
	HealthCheck(ctx context.Context) error
}
