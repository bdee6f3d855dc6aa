package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/colloquy/internal/models"
)

// ErrSessionNotFound is returned when a session ID has no registered session.
var ErrSessionNotFound = errors.New("session not found")

// SessionStorage is the session registry capability: it maps a session
// identifier to its conversation turns. The default implementation is an
// in-process map with no persistence guarantee beyond process lifetime;
// the interface permits a durable backing store without touching the core.
type SessionStorage interface {
	// Create registers an empty session. Creating an existing session is
	// a no-op.
	Create(ctx context.Context, sessionID string) error

	// Get returns the session with its ordered turns, or
	// ErrSessionNotFound.
	Get(ctx context.Context, sessionID string) (*models.Session, error)

	// SetTurns replaces the session's conversation history, or returns
	// ErrSessionNotFound for an unknown session.
	SetTurns(ctx context.Context, sessionID string, turns []models.Turn) error

	// Exists reports whether the session is registered.
	Exists(ctx context.Context, sessionID string) (bool, error)

	// Close releases storage resources.
	Close() error
}
