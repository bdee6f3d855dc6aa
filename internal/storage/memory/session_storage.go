// -----------------------------------------------------------------------
// In-memory session registry - default, non-persistent backend
// -----------------------------------------------------------------------

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/colloquy/internal/interfaces"
	"github.com/ternarybob/colloquy/internal/models"
)

// SessionStorage is the default session registry: an in-process map with
// no persistence beyond process lifetime. Sessions and their indexes
// survive restarts only with the badger backend.
type SessionStorage struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

func NewSessionStorage() *SessionStorage {
	return &SessionStorage{sessions: make(map[string]*models.Session)}
}

func (s *SessionStorage) Create(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; ok {
		return nil
	}
	now := time.Now().UTC()
	s.sessions[sessionID] = &models.Session{
		ID:        sessionID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (s *SessionStorage) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, interfaces.ErrSessionNotFound
	}

	// Copy so callers cannot mutate registry state through the pointer.
	out := *session
	out.Turns = append([]models.Turn(nil), session.Turns...)
	return &out, nil
}

func (s *SessionStorage) SetTurns(ctx context.Context, sessionID string, turns []models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return interfaces.ErrSessionNotFound
	}
	session.Turns = append([]models.Turn(nil), turns...)
	session.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *SessionStorage) Exists(ctx context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.sessions[sessionID]
	return ok, nil
}

func (s *SessionStorage) Close() error {
	return nil
}
