// -----------------------------------------------------------------------
// Badger session registry - durable backend for session histories
// -----------------------------------------------------------------------

package badger

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colloquy/internal/interfaces"
	"github.com/ternarybob/colloquy/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// SessionStorage persists sessions in Badger, so conversation histories
// survive process restarts alongside the on-disk vector indexes.
type SessionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

func NewSessionStorage(db *BadgerDB, logger arbor.ILogger) *SessionStorage {
	return &SessionStorage{db: db, logger: logger}
}

func (s *SessionStorage) Create(ctx context.Context, sessionID string) error {
	var existing models.Session
	err := s.db.Store().Get(sessionID, &existing)
	if err == nil {
		return nil
	}
	if err != badgerhold.ErrNotFound {
		return err
	}

	now := time.Now().UTC()
	session := &models.Session{
		ID:        sessionID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.Store().Insert(sessionID, session); err != nil {
		return err
	}

	s.logger.Debug().Str("session_id", sessionID).Msg("Session created")
	return nil
}

func (s *SessionStorage) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	if err := s.db.Store().Get(sessionID, &session); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (s *SessionStorage) SetTurns(ctx context.Context, sessionID string, turns []models.Turn) error {
	var session models.Session
	if err := s.db.Store().Get(sessionID, &session); err != nil {
		if err == badgerhold.ErrNotFound {
			return interfaces.ErrSessionNotFound
		}
		return err
	}

	session.Turns = turns
	session.UpdatedAt = time.Now().UTC()
	return s.db.Store().Update(sessionID, &session)
}

func (s *SessionStorage) Exists(ctx context.Context, sessionID string) (bool, error) {
	var session models.Session
	err := s.db.Store().Get(sessionID, &session)
	if err == badgerhold.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SessionStorage) Close() error {
	return s.db.Close()
}
