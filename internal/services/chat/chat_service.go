// -----------------------------------------------------------------------
// Chat service - one question against a session's indexed documents
// -----------------------------------------------------------------------

package chat

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colloquy/internal/interfaces"
	"github.com/ternarybob/colloquy/internal/models"
	"github.com/ternarybob/colloquy/internal/services/index"
	"github.com/ternarybob/colloquy/internal/services/rag"
)

// Service answers questions for a session: validate the session, load
// its index, bind a retriever into the retrieval chain, invoke with the
// stored history, and persist the new turns on success.
type Service struct {
	sessions   interfaces.SessionStorage
	manager    *index.Manager
	llm        interfaces.LLMService
	searchOpts interfaces.SearchOptions
	logger     arbor.ILogger
}

func NewService(sessions interfaces.SessionStorage, manager *index.Manager, llm interfaces.LLMService, searchOpts interfaces.SearchOptions, logger arbor.ILogger) *Service {
	return &Service{
		sessions:   sessions,
		manager:    manager,
		llm:        llm,
		searchOpts: searchOpts,
		logger:     logger,
	}
}

// Chat runs one conversation turn. Unknown sessions are rejected before
// any retrieval attempt; history is only extended when the full chain
// succeeds, so a failed turn leaves the session unchanged.
func (s *Service) Chat(ctx context.Context, sessionID, message string) (string, error) {
	if message == "" {
		return "", models.ConfigurationError("message cannot be empty", nil)
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if err == interfaces.ErrSessionNotFound {
			return "", models.NotFoundError(fmt.Sprintf("unknown session %s", sessionID), err)
		}
		return "", models.InternalError("failed to read session", err)
	}

	store := s.manager.ForSession(sessionID)
	if err := store.Load(ctx); err != nil {
		return "", err
	}

	chain := rag.NewChain(s.llm, s.logger)
	if err := chain.Bind(s.manager.Retriever(store, s.searchOpts)); err != nil {
		return "", err
	}

	answer, err := chain.Invoke(ctx, message, session.Turns)
	if err != nil {
		return "", err
	}

	turns := append(session.Turns,
		models.Turn{Role: models.RoleUser, Content: message},
		models.Turn{Role: models.RoleAssistant, Content: answer},
	)
	if err := s.sessions.SetTurns(ctx, sessionID, turns); err != nil {
		return "", models.InternalError("failed to persist conversation turns", err)
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Int("history_turns", len(turns)).
		Msg("Chat turn completed")
	return answer, nil
}

// HealthCheck verifies the language model provider is reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.llm.HealthCheck(ctx)
}
