// -----------------------------------------------------------------------
// Application wiring - construct services, storage, and handlers
// -----------------------------------------------------------------------

package app

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colloquy/internal/common"
	"github.com/ternarybob/colloquy/internal/handlers"
	"github.com/ternarybob/colloquy/internal/interfaces"
	"github.com/ternarybob/colloquy/internal/services/chat"
	"github.com/ternarybob/colloquy/internal/services/chunker"
	"github.com/ternarybob/colloquy/internal/services/index"
	"github.com/ternarybob/colloquy/internal/services/ingest"
	"github.com/ternarybob/colloquy/internal/services/llm"
	"github.com/ternarybob/colloquy/internal/services/loader"
	badgerstore "github.com/ternarybob/colloquy/internal/storage/badger"
	"github.com/ternarybob/colloquy/internal/storage/memory"
)

// App holds all application components and dependencies.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	LLMService     interfaces.LLMService
	SessionStorage interfaces.SessionStorage
	IndexManager   *index.Manager
	IngestService  interfaces.IngestService
	ChatService    interfaces.ChatService

	// Handlers
	UploadHandler *handlers.UploadHandler
	ChatHandler   *handlers.ChatHandler
	APIHandler    *handlers.APIHandler
}

// New wires the application: LLM provider, session registry, index
// manager, pipeline services, and HTTP handlers.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	llmService, err := llm.NewService(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM service: %w", err)
	}
	a.LLMService = llmService

	sessions, err := newSessionStorage(cfg, logger)
	if err != nil {
		llmService.Close()
		return nil, err
	}
	a.SessionStorage = sessions

	a.IndexManager = index.NewManager(cfg.Storage.IndexDir, llmService, logger)

	splitter, err := chunker.NewRecursive(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize chunker: %w", err)
	}

	a.IngestService = ingest.NewService(cfg.Storage.DataDir, loader.New(logger), splitter, a.IndexManager, logger)

	searchOpts := interfaces.SearchOptions{
		Mode:       interfaces.SearchMode(cfg.Retrieval.Mode),
		K:          cfg.Retrieval.K,
		FetchK:     cfg.Retrieval.FetchK,
		LambdaMult: interfaces.Float(cfg.Retrieval.LambdaMult),
	}
	a.ChatService = chat.NewService(sessions, a.IndexManager, llmService, searchOpts, logger)

	a.UploadHandler = handlers.NewUploadHandler(a.IngestService, sessions, cfg.Ingest.MaxUploadSize, logger)
	a.ChatHandler = handlers.NewChatHandler(a.ChatService, logger)
	a.APIHandler = handlers.NewAPIHandler()

	logger.Info().
		Str("provider", llmService.Provider()).
		Str("sessions_backend", cfg.Storage.Sessions.Backend).
		Str("retrieval_mode", cfg.Retrieval.Mode).
		Msg("Application initialized")

	return a, nil
}

func newSessionStorage(cfg *common.Config, logger arbor.ILogger) (interfaces.SessionStorage, error) {
	switch cfg.Storage.Sessions.Backend {
	case "badger":
		db, err := badgerstore.NewBadgerDB(cfg.Storage.Sessions.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open session database: %w", err)
		}
		return badgerstore.NewSessionStorage(db, logger), nil
	case "memory", "":
		return memory.NewSessionStorage(), nil
	default:
		return nil, fmt.Errorf("unknown sessions backend %q (expected memory or badger)", cfg.Storage.Sessions.Backend)
	}
}

// Close releases application resources in reverse construction order.
func (a *App) Close() error {
	var firstErr error

	if a.SessionStorage != nil {
		if err := a.SessionStorage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close session storage")
			firstErr = err
		}
	}
	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	a.Logger.Info().Msg("Application closed")
	return firstErr
}
