// -----------------------------------------------------------------------
// Ingest service - upload pipeline: save, load, chunk, index
// -----------------------------------------------------------------------

package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colloquy/internal/interfaces"
	"github.com/ternarybob/colloquy/internal/models"
	"github.com/ternarybob/colloquy/internal/services/chunker"
	"github.com/ternarybob/colloquy/internal/services/index"
)

// Service runs the upload pipeline for one session: persist the uploaded
// sources under the session's data directory, load them into documents,
// chunk, and build or extend the session's vector index idempotently.
type Service struct {
	dataDir  string
	loader   interfaces.DocumentLoader
	splitter *chunker.Recursive
	manager  *index.Manager
	logger   arbor.ILogger
}

func NewService(dataDir string, loader interfaces.DocumentLoader, splitter *chunker.Recursive, manager *index.Manager, logger arbor.ILogger) *Service {
	return &Service{
		dataDir:  dataDir,
		loader:   loader,
		splitter: splitter,
		manager:  manager,
		logger:   logger,
	}
}

// Ingest saves sources, chunks them, and indexes the chunks. Saved files
// keep their sanitized original names, so re-uploading a file overwrites
// its previous copy and its chunks dedup against the ledger.
func (s *Service) Ingest(ctx context.Context, sessionID string, sources []interfaces.UploadSource) (*interfaces.IngestResult, error) {
	if len(sources) == 0 {
		return nil, models.ConfigurationError("no files supplied for ingestion", nil)
	}

	paths, err := s.saveSources(sessionID, sources)
	if err != nil {
		return nil, err
	}

	docs, err := s.loader.Load(ctx, paths)
	if err != nil {
		return nil, models.InternalError("failed to load uploaded documents", err)
	}

	// Count the files that actually yielded documents; skipped formats
	// are saved but not reported as ingested.
	loaded := make(map[string]bool)
	for _, doc := range docs {
		loaded[doc.Source] = true
	}

	chunks := s.splitter.Split(docs)
	if len(chunks) == 0 {
		return nil, models.ConfigurationError("uploaded files contained no extractable text", nil)
	}

	added, err := s.indexChunks(ctx, sessionID, chunks)
	if err != nil {
		return nil, err
	}

	result := &interfaces.IngestResult{
		SessionID: sessionID,
		Files:     len(loaded),
		Chunks:    len(chunks),
		Added:     added,
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Int("files", result.Files).
		Int("chunks", result.Chunks).
		Int("added", result.Added).
		Msg("Ingestion completed")
	return result, nil
}

// saveSources writes every source into the session's upload directory
// and returns the saved paths.
func (s *Service) saveSources(sessionID string, sources []interfaces.UploadSource) ([]string, error) {
	dir := filepath.Join(s.dataDir, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, models.InternalError("failed to create session upload directory", err)
	}

	paths := make([]string, 0, len(sources))
	for _, source := range sources {
		data, err := source.Read()
		if err != nil {
			return nil, models.InternalError(fmt.Sprintf("failed to read upload %s", source.Name()), err)
		}

		name := sanitizeFileName(source.Name())
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, models.InternalError(fmt.Sprintf("failed to save upload %s", name), err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// indexChunks builds a fresh index or extends an existing one. On a
// fresh build every chunk is new by definition.
func (s *Service) indexChunks(ctx context.Context, sessionID string, chunks []models.Chunk) (int, error) {
	store := s.manager.ForSession(sessionID)

	if store.Exists() {
		if err := store.Load(ctx); err != nil {
			return 0, err
		}
		return store.AddDocuments(ctx, chunks)
	}

	if err := store.LoadOrCreate(ctx, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// sanitizeFileName reduces an upload name to a safe base name: path
// components are stripped and characters outside [A-Za-z0-9._-] become
// underscores. The extension survives, so format detection still works.
func sanitizeFileName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)

	if mapped == "" || strings.Trim(mapped, "._") == "" {
		return "upload.txt"
	}
	return mapped
}
