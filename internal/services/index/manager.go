package index

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colloquy/internal/interfaces"
	"github.com/ternarybob/colloquy/internal/models"
)

// Manager hands out session-scoped index stores rooted under a common
// directory. All stores for the same session share one lock, so two
// handles mutating the same session serialize even though each request
// builds its own handle.
type Manager struct {
	baseDir string
	llm     interfaces.LLMService
	logger  arbor.ILogger
	locks   sync.Map // session id -> *sync.RWMutex
}

func NewManager(baseDir string, llm interfaces.LLMService, logger arbor.ILogger) *Manager {
	return &Manager{
		baseDir: baseDir,
		llm:     llm,
		logger:  logger,
	}
}

// ForSession returns the index store for one session. The store starts
// uninitialized; callers must Load or LoadOrCreate before searching.
func (m *Manager) ForSession(sessionID string) interfaces.IndexStore {
	lock, _ := m.locks.LoadOrStore(sessionID, &sync.RWMutex{})
	return &sessionIndex{
		sessionID: sessionID,
		dir:       filepath.Join(m.baseDir, sessionID),
		llm:       m.llm,
		logger:    m.logger,
		mu:        lock.(*sync.RWMutex),
	}
}

// Retriever binds a loaded store and fixed search options into a
// text-in, chunks-out handle for the retrieval chain.
func (m *Manager) Retriever(store interfaces.IndexStore, opts interfaces.SearchOptions) interfaces.Retriever {
	return &retriever{store: store, llm: m.llm, opts: opts}
}

// sessionIndex is one session's durable, deduplicated vector index.
type sessionIndex struct {
	sessionID string
	dir       string
	llm       interfaces.LLMService
	logger    arbor.ILogger

	// mu is shared across all handles for the session. Mutations hold the
	// write lock; searches hold the read lock.
	mu     *sync.RWMutex
	idx    *flatIndex
	ledger *ledger
}

func (s *sessionIndex) Exists() bool {
	return pairExists(s.dir)
}

// Load opens the persisted index pair for this session. Absence of
// either file reports not-found; this is the chat path, which never
// creates an index.
func (s *sessionIndex) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idx != nil {
		return nil
	}
	if !pairExists(s.dir) {
		return models.NotFoundError(
			fmt.Sprintf("no index found for session %s, ingest documents first", s.sessionID), nil)
	}
	return s.loadLocked()
}

// LoadOrCreate opens the persisted index if present, ignoring chunks.
// Otherwise it bootstraps a fresh index from the given chunks. An
// absent index with no chunks to build from is a configuration error.
func (s *sessionIndex) LoadOrCreate(ctx context.Context, chunks []models.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idx != nil {
		return nil
	}
	if pairExists(s.dir) {
		return s.loadLocked()
	}
	if len(chunks) == 0 {
		return models.ConfigurationError(
			fmt.Sprintf("no existing index for session %s and no documents to create one", s.sessionID), nil)
	}

	vectors, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return err
	}

	idx := newFlatIndex(len(vectors[0]))
	if err := idx.add(vectors, chunks); err != nil {
		return models.InternalError("failed to build index", err)
	}

	led := newLedger()
	for _, c := range chunks {
		led.add(Fingerprint(c))
	}

	// Index before ledger: a crash between the two writes leaves chunks
	// indexed but unrecorded, which a later ingest repairs by re-adding
	// them (duplicates in the index are benign for retrieval). The
	// reverse order would silently drop chunks forever.
	if err := idx.save(s.dir); err != nil {
		return models.InternalError("failed to persist index", err)
	}
	if err := led.save(s.dir); err != nil {
		return models.InternalError("failed to persist ingestion ledger", err)
	}

	s.idx = idx
	s.ledger = led

	s.logger.Info().
		Str("session_id", s.sessionID).
		Int("chunks", len(chunks)).
		Int("dimension", idx.dim).
		Msg("Index created")
	return nil
}

// AddDocuments embeds and appends only chunks whose fingerprints are not
// yet in the ledger, then persists both files. Returns the number of
// chunks actually added; re-ingesting already-indexed content returns 0.
func (s *sessionIndex) AddDocuments(ctx context.Context, chunks []models.Chunk) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idx == nil {
		return 0, models.InvalidStateError("index not loaded, call Load or LoadOrCreate first")
	}

	var fresh []models.Chunk
	var prints []string
	seen := make(map[string]bool)
	for _, c := range chunks {
		fp := Fingerprint(c)
		if s.ledger.has(fp) || seen[fp] {
			continue
		}
		seen[fp] = true
		fresh = append(fresh, c)
		prints = append(prints, fp)
	}

	if len(fresh) == 0 {
		s.logger.Debug().
			Str("session_id", s.sessionID).
			Int("offered", len(chunks)).
			Msg("All chunks already indexed")
		return 0, nil
	}

	vectors, err := s.embedChunks(ctx, fresh)
	if err != nil {
		return 0, err
	}
	if err := s.idx.add(vectors, fresh); err != nil {
		return 0, models.InternalError("failed to extend index", err)
	}

	if err := s.idx.save(s.dir); err != nil {
		return 0, models.InternalError("failed to persist index", err)
	}
	for _, fp := range prints {
		s.ledger.add(fp)
	}
	if err := s.ledger.save(s.dir); err != nil {
		return 0, models.InternalError("failed to persist ingestion ledger", err)
	}

	s.logger.Info().
		Str("session_id", s.sessionID).
		Int("offered", len(chunks)).
		Int("added", len(fresh)).
		Int("total", s.idx.size()).
		Msg("Documents added to index")
	return len(fresh), nil
}

// Search ranks indexed chunks against the query vector. Multiple
// searches may run concurrently; mutations are excluded for their
// duration.
func (s *sessionIndex) Search(ctx context.Context, vector []float32, opts interfaces.SearchOptions) ([]models.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.idx == nil {
		return nil, models.InvalidStateError("index not loaded, call Load or LoadOrCreate first")
	}
	if len(vector) != s.idx.dim {
		return nil, models.ConfigurationError(
			fmt.Sprintf("query vector dimension %d does not match index dimension %d (was embed_dimension changed after ingestion?)", len(vector), s.idx.dim), nil)
	}

	k := opts.K
	if k <= 0 {
		k = interfaces.DefaultSearchK
	}

	switch opts.Mode {
	case interfaces.SearchModeMMR:
		fetchK := opts.FetchK
		if fetchK <= 0 {
			fetchK = interfaces.DefaultFetchK
		}
		if fetchK < k {
			return nil, models.ConfigurationError(
				fmt.Sprintf("fetch_k (%d) must be at least k (%d)", fetchK, k), nil)
		}
		lambda := interfaces.DefaultLambdaMult
		if opts.LambdaMult != nil {
			lambda = *opts.LambdaMult
		}
		if lambda < 0 || lambda > 1 {
			return nil, models.ConfigurationError(
				fmt.Sprintf("lambda_mult must be in [0,1], got %g", lambda), nil)
		}
		return s.idx.mmrSearch(vector, k, fetchK, lambda), nil
	case interfaces.SearchModeSimilarity, "":
		return s.idx.similaritySearch(vector, k), nil
	default:
		return nil, models.ConfigurationError(fmt.Sprintf("unknown search mode %q", opts.Mode), nil)
	}
}

// loadLocked reads the index pair and ledger. Caller holds the write lock.
func (s *sessionIndex) loadLocked() error {
	idx, err := loadFlatIndex(s.dir)
	if err != nil {
		if models.IsKind(err, models.KindDataIntegrity) {
			return err
		}
		return models.InternalError(fmt.Sprintf("failed to load index for session %s", s.sessionID), err)
	}
	led, err := loadLedger(s.dir)
	if err != nil {
		return models.InternalError(fmt.Sprintf("failed to load ingestion ledger for session %s", s.sessionID), err)
	}

	s.idx = idx
	s.ledger = led

	s.logger.Debug().
		Str("session_id", s.sessionID).
		Int("chunks", idx.size()).
		Msg("Index loaded")
	return nil
}

func (s *sessionIndex) embedChunks(ctx context.Context, chunks []models.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.llm.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, models.DataIntegrityError(
			fmt.Sprintf("embedding provider returned %d vectors for %d texts", len(vectors), len(texts)), nil)
	}
	return vectors, nil
}

// retriever embeds a text query and searches one session's index.
type retriever struct {
	store interfaces.IndexStore
	llm   interfaces.LLMService
	opts  interfaces.SearchOptions
}

func (r *retriever) Retrieve(ctx context.Context, query string) ([]models.Chunk, error) {
	vector, err := r.llm.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	scored, err := r.store.Search(ctx, vector, r.opts)
	if err != nil {
		return nil, err
	}
	chunks := make([]models.Chunk, len(scored))
	for i, s := range scored {
		chunks[i] = s.Chunk
	}
	return chunks, nil
}
