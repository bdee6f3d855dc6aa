package interfaces

import (
	"context"

	"github.com/ternarybob/colloquy/internal/models"
)

// SearchMode selects the retrieval ranking policy.
type SearchMode string

const (
	// SearchModeSimilarity returns the top-k nearest chunks by cosine
	// similarity.
	SearchModeSimilarity SearchMode = "similarity"

	// SearchModeMMR fetches a wider candidate pool and greedily re-ranks
	// by a convex combination of relevance and dissimilarity to the
	// already-selected results (maximal marginal relevance).
	SearchModeMMR SearchMode = "mmr"
)

// Default search parameters, matching the retrieval defaults used when a
// caller leaves MMR options unset.
const (
	DefaultSearchK    = 5
	DefaultFetchK     = 20
	DefaultLambdaMult = 0.5
)

// SearchOptions tunes an index search.
type SearchOptions struct {
	Mode SearchMode

	// K is the number of results to return.
	K int

	// FetchK is the candidate pool size for MMR re-ranking. Must be >= K.
	// Ignored in similarity mode.
	FetchK int

	// LambdaMult in [0,1] weights relevance against diversity for MMR:
	// 1 behaves like pure similarity, 0 maximizes spread. Nil applies
	// DefaultLambdaMult; 0 is a legal explicit value.
	LambdaMult *float64
}

// Float returns a pointer to v, for optional option fields.
func Float(v float64) *float64 {
	return &v
}

// IndexStore maintains a durable, deduplicated, session-scoped vector
// index. The only lifecycle transition is Uninitialized -> Loaded via
// Load or LoadOrCreate; Loaded is terminal for the handle's lifetime.
type IndexStore interface {
	// Load opens an existing persisted index. Fails with a not-found
	// error if the paired index files are absent.
	Load(ctx context.Context) error

	// LoadOrCreate loads the persisted index if present (chunks are
	// ignored in that case), otherwise embeds the given chunks, builds a
	// fresh index, persists it, and records every chunk's fingerprint.
	// Fails with a configuration error when there is no existing index
	// and no chunks to create one from.
	LoadOrCreate(ctx context.Context, chunks []models.Chunk) error

	// AddDocuments embeds and appends chunks whose fingerprints are not
	// already in the ledger, persists index and ledger, and returns the
	// count of newly added chunks. Fails with an invalid-state error
	// before Load/LoadOrCreate.
	AddDocuments(ctx context.Context, chunks []models.Chunk) (int, error)

	// Search ranks indexed chunks against the query vector. Reads may run
	// concurrently once the index is loaded.
	Search(ctx context.Context, vector []float32, opts SearchOptions) ([]models.ScoredChunk, error)

	// Exists reports whether both paired index files are present on disk.
	// Partial state (one file missing) reports false.
	Exists() bool
}

// Retriever is the handle bound into a retrieval chain: it embeds a text
// query and searches one session's index with fixed options.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]models.Chunk, error)
}
