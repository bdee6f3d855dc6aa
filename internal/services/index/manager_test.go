package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/colloquy/internal/common"
	"github.com/ternarybob/colloquy/internal/interfaces"
	"github.com/ternarybob/colloquy/internal/models"
)

// stubLLM returns canned embeddings keyed by text. Unknown texts get a
// zero vector so tests fail loudly on unexpected lookups.
type stubLLM struct {
	dim     int
	vectors map[string][]float32
}

func newStubLLM(dim int) *stubLLM {
	return &stubLLM{dim: dim, vectors: make(map[string][]float32)}
}

func (s *stubLLM) set(text string, vec []float32) {
	s.vectors[text] = vec
}

func (s *stubLLM) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := s.vectors[text]; ok {
		return vec, nil
	}
	return make([]float32, s.dim), nil
}

func (s *stubLLM) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (s *stubLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	return "", nil
}

func (s *stubLLM) HealthCheck(ctx context.Context) error { return nil }
func (s *stubLLM) Provider() string                      { return "mock" }
func (s *stubLLM) Close() error                          { return nil }

func testManager(t *testing.T) (*Manager, *stubLLM) {
	t.Helper()
	llm := newStubLLM(3)
	return NewManager(t.TempDir(), llm, common.GetLogger()), llm
}

func chunkWithVec(llm *stubLLM, source, row, text string, vec []float32) models.Chunk {
	llm.set(text, vec)
	return models.Chunk{
		Text:     text,
		Metadata: models.ChunkMetadata{Source: source, Row: row},
	}
}

func removeIndexFile(t *testing.T, baseDir, sessionID, name string) {
	t.Helper()
	require.NoError(t, os.Remove(filepath.Join(baseDir, sessionID, name)))
}

func TestFingerprint(t *testing.T) {
	withSource := models.Chunk{
		Text:     "some text",
		Metadata: models.ChunkMetadata{Source: "doc.pdf", Row: "2"},
	}
	assert.Equal(t, "doc.pdf::2", Fingerprint(withSource))

	// Same provenance, different text: still the same fingerprint.
	withSource.Text = "re-extracted text"
	assert.Equal(t, "doc.pdf::2", Fingerprint(withSource))

	bare := models.Chunk{Text: "hello world"}
	fp := Fingerprint(bare)
	assert.Len(t, fp, 64)
	assert.Equal(t, fp, Fingerprint(bare))
	assert.NotEqual(t, fp, Fingerprint(models.Chunk{Text: "hello worlds"}))
}

func TestLoadOrCreate_NoIndexNoChunks(t *testing.T) {
	mgr, _ := testManager(t)
	store := mgr.ForSession("session_a")

	err := store.LoadOrCreate(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindConfiguration))
}

func TestLoad_AbsentIndexIsNotFound(t *testing.T) {
	mgr, _ := testManager(t)
	store := mgr.ForSession("session_a")

	err := store.Load(context.Background())
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindNotFound))
	assert.False(t, store.Exists())
}

func TestAddDocuments_BeforeLoadIsInvalidState(t *testing.T) {
	mgr, llm := testManager(t)
	store := mgr.ForSession("session_a")

	_, err := store.AddDocuments(context.Background(), []models.Chunk{
		chunkWithVec(llm, "a.txt", "0", "alpha", []float32{1, 0, 0}),
	})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindInvalidState))
}

func TestSearch_BeforeLoadIsInvalidState(t *testing.T) {
	mgr, _ := testManager(t)
	store := mgr.ForSession("session_a")

	_, err := store.Search(context.Background(), []float32{1, 0, 0}, interfaces.SearchOptions{})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindInvalidState))
}

func TestIngestAndIdempotentReAdd(t *testing.T) {
	mgr, llm := testManager(t)
	store := mgr.ForSession("session_a")
	ctx := context.Background()

	chunks := []models.Chunk{
		chunkWithVec(llm, "a.txt", "0", "alpha", []float32{1, 0, 0}),
		chunkWithVec(llm, "a.txt", "1", "beta", []float32{0, 1, 0}),
	}
	require.NoError(t, store.LoadOrCreate(ctx, chunks))
	assert.True(t, store.Exists())

	// Same chunks again: everything deduped.
	added, err := store.AddDocuments(ctx, chunks)
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	// A mixed batch only adds the new chunk.
	mixed := append(chunks, chunkWithVec(llm, "b.txt", "0", "gamma", []float32{0, 0, 1}))
	added, err = store.AddDocuments(ctx, mixed)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
}

func TestDedupSurvivesReload(t *testing.T) {
	llm := newStubLLM(3)
	dir := t.TempDir()
	ctx := context.Background()

	chunks := []models.Chunk{
		chunkWithVec(llm, "a.txt", "0", "alpha", []float32{1, 0, 0}),
	}

	mgr := NewManager(dir, llm, common.GetLogger())
	store := mgr.ForSession("session_a")
	require.NoError(t, store.LoadOrCreate(ctx, chunks))

	// Fresh manager, same directory: ledger must still reject re-adds.
	mgr2 := NewManager(dir, llm, common.GetLogger())
	store2 := mgr2.ForSession("session_a")
	require.NoError(t, store2.Load(ctx))

	added, err := store2.AddDocuments(ctx, chunks)
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	results, err := store2.Search(ctx, []float32{1, 0, 0}, interfaces.SearchOptions{K: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "alpha", results[0].Chunk.Text)
	assert.Equal(t, "a.txt", results[0].Chunk.Metadata.Source)
}

func TestLoadOrCreate_ExistingIndexIgnoresChunks(t *testing.T) {
	mgr, llm := testManager(t)
	ctx := context.Background()

	store := mgr.ForSession("session_a")
	require.NoError(t, store.LoadOrCreate(ctx, []models.Chunk{
		chunkWithVec(llm, "a.txt", "0", "alpha", []float32{1, 0, 0}),
	}))

	// Second handle: the offered chunk must not be indexed.
	store2 := mgr.ForSession("session_a")
	require.NoError(t, store2.LoadOrCreate(ctx, []models.Chunk{
		chunkWithVec(llm, "b.txt", "0", "ignored", []float32{0, 1, 0}),
	}))

	results, err := store2.Search(ctx, []float32{0, 1, 0}, interfaces.SearchOptions{K: 5})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "alpha", results[0].Chunk.Text)
}

func TestSessionIsolation(t *testing.T) {
	mgr, llm := testManager(t)
	ctx := context.Background()

	storeA := mgr.ForSession("session_a")
	require.NoError(t, storeA.LoadOrCreate(ctx, []models.Chunk{
		chunkWithVec(llm, "a.txt", "0", "alpha", []float32{1, 0, 0}),
	}))

	storeB := mgr.ForSession("session_b")
	err := storeB.Load(ctx)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindNotFound))
	assert.False(t, storeB.Exists())
}

func TestExists_PartialPairReportsFalse(t *testing.T) {
	llm := newStubLLM(3)
	dir := t.TempDir()
	ctx := context.Background()

	mgr := NewManager(dir, llm, common.GetLogger())
	store := mgr.ForSession("session_a")
	require.NoError(t, store.LoadOrCreate(ctx, []models.Chunk{
		chunkWithVec(llm, "a.txt", "0", "alpha", []float32{1, 0, 0}),
	}))
	require.True(t, store.Exists())

	removeIndexFile(t, dir, "session_a", chunksFileName)

	store2 := mgr.ForSession("session_a")
	assert.False(t, store2.Exists())
	err := store2.Load(ctx)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindNotFound))
}

func TestSearch_MMRDiversifiesResults(t *testing.T) {
	mgr, llm := testManager(t)
	ctx := context.Background()

	// Two near-duplicate vectors close to the query plus one distant one.
	// The duplicate's redundancy penalty exceeds its relevance edge, so
	// MMR at the default weighting swaps in the diverse chunk.
	chunks := []models.Chunk{
		chunkWithVec(llm, "a.txt", "0", "first", []float32{0.998, 0.0632, 0}),
		chunkWithVec(llm, "a.txt", "1", "near duplicate", []float32{1, 0, 0}),
		chunkWithVec(llm, "a.txt", "2", "different", []float32{0, 1, 0}),
	}
	store := mgr.ForSession("session_a")
	require.NoError(t, store.LoadOrCreate(ctx, chunks))

	query := []float32{0.995, 0.0998, 0}

	sim, err := store.Search(ctx, query, interfaces.SearchOptions{
		Mode: interfaces.SearchModeSimilarity,
		K:    2,
	})
	require.NoError(t, err)
	require.Len(t, sim, 2)
	assert.Equal(t, "first", sim[0].Chunk.Text)
	assert.Equal(t, "near duplicate", sim[1].Chunk.Text)

	mmr, err := store.Search(ctx, query, interfaces.SearchOptions{
		Mode:       interfaces.SearchModeMMR,
		K:          2,
		FetchK:     3,
		LambdaMult: interfaces.Float(0.5),
	})
	require.NoError(t, err)
	require.Len(t, mmr, 2)
	assert.Equal(t, "first", mmr[0].Chunk.Text)
	assert.Equal(t, "different", mmr[1].Chunk.Text)
}

func TestSearch_MMRLambdaExtremes(t *testing.T) {
	mgr, llm := testManager(t)
	ctx := context.Background()

	chunks := []models.Chunk{
		chunkWithVec(llm, "a.txt", "0", "first", []float32{0.998, 0.0632, 0}),
		chunkWithVec(llm, "a.txt", "1", "near duplicate", []float32{1, 0, 0}),
		chunkWithVec(llm, "a.txt", "2", "different", []float32{0, 1, 0}),
	}
	store := mgr.ForSession("session_a")
	require.NoError(t, store.LoadOrCreate(ctx, chunks))

	query := []float32{0.995, 0.0998, 0}

	// Lambda 1 degenerates to pure similarity and keeps the duplicate.
	relevant, err := store.Search(ctx, query, interfaces.SearchOptions{
		Mode:       interfaces.SearchModeMMR,
		K:          2,
		FetchK:     3,
		LambdaMult: interfaces.Float(1),
	})
	require.NoError(t, err)
	require.Len(t, relevant, 2)
	assert.Equal(t, "near duplicate", relevant[1].Chunk.Text)

	// Lambda 0 is pure diversity and swaps it out.
	diverse, err := store.Search(ctx, query, interfaces.SearchOptions{
		Mode:       interfaces.SearchModeMMR,
		K:          2,
		FetchK:     3,
		LambdaMult: interfaces.Float(0),
	})
	require.NoError(t, err)
	require.Len(t, diverse, 2)
	assert.Equal(t, "different", diverse[1].Chunk.Text)
}

func TestSearch_MMRUnsetLambdaUsesDefault(t *testing.T) {
	mgr, llm := testManager(t)
	ctx := context.Background()

	// Chosen so the default weighting keeps the slightly redundant chunk
	// while explicit lambda 0 would discard it: an unset option behaving
	// as pure diversity is observable as a different second pick.
	chunks := []models.Chunk{
		chunkWithVec(llm, "a.txt", "0", "first", []float32{0.998, -0.0632, 0}),
		chunkWithVec(llm, "a.txt", "1", "near duplicate", []float32{0.995, 0.0998, 0}),
		chunkWithVec(llm, "a.txt", "2", "different", []float32{0, 0, 1}),
	}
	store := mgr.ForSession("session_a")
	require.NoError(t, store.LoadOrCreate(ctx, chunks))

	query := []float32{1, 0, 0}

	unset, err := store.Search(ctx, query, interfaces.SearchOptions{
		Mode:   interfaces.SearchModeMMR,
		K:      2,
		FetchK: 3,
	})
	require.NoError(t, err)
	require.Len(t, unset, 2)
	assert.Equal(t, "near duplicate", unset[1].Chunk.Text)

	explicit, err := store.Search(ctx, query, interfaces.SearchOptions{
		Mode:       interfaces.SearchModeMMR,
		K:          2,
		FetchK:     3,
		LambdaMult: interfaces.Float(interfaces.DefaultLambdaMult),
	})
	require.NoError(t, err)
	assert.Equal(t, unset, explicit)

	zero, err := store.Search(ctx, query, interfaces.SearchOptions{
		Mode:       interfaces.SearchModeMMR,
		K:          2,
		FetchK:     3,
		LambdaMult: interfaces.Float(0),
	})
	require.NoError(t, err)
	require.Len(t, zero, 2)
	assert.Equal(t, "different", zero[1].Chunk.Text)
}

func TestSearch_QueryDimensionMismatch(t *testing.T) {
	mgr, llm := testManager(t)
	ctx := context.Background()

	store := mgr.ForSession("session_a")
	require.NoError(t, store.LoadOrCreate(ctx, []models.Chunk{
		chunkWithVec(llm, "a.txt", "0", "alpha", []float32{1, 0, 0}),
	}))

	// A session indexed under a different embed dimension must be
	// rejected cleanly in both modes.
	_, err := store.Search(ctx, []float32{1, 0, 0, 0, 0}, interfaces.SearchOptions{K: 1})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindConfiguration))

	_, err = store.Search(ctx, []float32{1, 0}, interfaces.SearchOptions{
		Mode: interfaces.SearchModeMMR,
		K:    1,
	})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindConfiguration))
}

func TestSearch_FetchKMustCoverK(t *testing.T) {
	mgr, llm := testManager(t)
	ctx := context.Background()

	store := mgr.ForSession("session_a")
	require.NoError(t, store.LoadOrCreate(ctx, []models.Chunk{
		chunkWithVec(llm, "a.txt", "0", "alpha", []float32{1, 0, 0}),
	}))

	_, err := store.Search(ctx, []float32{1, 0, 0}, interfaces.SearchOptions{
		Mode:   interfaces.SearchModeMMR,
		K:      10,
		FetchK: 5,
	})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindConfiguration))
}

func TestSearch_DefaultsApplied(t *testing.T) {
	mgr, llm := testManager(t)
	ctx := context.Background()

	var chunks []models.Chunk
	for i := 0; i < 10; i++ {
		chunks = append(chunks, chunkWithVec(llm, "a.txt", fmt.Sprintf("%d", i),
			fmt.Sprintf("chunk %d", i), []float32{float32(i), 1, 0}))
	}
	store := mgr.ForSession("session_a")
	require.NoError(t, store.LoadOrCreate(ctx, chunks))

	results, err := store.Search(ctx, []float32{1, 1, 0}, interfaces.SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, results, interfaces.DefaultSearchK)
}

func TestRetriever(t *testing.T) {
	mgr, llm := testManager(t)
	ctx := context.Background()

	store := mgr.ForSession("session_a")
	require.NoError(t, store.LoadOrCreate(ctx, []models.Chunk{
		chunkWithVec(llm, "a.txt", "0", "alpha", []float32{1, 0, 0}),
		chunkWithVec(llm, "a.txt", "1", "beta", []float32{0, 1, 0}),
	}))

	llm.set("find alpha", []float32{1, 0.1, 0})
	r := mgr.Retriever(store, interfaces.SearchOptions{K: 1})

	chunks, err := r.Retrieve(ctx, "find alpha")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "alpha", chunks[0].Text)
}
