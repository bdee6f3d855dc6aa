package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/colloquy/internal/common"
	"github.com/ternarybob/colloquy/internal/interfaces"
	"github.com/ternarybob/colloquy/internal/models"
	"github.com/ternarybob/colloquy/internal/services/chunker"
	"github.com/ternarybob/colloquy/internal/services/index"
	"github.com/ternarybob/colloquy/internal/services/llm"
	"github.com/ternarybob/colloquy/internal/services/loader"
)

func testService(t *testing.T) (*Service, string) {
	t.Helper()
	logger := common.GetLogger()

	mock, err := llm.NewMockService(32, logger)
	require.NoError(t, err)

	splitter, err := chunker.NewRecursive(200, 40, logger)
	require.NoError(t, err)

	dataDir := t.TempDir()
	manager := index.NewManager(t.TempDir(), mock, logger)
	return NewService(dataDir, loader.New(logger), splitter, manager, logger), dataDir
}

func TestIngest_NoSources(t *testing.T) {
	svc, _ := testService(t)

	_, err := svc.Ingest(context.Background(), "session_a", nil)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindConfiguration))
}

func TestIngest_CreatesIndexAndSavesFiles(t *testing.T) {
	svc, dataDir := testService(t)

	result, err := svc.Ingest(context.Background(), "session_a", []interfaces.UploadSource{
		NewBytesSource("notes.txt", []byte("Go is a statically typed language built at Google.")),
	})
	require.NoError(t, err)

	assert.Equal(t, "session_a", result.SessionID)
	assert.Equal(t, 1, result.Files)
	assert.Greater(t, result.Chunks, 0)
	assert.Equal(t, result.Chunks, result.Added)

	saved := filepath.Join(dataDir, "session_a", "notes.txt")
	content, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Contains(t, string(content), "statically typed")
}

func TestIngest_ReUploadIsDeduplicated(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	sources := []interfaces.UploadSource{
		NewBytesSource("notes.txt", []byte("Go is a statically typed language built at Google.")),
	}

	first, err := svc.Ingest(ctx, "session_a", sources)
	require.NoError(t, err)
	assert.Greater(t, first.Added, 0)

	second, err := svc.Ingest(ctx, "session_a", sources)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, first.Chunks, second.Chunks)
}

func TestIngest_SkippedFormatsNotCounted(t *testing.T) {
	svc, dataDir := testService(t)

	result, err := svc.Ingest(context.Background(), "session_a", []interfaces.UploadSource{
		NewBytesSource("notes.txt", []byte("Go is a statically typed language built at Google.")),
		NewBytesSource("image.png", []byte{0x89, 0x50, 0x4e, 0x47}),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Files)

	// The skipped file is still saved alongside the ingested one.
	_, err = os.Stat(filepath.Join(dataDir, "session_a", "image.png"))
	assert.NoError(t, err)
}

func TestIngest_OnlyUnsupportedFiles(t *testing.T) {
	svc, _ := testService(t)

	_, err := svc.Ingest(context.Background(), "session_a", []interfaces.UploadSource{
		NewBytesSource("image.png", []byte{0x89, 0x50, 0x4e, 0x47}),
	})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindConfiguration))
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "notes.txt", sanitizeFileName("notes.txt"))
	assert.Equal(t, "notes.txt", sanitizeFileName("../../etc/notes.txt"))
	assert.Equal(t, "notes.txt", sanitizeFileName("dir\\notes.txt"))
	assert.Equal(t, "my_report_v2.pdf", sanitizeFileName("my report?v2.pdf"))
	assert.Equal(t, "upload.txt", sanitizeFileName(""))
	assert.Equal(t, "upload.txt", sanitizeFileName("..."))
}
