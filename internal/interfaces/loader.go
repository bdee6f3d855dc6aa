package interfaces

import (
	"context"

	"github.com/ternarybob/colloquy/internal/models"
)

// UploadSource is the single capability every upload origin must
// implement: HTTP multipart parts, local files, and in-memory buffers
// all adapt to it. The loader boundary depends only on this interface,
// never on concrete source types.
type UploadSource interface {
	// Name returns the original file name, including extension.
	Name() string

	// Read returns the full file content.
	Read() ([]byte, error)
}

// DocumentLoader converts saved upload files into text segments with
// source metadata. Unsupported extensions are skipped with a warning,
// never failing the whole batch.
type DocumentLoader interface {
	Load(ctx context.Context, paths []string) ([]models.Document, error)
}
