package interfaces

import (
	"context"
)

// IngestResult reports the outcome of one upload ingestion.
type IngestResult struct {
	SessionID string
	Files     int // Files saved (unsupported extensions excluded)
	Chunks    int // Chunks produced by the splitter
	Added     int // Chunks newly added to the index after dedup
}

// IngestService runs the upload pipeline for one session: save sources,
// load documents, chunk, and index idempotently.
type IngestService interface {
	// Ingest saves the uploaded sources under the session's data
	// directory, loads and chunks them, and builds or extends the
	// session's vector index.
	Ingest(ctx context.Context, sessionID string, sources []UploadSource) (*IngestResult, error)
}
