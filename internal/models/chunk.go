package models

// Document represents one text segment produced by the document loader.
// A single uploaded file may yield several documents (one per PDF page,
// one per CSV row) sharing the same Source.
type Document struct {
	Source string `json:"source"`           // Originating file name or path
	Row    string `json:"row_id,omitempty"` // Optional row/page identifier within the source
	Text   string `json:"text"`
}

// ChunkMetadata carries provenance for a chunk. It is copied unchanged
// from the source document to every chunk derived from it.
type ChunkMetadata struct {
	Source string `json:"source"`
	Row    string `json:"row_id,omitempty"`
}

// Chunk is the unit of embedding and retrieval: a bounded span of text
// with source metadata. Chunks are immutable once produced by the chunker.
type Chunk struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ScoredChunk is a chunk paired with a retrieval relevance score.
// Higher scores rank first.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}
