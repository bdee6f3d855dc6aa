package index

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/ternarybob/colloquy/internal/models"
)

// Fingerprint derives the stable dedup identity of a chunk. Chunks with
// source metadata are identified by origin (source::row), so re-uploading
// the same file section is a no-op even if the text was re-extracted
// slightly differently. Chunks without provenance fall back to a content
// hash of the text.
//
// Two distinct chunks from the same source row share a fingerprint and
// only the first is kept; sources must emit distinct row identifiers per
// retrievable unit.
func Fingerprint(chunk models.Chunk) string {
	if chunk.Metadata.Source != "" {
		return fmt.Sprintf("%s::%s", chunk.Metadata.Source, chunk.Metadata.Row)
	}
	sum := sha256.Sum256([]byte(chunk.Text))
	return hex.EncodeToString(sum[:])
}
