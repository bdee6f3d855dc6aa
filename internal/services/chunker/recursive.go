// -----------------------------------------------------------------------
// Recursive character splitter - boundary-aware document chunking
// -----------------------------------------------------------------------

package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colloquy/internal/models"
)

// defaultSeparators is the boundary search order: paragraph, line,
// sentence, word, then single characters as a last resort.
var defaultSeparators = []string{"\n\n", "\n", ". ", " "}

// Recursive splits documents into overlapping chunks by recursive
// boundary search so that no chunk exceeds the configured size and
// adjacent chunks from the same source share up to the configured
// overlap of trailing context.
type Recursive struct {
	chunkSize    int
	chunkOverlap int
	logger       arbor.ILogger
}

// NewRecursive creates a splitter. Overlap must be smaller than size.
func NewRecursive(chunkSize, chunkOverlap int, logger arbor.ILogger) (*Recursive, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, chunk size), got %d for size %d", chunkOverlap, chunkSize)
	}

	return &Recursive{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       logger,
	}, nil
}

// Split chunks every document in order, copying source metadata
// unchanged to each derived chunk. An empty document list yields an
// empty chunk sequence; rejecting an entirely-empty upload is the
// caller's responsibility.
func (r *Recursive) Split(docs []models.Document) []models.Chunk {
	chunks := make([]models.Chunk, 0, len(docs))

	for _, doc := range docs {
		meta := models.ChunkMetadata{Source: doc.Source, Row: doc.Row}
		for _, text := range r.splitText(doc.Text) {
			chunks = append(chunks, models.Chunk{Text: text, Metadata: meta})
		}
	}

	r.logger.Debug().
		Int("documents", len(docs)).
		Int("chunks", len(chunks)).
		Int("chunk_size", r.chunkSize).
		Int("chunk_overlap", r.chunkOverlap).
		Msg("Documents split")

	return chunks
}

// splitText splits one text into bounded chunks.
func (r *Recursive) splitText(text string) []string {
	pieces := r.splitRecursive(text, defaultSeparators)

	merged := r.merge(pieces)

	// Drop whitespace-only chunks; they carry no retrievable content.
	out := merged[:0]
	for _, c := range merged {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out
}

// splitRecursive breaks text into pieces no longer than the chunk size,
// preferring the earliest separator in the boundary order that applies.
func (r *Recursive) splitRecursive(text string, separators []string) []string {
	if utf8.RuneCountInString(text) <= r.chunkSize {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	if len(separators) == 0 {
		return r.splitRunes(text)
	}

	sep := separators[0]
	parts := strings.Split(text, sep)
	if len(parts) == 1 {
		// Separator absent, fall through to the next boundary.
		return r.splitRecursive(text, separators[1:])
	}

	var pieces []string
	for i, part := range parts {
		if i < len(parts)-1 {
			part += sep
		}
		if utf8.RuneCountInString(part) > r.chunkSize {
			pieces = append(pieces, r.splitRecursive(part, separators[1:])...)
		} else if part != "" {
			pieces = append(pieces, part)
		}
	}
	return pieces
}

// splitRunes is the last-resort fixed-window split for text with no
// usable boundaries.
func (r *Recursive) splitRunes(text string) []string {
	runes := []rune(text)
	step := r.chunkSize - r.chunkOverlap

	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + r.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

// merge combines consecutive pieces into chunks bounded by the chunk
// size, carrying at most chunkOverlap runes of trailing context into
// the next chunk. The tail remainder is always emitted.
func (r *Recursive) merge(pieces []string) []string {
	var chunks []string
	var window []string
	windowLen := 0

	for _, piece := range pieces {
		pieceLen := utf8.RuneCountInString(piece)

		if windowLen > 0 && windowLen+pieceLen > r.chunkSize {
			chunks = append(chunks, strings.Join(window, ""))

			// Retain the overlap tail, dropping further if the incoming
			// piece would push the next chunk past the size bound.
			for len(window) > 0 && (windowLen > r.chunkOverlap || windowLen+pieceLen > r.chunkSize) {
				windowLen -= utf8.RuneCountInString(window[0])
				window = window[1:]
			}
		}

		window = append(window, piece)
		windowLen += pieceLen
	}

	if len(window) > 0 {
		chunks = append(chunks, strings.Join(window, ""))
	}
	return chunks
}
