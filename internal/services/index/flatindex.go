package index

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/colloquy/internal/models"
)

const (
	vectorsFileName = "index.vec"
	chunksFileName  = "index.docs"

	vecMagic   uint32 = 0x434C5156 // "CLQV"
	vecVersion uint32 = 1
)

// flatIndex is an exhaustive-scan vector index: a dense matrix of
// embeddings paired position-for-position with the chunks they encode.
// Exact search over a per-session corpus is cheap enough that no ANN
// structure is warranted.
type flatIndex struct {
	dim     int
	vectors [][]float32
	chunks  []models.Chunk
}

func newFlatIndex(dim int) *flatIndex {
	return &flatIndex{dim: dim}
}

// add appends vectors and their chunks. Lengths must match and every
// vector must have the index dimension.
func (f *flatIndex) add(vectors [][]float32, chunks []models.Chunk) error {
	if len(vectors) != len(chunks) {
		return fmt.Errorf("vector/chunk count mismatch: %d vs %d", len(vectors), len(chunks))
	}
	for i, v := range vectors {
		if len(v) != f.dim {
			return fmt.Errorf("vector %d has dimension %d, index expects %d", i, len(v), f.dim)
		}
	}
	f.vectors = append(f.vectors, vectors...)
	f.chunks = append(f.chunks, chunks...)
	return nil
}

func (f *flatIndex) size() int {
	return len(f.vectors)
}

// save persists the index as a file pair in dir: a binary vector matrix
// and a JSON chunk array. Both files are rewritten whole; the pair is
// only considered present when both exist.
func (f *flatIndex) save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	if err := f.saveVectors(filepath.Join(dir, vectorsFileName)); err != nil {
		return err
	}

	data, err := json.Marshal(f.chunks)
	if err != nil {
		return fmt.Errorf("failed to encode index chunks: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, chunksFileName), data, 0o644); err != nil {
		return fmt.Errorf("failed to write index chunks: %w", err)
	}
	return nil
}

func (f *flatIndex) saveVectors(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create vector file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	header := []uint32{vecMagic, vecVersion, uint32(f.dim), uint32(len(f.vectors))}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("failed to write vector file header: %w", err)
		}
	}
	for _, vec := range f.vectors {
		if err := binary.Write(w, binary.LittleEndian, vec); err != nil {
			return fmt.Errorf("failed to write vectors: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush vector file: %w", err)
	}
	return nil
}

// loadFlatIndex reads a persisted file pair from dir. The caller checks
// presence beforehand; here a missing file is an error. A count mismatch
// between the two files means the pair was corrupted between writes.
func loadFlatIndex(dir string) (*flatIndex, error) {
	f, err := loadVectors(filepath.Join(dir, vectorsFileName))
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, chunksFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read index chunks: %w", err)
	}
	if err := json.Unmarshal(data, &f.chunks); err != nil {
		return nil, models.DataIntegrityError("index chunk file is corrupt", err)
	}

	if len(f.chunks) != len(f.vectors) {
		return nil, models.DataIntegrityError(
			fmt.Sprintf("index files disagree: %d vectors, %d chunks", len(f.vectors), len(f.chunks)), nil)
	}
	return f, nil
}

func loadVectors(path string) (*flatIndex, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector file: %w", err)
	}
	defer file.Close()

	r := bufio.NewReader(file)
	var magic, version, dim, count uint32
	for _, dst := range []*uint32{&magic, &version, &dim, &count} {
		if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
			return nil, models.DataIntegrityError("vector file header is truncated", err)
		}
	}
	if magic != vecMagic {
		return nil, models.DataIntegrityError("vector file has wrong magic number", nil)
	}
	if version != vecVersion {
		return nil, models.DataIntegrityError(fmt.Sprintf("unsupported vector file version %d", version), nil)
	}

	f := newFlatIndex(int(dim))
	f.vectors = make([][]float32, 0, count)
	for i := uint32(0); i < count; i++ {
		vec := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return nil, models.DataIntegrityError("vector file is truncated", err)
		}
		f.vectors = append(f.vectors, vec)
	}
	return f, nil
}

// pairExists reports whether both index files are present in dir. A
// partial pair is treated as no index at all.
func pairExists(dir string) bool {
	for _, name := range []string{vectorsFileName, chunksFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}
