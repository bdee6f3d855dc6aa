package llm

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colloquy/internal/common"
	"github.com/ternarybob/colloquy/internal/interfaces"
)

// MockService is a deterministic in-process LLMService for tests and
// offline development. Embeddings are derived from a content hash, so
// identical texts always embed identically and similar texts do not
// cluster; chat echoes the last user message.
type MockService struct {
	dim    int
	logger arbor.ILogger
}

func NewMockService(dim int, logger arbor.ILogger) (*MockService, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dim)
	}
	return &MockService{dim: dim, logger: logger}, nil
}

// Embed derives a unit vector from repeated hashing of the text. Each
// hash round yields 8 components; rounds are chained until the requested
// dimension is filled.
func (s *MockService) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty for embedding generation")
	}

	vec := make([]float32, s.dim)
	seed := sha256.Sum256([]byte(text))
	for i := 0; i < s.dim; i += 8 {
		for j := 0; j < 8 && i+j < s.dim; j++ {
			bits := binary.LittleEndian.Uint32(seed[j*4 : j*4+4])
			// Map to [-1, 1).
			vec[i+j] = float32(bits)/float32(math.MaxUint32)*2 - 1
		}
		seed = sha256.Sum256(seed[:])
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

func (s *MockService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Chat echoes the last user message so tests can assert the full prompt
// reached the provider.
func (s *MockService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty for chat completion")
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content, nil
		}
	}
	return "", fmt.Errorf("at least one message must have role 'user'")
}

func (s *MockService) HealthCheck(ctx context.Context) error { return nil }

func (s *MockService) Provider() string {
	return string(common.LLMProviderMock)
}

func (s *MockService) Close() error { return nil }
