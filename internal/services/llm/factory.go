package llm

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colloquy/internal/common"
	"github.com/ternarybob/colloquy/internal/interfaces"
)

// NewService constructs the LLMService selected by llm.provider.
//
// The claude provider is a composite: Anthropic has no embedding
// endpoint, so Claude handles chat while Gemini handles embeddings. Both
// API keys are required in that mode.
func NewService(config *common.Config, logger arbor.ILogger) (interfaces.LLMService, error) {
	dim := config.LLM.EmbedDimension

	switch config.LLM.Provider {
	case common.LLMProviderMock:
		return NewMockService(dim, logger)

	case common.LLMProviderGemini:
		return NewGeminiService(&config.Gemini, dim, logger)

	case common.LLMProviderClaude:
		chat, err := NewClaudeService(&config.Claude, logger)
		if err != nil {
			return nil, err
		}
		embedder, err := NewGeminiService(&config.Gemini, dim, logger)
		if err != nil {
			return nil, fmt.Errorf("claude provider needs Gemini embeddings: %w", err)
		}
		return &compositeService{chat: chat, embedder: embedder}, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider %q (expected gemini, claude, or mock)", config.LLM.Provider)
	}
}

// compositeService routes chat to one provider and embeddings to another.
type compositeService struct {
	chat     *ClaudeService
	embedder *GeminiService
}

func (c *compositeService) Embed(ctx context.Context, text string) ([]float32, error) {
	return c.embedder.Embed(ctx, text)
}

func (c *compositeService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return c.embedder.EmbedBatch(ctx, texts)
}

func (c *compositeService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	return c.chat.Chat(ctx, messages)
}

func (c *compositeService) HealthCheck(ctx context.Context) error {
	if err := c.chat.HealthCheck(ctx); err != nil {
		return err
	}
	return c.embedder.HealthCheck(ctx)
}

func (c *compositeService) Provider() string {
	return c.chat.Provider()
}

func (c *compositeService) Close() error {
	chatErr := c.chat.Close()
	if err := c.embedder.Close(); err != nil {
		return err
	}
	return chatErr
}
