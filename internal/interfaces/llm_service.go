package interfaces

import (
	"context"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// LLMService defines the interface for language model operations:
// embedding generation and chat completions. Implementations may use
// cloud APIs (Anthropic, Gemini) or a deterministic mock for tests.
//
// Embeddings must be deterministic for identical input text; the index
// store's fingerprint-based dedup reasoning depends on it.
type LLMService interface {
	// Embed generates an embedding vector for the given text. Used at
	// query time for single texts.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embedding vectors for a batch of texts,
	// preserving input order. Used at indexing time.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Chat generates a completion response based on the conversation
	// history. The messages slice should contain the full context
	// including system prompts, in chronological order.
	Chat(ctx context.Context, messages []Message) (string, error)

	// HealthCheck verifies the service is operational.
	HealthCheck(ctx context.Context) error

	// Provider returns the provider name ("claude", "gemini", "mock").
	Provider() string

	// Close releases resources held by the service.
	Close() error
}
