// -----------------------------------------------------------------------
// Retrieval chain - history-aware rewrite, retrieve, grounded answer
// -----------------------------------------------------------------------

package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colloquy/internal/interfaces"
	"github.com/ternarybob/colloquy/internal/models"
)

const maxAnswerLength = 4096

// Chain is the two-stage retrieval pipeline: rewrite the question using
// chat history, retrieve context chunks for the rewritten question, then
// answer the original question grounded in that context. A chain is
// built once per loaded index and is immutable after construction except
// for re-binding a new retriever.
type Chain struct {
	llm       interfaces.LLMService
	retriever interfaces.Retriever
	validate  *validator.Validate
	logger    arbor.ILogger
}

func NewChain(llm interfaces.LLMService, logger arbor.ILogger) *Chain {
	return &Chain{
		llm:      llm,
		validate: validator.New(),
		logger:   logger,
	}
}

// Bind attaches the retriever the chain searches with. Binding nil is an
// invalid-state error, not a deferred failure at invoke time.
func (c *Chain) Bind(retriever interfaces.Retriever) error {
	if retriever == nil {
		return models.InvalidStateError("cannot build retrieval chain without a retriever")
	}
	c.retriever = retriever
	return nil
}

// Invoke runs one chat turn: rewrite, retrieve, answer. The rewritten
// question is used only for retrieval; the answer stage sees the
// original question plus the full history.
func (c *Chain) Invoke(ctx context.Context, question string, history []models.Turn) (string, error) {
	if c.retriever == nil {
		return "", models.InvalidStateError("retrieval chain not built, bind a retriever first")
	}

	startTime := time.Now()

	rewritten, err := c.rewrite(ctx, question, history)
	if err != nil {
		return "", wrapProviderError("question rewrite failed", err)
	}

	chunks, err := c.retriever.Retrieve(ctx, rewritten)
	if err != nil {
		return "", wrapProviderError("context retrieval failed", err)
	}

	answer, err := c.answer(ctx, question, history, chunks)
	if err != nil {
		return "", wrapProviderError("answer generation failed", err)
	}

	if strings.TrimSpace(answer) == "" {
		c.logger.Warn().
			Str("question", question).
			Msg("Language model returned empty answer")
		return NoAnswer, nil
	}

	if err := c.validate.Var(answer, fmt.Sprintf("min=1,max=%d", maxAnswerLength)); err != nil {
		return "", models.DataIntegrityError(
			fmt.Sprintf("generated answer failed validation (length %d, limit %d)", len(answer), maxAnswerLength), err)
	}

	c.logger.Debug().
		Int("history_turns", len(history)).
		Int("context_chunks", len(chunks)).
		Int("answer_length", len(answer)).
		Dur("duration", time.Since(startTime)).
		Msg("Retrieval chain completed")
	return answer, nil
}

// rewrite produces a standalone version of the question. With no history
// there is nothing to resolve, so the question passes through untouched
// and one provider round-trip is saved.
func (c *Chain) rewrite(ctx context.Context, question string, history []models.Turn) (string, error) {
	if len(history) == 0 {
		return question, nil
	}

	messages := make([]interfaces.Message, 0, len(history)+2)
	messages = append(messages, interfaces.Message{Role: "system", Content: rewriteSystemPrompt})
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, interfaces.Message{Role: "user", Content: question})

	rewritten, err := c.llm.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(rewritten) == "" {
		return question, nil
	}
	return rewritten, nil
}

// answer prompts the model with the retrieved context, the history, and
// the original question. Chunks are joined by a blank line in retrieval
// order; no re-sorting.
func (c *Chain) answer(ctx context.Context, question string, history []models.Turn, chunks []models.Chunk) (string, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	contextBlock := strings.Join(texts, "\n\n")

	messages := make([]interfaces.Message, 0, len(history)+2)
	messages = append(messages, interfaces.Message{Role: "system", Content: answerSystemPrompt + contextBlock})
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, interfaces.Message{Role: "user", Content: question})

	return c.llm.Chat(ctx, messages)
}

func historyMessages(history []models.Turn) []interfaces.Message {
	messages := make([]interfaces.Message, 0, len(history))
	for _, turn := range history {
		role := "user"
		if turn.Role == models.RoleAssistant {
			role = "assistant"
		}
		messages = append(messages, interfaces.Message{Role: role, Content: turn.Content})
	}
	return messages
}

// wrapProviderError keeps domain errors intact and classifies everything
// else as transient, preserving the cause for diagnostics.
func wrapProviderError(message string, err error) error {
	var domainErr *models.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return models.TransientError(message, err)
}
