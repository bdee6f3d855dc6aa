package rag

// rewriteSystemPrompt turns a history-dependent follow-up question into a
// standalone one before retrieval, so pronouns and ellipsis resolve
// against prior turns.
const rewriteSystemPrompt = "Given a conversation history and the most recent user query, " +
	"rewrite the query as a standalone question that makes sense without relying on the " +
	"previous context. Do not provide an answer; only reformulate the question if necessary, " +
	"otherwise return it unchanged."

// answerSystemPrompt grounds the final answer in the retrieved context.
// The retrieved chunks are appended after this text.
const answerSystemPrompt = "You are an assistant designed to answer questions using the " +
	"provided context. Rely only on the retrieved information to form your response. If the " +
	"answer is not found in the context, respond with 'I don't know.' Keep your answer " +
	"concise and no longer than three sentences.\n\n"

// NoAnswer is returned when the language model produces an empty
// completion. It is a benign sentinel, not an error.
const NoAnswer = "no answer generated."
