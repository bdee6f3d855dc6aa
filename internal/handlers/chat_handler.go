package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colloquy/internal/interfaces"
)

// ChatHandler handles chat-related HTTP requests.
type ChatHandler struct {
	chatService interfaces.ChatService
	logger      arbor.ILogger
}

func NewChatHandler(chatService interfaces.ChatService, logger arbor.ILogger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// ChatRequest is the JSON body for POST /api/chat.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse is the JSON body of a successful chat turn.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

// ChatHandler handles POST /api/chat requests.
func (h *ChatHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to decode chat request")
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.SessionID == "" {
		WriteError(w, http.StatusBadRequest, "session_id field is required")
		return
	}
	if req.Message == "" {
		WriteError(w, http.StatusBadRequest, "message field is required")
		return
	}

	h.logger.Info().
		Str("session_id", req.SessionID).
		Int("message_length", len(req.Message)).
		Msg("Processing chat request")

	answer, err := h.chatService.Chat(r.Context(), req.SessionID, req.Message)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", req.SessionID).Msg("Chat turn failed")
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, ChatResponse{
		SessionID: req.SessionID,
		Answer:    answer,
	})
}

// HealthHandler handles GET /api/chat/health requests.
func (h *ChatHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	if err := h.chatService.HealthCheck(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("Chat service health check failed")
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
