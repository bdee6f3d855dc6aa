package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colloquy/internal/common"
	"github.com/ternarybob/colloquy/internal/interfaces"
)

// UploadHandler handles document upload requests.
type UploadHandler struct {
	ingest        interfaces.IngestService
	sessions      interfaces.SessionStorage
	maxUploadSize int64
	logger        arbor.ILogger
}

func NewUploadHandler(ingest interfaces.IngestService, sessions interfaces.SessionStorage, maxUploadSize int64, logger arbor.ILogger) *UploadHandler {
	return &UploadHandler{
		ingest:        ingest,
		sessions:      sessions,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// UploadResponse is the JSON body returned by a successful upload.
type UploadResponse struct {
	SessionID string `json:"session_id"`
	Indexed   bool   `json:"indexed"`
	Files     int    `json:"files"`
	Chunks    int    `json:"chunks"`
	Added     int    `json:"added"`
	Message   string `json:"message"`
}

// multipartSource adapts one multipart file header to UploadSource.
type multipartSource struct {
	header *multipart.FileHeader
}

func (m *multipartSource) Name() string {
	return m.header.Filename
}

func (m *multipartSource) Read() ([]byte, error) {
	file, err := m.header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// UploadHandler handles POST /api/upload requests: multipart form with
// one or more parts named "files" and an optional "session_id" field.
// Omitting session_id starts a fresh session.
func (h *UploadHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to parse multipart upload")
		WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		WriteError(w, http.StatusBadRequest, "no files uploaded, supply at least one part named 'files'")
		return
	}

	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		sessionID = common.NewSessionID()
	}
	if err := h.sessions.Create(r.Context(), sessionID); err != nil {
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to register session")
		WriteError(w, http.StatusInternalServerError, "failed to register session")
		return
	}

	sources := make([]interfaces.UploadSource, 0, len(files))
	for _, header := range files {
		sources = append(sources, &multipartSource{header: header})
	}

	h.logger.Info().
		Str("session_id", sessionID).
		Int("files", len(sources)).
		Msg("Processing upload")

	result, err := h.ingest.Ingest(r.Context(), sessionID, sources)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("Ingestion failed")
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, UploadResponse{
		SessionID: result.SessionID,
		Indexed:   true,
		Files:     result.Files,
		Chunks:    result.Chunks,
		Added:     result.Added,
		Message:   fmt.Sprintf("indexed %d of %d chunks from %d files", result.Added, result.Chunks, result.Files),
	})
}
