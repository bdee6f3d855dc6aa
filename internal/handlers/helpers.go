package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/colloquy/internal/models"
)

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// WriteDomainError maps a domain error kind to an HTTP status and writes
// the error. Bad input and lifecycle violations are the client's fault;
// missing sessions or indexes are 404; everything else is a server error
// with the cause message surfaced for diagnostics.
func WriteDomainError(w http.ResponseWriter, err error) error {
	status := http.StatusInternalServerError
	switch {
	case models.IsKind(err, models.KindNotFound):
		status = http.StatusNotFound
	case models.IsClientError(err):
		status = http.StatusBadRequest
	}
	return WriteError(w, status, err.Error())
}
