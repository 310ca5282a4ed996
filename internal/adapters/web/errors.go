package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nurs7132/agroFarm/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes the request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, "malformed JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// writeCoreError maps the domain error taxonomy to HTTP responses. Nothing
// from the storage layer leaks to the caller as a bare internal fault.
func writeCoreError(w http.ResponseWriter, r *http.Request, err error) {
	var invalid *core.InvalidInputError
	switch {
	case errors.As(err, &invalid):
		writeError(w, r, invalid.Error(), "INVALID_INPUT", http.StatusBadRequest)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, "item not found or no longer for sale", "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrInsufficientStock):
		writeError(w, r, "insufficient stock for the requested quantity", "INSUFFICIENT_STOCK", http.StatusConflict)
	case errors.Is(err, core.ErrStaleState):
		writeError(w, r, "item was just sold, please pick another", "STALE_STATE", http.StatusConflict)
	case errors.Is(err, core.ErrInvalidCredentials):
		writeError(w, r, "invalid username or password", "UNAUTHORIZED", http.StatusUnauthorized)
	default:
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
