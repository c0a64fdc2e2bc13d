package httpapi

import (
	"encoding/json"
	"net/http"

	"inferd/internal/lifecycle"
	"inferd/pkg/types"
)

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// writeError maps the lifecycle error taxonomy to HTTP status codes:
// backend-unavailable is a 503 (permanent, service-level), model-not-found a
// 404, and load/generation failures 500 (retryable by the caller).
func writeError(w http.ResponseWriter, err error) {
	switch {
	case lifecycle.IsBackendUnavailable(err):
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
	case lifecycle.IsModelNotFound(err):
		writeJSONError(w, http.StatusNotFound, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}
