package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
	"github.com/wadjakorntonsri/triptree/pkg/logging"
)

const maxBodyBytes = 1 << 20

var errBadBody = errors.New("malformed request body")

type errorResponse struct {
	Error  string              `json:"error"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads at most 1 MiB of JSON into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", errBadBody, err)
	}
	return nil
}

// writeError maps domain errors to status codes. resource names what a 404
// refers to. Unexpected errors are logged and answered with a generic body.
func writeError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error, resource string) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid data", Fields: ve.Fields})
	case errors.Is(err, errBadBody), errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid data"})
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Invalid credentials"})
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: resource + " not found"})
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "User already exists"})
	case errors.Is(err, domain.ErrUploadsDisabled):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "Uploads are not configured"})
	default:
		log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
}

func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
