package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/voicememo/server/internal/repository"
	"github.com/voicememo/server/internal/service"
)

// errorResponse is the body of every non-2xx API response
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// responder writes JSON bodies. In production the detail of server errors is withheld.
type responder struct {
	production bool
}

func (rs responder) writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Warn("failed to write response", "error", err, "status", status)
	}
	return err
}

// writeError maps service and repository errors onto the HTTP error taxonomy
func (rs responder) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classify(err)

	resp := errorResponse{Error: message, Detail: err.Error()}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		if rs.production {
			resp.Detail = ""
		}
	}
	if status == http.StatusNotFound || status == http.StatusUnauthorized {
		// The generic message is the whole response so missing and foreign rows look the same
		resp.Detail = ""
	}

	_ = rs.writeJSON(w, status, resp)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "invalid input"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, repository.ErrRecordingNotFound):
		return http.StatusNotFound, "recording not found"
	case errors.Is(err, repository.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, service.ErrEmailAlreadyExists):
		return http.StatusConflict, "email already exists"
	case errors.Is(err, service.ErrNotRetryable):
		return http.StatusConflict, "only failed recordings can be retried"
	case errors.Is(err, service.ErrUploadFailed):
		return http.StatusInternalServerError, "upload failed"
	default:
		return http.StatusInternalServerError, "storage unavailable"
	}
}

// decodeJSON reads a small JSON request body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	err := decoder.Decode(v)
	if err != nil {
		return fmt.Errorf("%w: malformed request body: %v", service.ErrInvalidInput, err)
	}
	return nil
}
