package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/voicememo/server/internal/repository"
	"github.com/voicememo/server/internal/service"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{err: fmt.Errorf("%w: audio file is required", service.ErrInvalidInput), status: http.StatusBadRequest},
		{err: service.ErrInvalidCredentials, status: http.StatusUnauthorized},
		{err: repository.ErrRecordingNotFound, status: http.StatusNotFound},
		{err: service.ErrEmailAlreadyExists, status: http.StatusConflict},
		{err: fmt.Errorf("%w: recording is processing", service.ErrNotRetryable), status: http.StatusConflict},
		{err: fmt.Errorf("%w: bucket gone", service.ErrUploadFailed), status: http.StatusInternalServerError},
		{err: fmt.Errorf("%w: disk full", service.ErrStorageUnavailable), status: http.StatusInternalServerError},
		{err: errors.New("anything else"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, message := classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.NotEmpty(t, message)
		})
	}
}

func TestWriteError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/recordings/upload", nil)
	cause := fmt.Errorf("%w: bucket gone", service.ErrUploadFailed)

	t.Run("development shows detail", func(t *testing.T) {
		rec := httptest.NewRecorder()
		responder{}.writeError(rec, req, cause)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"upload failed","detail":"upload failed: bucket gone"}`, rec.Body.String())
	})

	t.Run("production hides server detail", func(t *testing.T) {
		rec := httptest.NewRecorder()
		responder{production: true}.writeError(rec, req, cause)

		assert.JSONEq(t, `{"error":"upload failed"}`, rec.Body.String())
	})

	t.Run("client errors keep detail in production", func(t *testing.T) {
		rec := httptest.NewRecorder()
		responder{production: true}.writeError(rec, req, fmt.Errorf("%w: duration must be a number of seconds", service.ErrInvalidInput))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "duration must be a number")
	})

	t.Run("not found never has detail", func(t *testing.T) {
		rec := httptest.NewRecorder()
		responder{}.writeError(rec, req, repository.ErrRecordingNotFound)

		assert.JSONEq(t, `{"error":"recording not found"}`, rec.Body.String())
	})
}
