package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voicememo/server/internal/ctxkeys"
	"github.com/voicememo/server/internal/service"
	"github.com/voicememo/server/internal/testhelpers"
)

func TestBearerAuth(t *testing.T) {
	container := testhelpers.GetClean(t)
	auth := service.NewAuthService(container.Users, "test-secret", time.Hour)
	users := service.NewUserService(container.Users, time.Minute)
	user := container.CreateUser(t, "grace@example.com")

	token, _, err := auth.GenerateJWT(user)
	require.NoError(t, err)

	protected := Chain(RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(ctxkeys.User(r.Context()).ID))
	}), BearerAuth(auth, users))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid token", header: "Bearer " + token, wantStatus: http.StatusOK},
		{name: "lower case scheme", header: "bearer " + token, wantStatus: http.StatusOK},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + token, wantStatus: http.StatusUnauthorized},
		{name: "tampered token", header: "Bearer " + token + "x", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/recordings", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			protected.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, user.ID, rec.Body.String())
			} else {
				assert.JSONEq(t, `{"error":"authentication required"}`, rec.Body.String())
			}
		})
	}

	t.Run("deleted user", func(t *testing.T) {
		require.NoError(t, users.Delete(context.Background(), user.ID))
		req := httptest.NewRequest(http.MethodGet, "/recordings", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	limited := RateLimit(NewRateLimiter(ctx, 2, time.Minute))(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	call := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		rec := httptest.NewRecorder()
		limited(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, call("192.0.2.1").Code)
	assert.Equal(t, http.StatusNoContent, call("192.0.2.1").Code)

	blocked := call("192.0.2.1")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "60", blocked.Header().Get("Retry-After"))
	assert.Contains(t, blocked.Body.String(), "too many requests")

	// other clients are unaffected
	assert.Equal(t, http.StatusNoContent, call("192.0.2.2").Code)
}

func TestRequestLoggingKeepsFlusher(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
		assert.NoError(t, http.NewResponseController(w).Flush())
	})

	rec := httptest.NewRecorder()
	Chain(mux, Recover, RequestLogging).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, rec.Flushed)
}

func TestRecover(t *testing.T) {
	handler := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}
