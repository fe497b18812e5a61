package routes

import (
	"net/http"

	"github.com/voicememo/server/internal/app"
	"github.com/voicememo/server/internal/handler"
	"github.com/voicememo/server/internal/metrics"
	"github.com/voicememo/server/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	production := app.Cfg.IsProduction()

	// Handlers
	health := handler.NewHealthHandler(app.DB)
	auth := handler.NewAuthHandler(app.AuthService, app.UserService, production)
	recording := handler.NewRecordingHandler(app.RecordingService, app.Cfg.UploadMaxBytes, production)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /health", health.Health)
	mux.Handle("GET /metrics", metrics.Handler())

	// Auth (rate limited)
	rateLimiter := middleware.RateLimit(app.AuthLimiter)

	mux.HandleFunc("POST /auth/signup", rateLimiter(auth.Signup))
	mux.HandleFunc("POST /auth/login", rateLimiter(auth.Login))

	// ============================================================================
	// PROTECTED ROUTES (bearer token)
	// ============================================================================

	// Account
	mux.HandleFunc("GET /me", middleware.RequireAuth(auth.Me))
	mux.HandleFunc("DELETE /me", middleware.RequireAuth(auth.DeleteMe))

	// Recordings
	mux.HandleFunc("POST /recordings/upload", middleware.RequireAuth(recording.Upload))
	mux.HandleFunc("POST /recordings/transcribe", middleware.RequireAuth(recording.Transcribe))
	mux.HandleFunc("GET /recordings", middleware.RequireAuth(recording.List))
	mux.HandleFunc("GET /recordings/{id}", middleware.RequireAuth(recording.Get))
	mux.HandleFunc("DELETE /recordings/{id}", middleware.RequireAuth(recording.Delete))
	mux.HandleFunc("POST /recordings/{id}/retry", middleware.RequireAuth(recording.Retry))

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.Recover,
		middleware.BearerAuth(app.AuthService, app.UserService),
		middleware.RequestLogging, // Must wrap the mux directly to see the matched route pattern
	)

	return handler
}
