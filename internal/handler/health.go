package handler

import (
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/voicememo/server/internal/db"
)

type healthHandler struct {
	responder
	database *sqlx.DB
}

func NewHealthHandler(database *sqlx.DB) *healthHandler {
	return &healthHandler{database: database}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func (h *healthHandler) Health(w http.ResponseWriter, r *http.Request) {
	err := db.Ping(r.Context(), h.database)
	if err != nil {
		slog.Error("health check failed", "error", err)
		_ = h.writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Database: "unreachable"})
		return
	}

	_ = h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "ok"})
}
