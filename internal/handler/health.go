package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/eatmeetclub/api/internal/model"
)

// Pinger checks that a dependency answers
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness checks
type HealthHandler struct {
	db      Pinger
	timeout time.Duration
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, timeout: 2 * time.Second}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /ready. Reports 503 while the database is unreachable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		slog.Warn("readiness check failed", slog.String("error", err.Error()))
		WriteError(w, model.NewServiceUnavailableError("database unavailable"))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
