package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/hongminglow/finance-ledger/internal/http/respond"
	"github.com/hongminglow/finance-ledger/internal/middleware"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler returns uptime and database reachability.
type HealthHandler struct {
	startedAt time.Time
	db        Pinger
}

// NewHealthHandler creates a health endpoint handler.
func NewHealthHandler(startedAt time.Time, db Pinger) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, db: db}
}

// Register wires the handler into a ServeMux.
func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handle)
}

func (h *HealthHandler) handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code, database := "ok", http.StatusOK, "ok"
	if err := h.db.Ping(ctx); err != nil {
		middleware.Logger(r.Context()).Warn("health check: database ping failed", "error", err)
		status, code, database = "degraded", http.StatusServiceUnavailable, "unreachable"
	}
	respond.JSON(w, code, map[string]string{
		"status":   status,
		"uptime":   time.Since(h.startedAt).Truncate(time.Second).String(),
		"database": database,
	})
}
