package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"jacc/internal/embeddings"
	"jacc/internal/httputil"
)

// HealthHandler reports readiness of the core collaborators
type HealthHandler struct {
	pool     *pgxpool.Pool
	embedder embeddings.Client
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(pool *pgxpool.Pool, embedder embeddings.Client) *HealthHandler {
	return &HealthHandler{pool: pool, embedder: embedder}
}

// Check responds 200 when the database is reachable. The embedding
// service is reported but not required: retrieval degrades to Tier 1
// and Tier 3 without it.
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := map[string]interface{}{
		"status":   "ok",
		"database": "ok",
	}

	if err := h.pool.Ping(ctx); err != nil {
		status["status"] = "degraded"
		status["database"] = "unreachable"
		httputil.RespondJSON(w, http.StatusServiceUnavailable, status)
		return
	}

	if h.embedder != nil {
		if err := h.embedder.Health(ctx); err != nil {
			status["embeddings"] = "unavailable"
		} else {
			status["embeddings"] = "ok"
		}
	}

	httputil.RespondJSON(w, http.StatusOK, status)
}
