package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/payload"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves /health with a database check.
type HealthHandler struct {
	database    Pinger
	environment string
	startedAt   time.Time
	logger      *zerolog.Logger
	now         func() time.Time
}

func NewHealthHandler(database Pinger, environment string, logger *zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		database:    database,
		environment: environment,
		startedAt:   time.Now(),
		logger:      logger,
		now:         time.Now,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	now := h.now()
	resp := payload.HealthResponse{
		Status:      "ok",
		Message:     "Server is running",
		Environment: h.environment,
		Timestamp:   now.UTC(),
		Uptime:      now.Sub(h.startedAt).Seconds(),
		Checks:      map[string]string{"database": "ok"},
	}

	if err := h.database.Ping(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("database health check failed")

		resp.Status = "unhealthy"
		resp.Message = "Database is unreachable"
		resp.Checks["database"] = "down"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
