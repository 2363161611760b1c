package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is anything that can report whether its backend is reachable.
// *sqlstore.DB satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusHandler answers liveness probes.
type StatusHandler struct {
	db     Pinger
	logger *slog.Logger
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(db Pinger, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{db: db, logger: logger}
}

// StatusResponse is the body of /healthz.
type StatusResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// HandleHealthz reports 200 when the database answers a ping within two
// seconds, 503 otherwise.
//
// HTTP: GET /healthz
func (h *StatusHandler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.WarnContext(r.Context(), "health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, StatusResponse{Status: "unavailable", Database: "down"})
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok", Database: "up"})
}
