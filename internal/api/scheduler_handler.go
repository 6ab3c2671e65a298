package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/phrazzld/tasker-api/internal/api/shared"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/sweeper"
)

// Sweeper runs one deadline sweep on demand.
type Sweeper interface {
	Sweep(ctx context.Context) (sweeper.Result, error)
}

// SchedulerHandler exposes the deadline sweep over HTTP so an external
// scheduler can trigger it.
type SchedulerHandler struct {
	sweeper Sweeper
	logger  *slog.Logger
}

// NewSchedulerHandler creates a new SchedulerHandler
func NewSchedulerHandler(s Sweeper, logger *slog.Logger) *SchedulerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SchedulerHandler{
		sweeper: s,
		logger:  logger.With(slog.String("component", "scheduler_handler")),
	}
}

// RunSweep handles POST /scheduler. Repeated calls are harmless: a second
// sweep at the same instant expires nothing.
func (h *SchedulerHandler) RunSweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.sweeper.Sweep(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to run deadline sweep")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).
		Info("manual sweep completed", slog.Int64("expired", result.Expired))
	shared.RespondWithJSON(w, r, http.StatusOK, SchedulerResponse{
		Message: "Sweep completed",
		Expired: result.Expired,
	})
}
