package handler

import (
	"context"
	"net/http"

	"github.com/osse101/SmartList_Go/internal/logger"
)

// DailyResetRunner sweeps live sessions for a pending daily reset
type DailyResetRunner interface {
	RunNow(ctx context.Context) int
}

// AdminDailyResetHandler handles the operator daily reset endpoint
type AdminDailyResetHandler struct {
	runner DailyResetRunner
}

// NewAdminDailyResetHandler creates a new AdminDailyResetHandler
func NewAdminDailyResetHandler(runner DailyResetRunner) *AdminDailyResetHandler {
	return &AdminDailyResetHandler{runner: runner}
}

// DailyResetResponse reports how many sessions requested a reset
type DailyResetResponse struct {
	Message       string `json:"message"`
	SessionsReset int    `json:"sessionsReset"`
}

// HandleManualReset forces a daily reset check on every live session
// POST /api/v1/admin/daily-reset
func (h *AdminDailyResetHandler) HandleManualReset(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		respondError(w, http.StatusServiceUnavailable, ErrMsgDailyResetNotRunning)
		return
	}
	log := logger.FromContext(r.Context())
	log.Info(LogMsgManualDailyReset)

	n := h.runner.RunNow(r.Context())

	log.Info(LogMsgDailyResetComplete, "sessions_reset", n)
	respondJSON(w, http.StatusOK, DailyResetResponse{
		Message:       "Daily reset check completed",
		SessionsReset: n,
	})
}
