package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/osse101/SmartList_Go/internal/logger"
)

const readinessTimeout = 2 * time.Second

// HealthResponse represents the response for health endpoints
type HealthResponse struct {
	Status    string `json:"status"`
	Component string `json:"component,omitempty"`
}

// Pinger is a dependency that must be reachable before traffic is served
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandleHealthz provides a basic liveness check
func HandleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, HealthResponse{Status: HealthStatusOK})
	}
}

// HandleReadyz reports ready once every named dependency answers a ping.
// Nil entries are skipped, which is how the in-memory backends opt out.
func HandleReadyz(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				logger.FromContext(ctx).Error(LogMsgReadinessFailed, "component", name, "error", err)
				respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
					Status:    HealthStatusUnavailable,
					Component: name,
				})
				return
			}
		}

		respondJSON(w, http.StatusOK, HealthResponse{Status: HealthStatusOK})
	}
}
