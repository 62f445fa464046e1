package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/recoverytrack/apiserver/internal/logger"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// HealthHandler answers liveness probes.
type HealthHandler struct {
	checks map[string]HealthCheck
	log    *logger.Logger
}

func NewHealthHandler(checks map[string]HealthCheck, log *logger.Logger) *HealthHandler {
	return &HealthHandler{checks: checks, log: log}
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok"}
	status := http.StatusOK
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			if h.log != nil {
				h.log.Warn(h.log.WithField(ctx, "check", name), "health.check_failed")
			}
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeJSON(w, status, resp)
}
