package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dropDatabas3/authbridge/internal/observability/logger"
)

// Check verifica una dependencia (cache, base de datos).
type Check func(ctx context.Context) error

// HealthController expone /healthz.
type HealthController struct {
	version string
	checks  map[string]Check
}

// NewHealthController crea el controller. checks puede ser nil.
func NewHealthController(version string, checks map[string]Check) *HealthController {
	return &HealthController{version: version, checks: checks}
}

type healthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version,omitempty"`
	Components map[string]string `json:"components,omitempty"`
}

// Healthz maneja GET /healthz
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("HealthController.Healthz"))

	resp := healthResponse{Status: "ok", Version: c.version}
	status := http.StatusOK

	if len(c.checks) > 0 {
		resp.Components = make(map[string]string, len(c.checks))
	}
	for name, check := range c.checks {
		if err := check(ctx); err != nil {
			log.Warn("health check failed", logger.Component(name), logger.Err(err))
			resp.Components[name] = "unavailable"
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Components[name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
