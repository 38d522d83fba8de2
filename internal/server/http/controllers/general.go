package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rzbill/auditlog/internal/runtime"
)

// GeneralController handles endpoints that are not specific to audit logs.
type GeneralController struct {
	rt *runtime.Runtime
}

// NewGeneralController creates a new general controller.
func NewGeneralController(rt *runtime.Runtime) *GeneralController {
	return &GeneralController{rt: rt}
}

// RegisterRoutes registers /v1/healthz and /v1/stats.
func (c *GeneralController) RegisterRoutes(r chi.Router) {
	r.Get("/v1/healthz", c.handleHealth)
	r.Get("/v1/stats", c.handleStats)
}

// handleHealth returns the health status of the service.
//
// Returns 200 OK with {"status": "ok"} if healthy, 503 Service Unavailable otherwise.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_serving")
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleStats reports storage counters and the notification log head.
func (c *GeneralController) handleStats(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"backend": c.rt.Config().Storage.Backend,
		"storage": c.rt.Stats(),
	}
	if ev := c.rt.Events(); ev != nil {
		out["events"] = map[string]any{"topic": ev.Topic(), "lastSeq": ev.LastSeq()}
	}
	writeJSON(w, out)
}
