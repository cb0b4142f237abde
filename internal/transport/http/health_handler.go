package http

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"bdexports/internal/config"
)

// HealthHandler answers liveness probes.
type HealthHandler struct {
	started     time.Time
	storeDriver string
}

func NewHealthHandler(storeDriver string) *HealthHandler {
	return &HealthHandler{started: time.Now(), storeDriver: storeDriver}
}

// HealthCheck handles GET /healthz.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":  "ok",
		"service": config.AppName,
		"version": config.AppVersion,
		"store":   h.storeDriver,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}
