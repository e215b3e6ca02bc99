package api

import (
	"net/http"
)

// HealthDependencies reports how many models are loaded.
type HealthDependencies interface {
	ModelCount() int
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	deps HealthDependencies
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(deps HealthDependencies) *HealthHandler {
	return &HealthHandler{deps: deps}
}

type healthResponse struct {
	Status       string `json:"status"`
	ModelsLoaded int    `json:"models_loaded"`
}

// HandleHealth handles GET /healthz requests. The service is live even
// with no models loaded.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", ModelsLoaded: h.deps.ModelCount()})
}
