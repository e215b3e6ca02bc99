package api

import (
	"net/http"

	service "github.com/okian/scorecast/internal/app"
)

// ModelsDependencies defines the interface for model listing.
type ModelsDependencies interface {
	Models() []service.ModelInfo
}

// ModelsHandler handles model listing requests.
type ModelsHandler struct {
	deps ModelsDependencies
}

// NewModelsHandler creates a new models handler.
func NewModelsHandler(deps ModelsDependencies) *ModelsHandler {
	return &ModelsHandler{deps: deps}
}

type modelsResponse struct {
	Count  int                 `json:"count"`
	Models []service.ModelInfo `json:"models"`
}

// HandleModels handles GET /models requests.
func (h *ModelsHandler) HandleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	models := h.deps.Models()
	writeJSON(w, http.StatusOK, modelsResponse{Count: len(models), Models: models})
}
