package handlers

import (
	"net/http"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/common"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/registry"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	logger   *common.Logger
	registry *registry.Registry
}

// NewHealthHandler creates a new health handler. reg may be nil.
func NewHealthHandler(logger *common.Logger, reg *registry.Registry) *HealthHandler {
	return &HealthHandler{logger: logger, registry: reg}
}

type healthResponse struct {
	Status   string `json:"status"`
	Registry string `json:"registry,omitempty"`
	Tools    int    `json:"tools"`
	Resolved bool   `json:"resolved"`
}

// ServeHTTP handles GET /api/health. The status is "degraded" when some tool
// no longer resolves to an endpoint.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	resp := healthResponse{Status: "ok", Resolved: true}
	if h.registry != nil {
		resp.Registry = h.registry.Name()
		resp.Tools = h.registry.Count()
		if err := h.registry.Validate(); err != nil {
			resp.Status = "degraded"
			resp.Resolved = false
			if h.logger != nil {
				h.logger.Warn().Err(err).Msg("Health check found unresolved tools")
			}
		}
	}
	WriteJSON(w, http.StatusOK, resp)
}
