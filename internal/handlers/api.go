package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/haulwire/loadscout/internal/common"
)

// APIHandler serves the small system endpoints
type APIHandler struct {
	logger arbor.ILogger
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(logger arbor.ILogger) *APIHandler {
	return &APIHandler{logger: logger}
}

// VersionHandler handles GET /api/version
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.Build,
		"commit":  common.GitCommit,
	})
}

// HealthHandler handles GET /api/health (liveness only; /api/ready checks the
// datastore)
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
