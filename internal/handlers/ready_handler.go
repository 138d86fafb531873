package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/haulwire/loadscout/internal/interfaces"
)

// ReadyHandler answers the readiness probe by verifying datastore connectivity
type ReadyHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewReadyHandler creates a new ReadyHandler
func NewReadyHandler(storage interfaces.StorageManager, logger arbor.ILogger) *ReadyHandler {
	return &ReadyHandler{
		storage: storage,
		logger:  logger,
	}
}

// GetReadyHandler handles GET /api/ready
func (h *ReadyHandler) GetReadyHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.storage.Ping(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("Readiness probe failed")
		WriteError(w, http.StatusServiceUnavailable, "datastore unavailable")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
