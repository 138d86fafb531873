package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/haulwire/loadscout/internal/common"
	"github.com/haulwire/loadscout/internal/interfaces"
	"github.com/haulwire/loadscout/internal/models"
	"github.com/haulwire/loadscout/internal/services/status"
)

// StatusHandler serves the pipeline status view
type StatusHandler struct {
	statusService *status.Service
	queue         interfaces.QueueStorage
	logger        arbor.ILogger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(statusService *status.Service, queue interfaces.QueueStorage, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		statusService: statusService,
		queue:         queue,
		logger:        logger,
	}
}

type statusResponse struct {
	Version  string          `json:"version"`
	Pipeline status.Snapshot `json:"pipeline"`
	Queue    queueDepths     `json:"queue"`
}

type queueDepths struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// GetStatusHandler handles GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	resp := statusResponse{
		Version:  common.GetVersion(),
		Pipeline: h.statusService.Snapshot(),
	}

	ctx := r.Context()
	counts := []struct {
		status models.QueueItemStatus
		dst    *int
	}{
		{models.QueueStatusPending, &resp.Queue.Pending},
		{models.QueueStatusProcessing, &resp.Queue.Processing},
		{models.QueueStatusCompleted, &resp.Queue.Completed},
		{models.QueueStatusFailed, &resp.Queue.Failed},
	}
	for _, c := range counts {
		n, err := h.queue.CountByStatus(ctx, c.status)
		if err != nil {
			h.logger.Warn().Err(err).Str("status", string(c.status)).Msg("Failed to count queue items")
			continue
		}
		*c.dst = n
	}

	WriteJSON(w, http.StatusOK, resp)
}
