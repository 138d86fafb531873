package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/haulwire/loadscout/internal/services/status"
)

// MetricsHandler serves reset-on-read pipeline counters. Each scrape returns
// the deltas since the previous scrape, so a single pull-based collector sees
// per-interval counts without tracking its own baseline.
type MetricsHandler struct {
	statusService *status.Service
	logger        arbor.ILogger
}

// NewMetricsHandler creates a new MetricsHandler
func NewMetricsHandler(statusService *status.Service, logger arbor.ILogger) *MetricsHandler {
	return &MetricsHandler{
		statusService: statusService,
		logger:        logger,
	}
}

// GetMetricsHandler handles GET /api/metrics. Returns JSON by default; a
// format=text query or a text/plain Accept header selects the line-oriented
// exposition.
func (h *MetricsHandler) GetMetricsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	snap := h.statusService.SnapshotAndReset()

	if r.URL.Query().Get("format") == "text" ||
		strings.Contains(r.Header.Get("Accept"), "text/plain") {
		h.writeText(w, snap)
		return
	}

	WriteJSON(w, http.StatusOK, snap)
}

func (h *MetricsHandler) writeText(w http.ResponseWriter, snap status.Snapshot) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	var b strings.Builder
	fmt.Fprintf(&b, "loadscout_uptime_seconds %.0f\n", snap.UptimeSeconds)
	fmt.Fprintf(&b, "loadscout_loops_total %d\n", snap.LoopCount)
	fmt.Fprintf(&b, "loadscout_items_processed_total %d\n", snap.ItemsProcessed)
	fmt.Fprintf(&b, "loadscout_items_failed_total %d\n", snap.ItemsFailed)
	fmt.Fprintf(&b, "loadscout_matches_fired_total %d\n", snap.MatchesFired)
	fmt.Fprintf(&b, "loadscout_stale_resets_total %d\n", snap.StaleResets)
	fmt.Fprintf(&b, "loadscout_last_batch_size %d\n", snap.LastBatchSize)

	if _, err := w.Write([]byte(b.String())); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to write metrics response")
	}
}
