package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Operational surface
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)   // GET - pipeline status and queue depths
	mux.HandleFunc("/api/metrics", s.app.MetricsHandler.GetMetricsHandler) // GET - reset-on-read counters
	mux.HandleFunc("/api/ready", s.app.ReadyHandler.GetReadyHandler)      // GET - datastore readiness

	// System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	return mux
}
