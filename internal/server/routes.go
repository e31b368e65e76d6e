package server

import (
	"net/http"

	"github.com/ternarybob/vigil/internal/handlers"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Scan submission and poll API
	mux.HandleFunc("/analyze", s.withRateLimit(s.app.AnalyzeHandler.SubmitHandler))
	mux.HandleFunc("/scan/", s.app.ScanHandler.ScanRoutes) // GET/DELETE /{id}
	mux.HandleFunc("/scans", s.app.ScanHandler.ListHandler)

	// WebSocket event stream
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// Operational endpoints
	mux.HandleFunc("/health", s.app.StatusHandler.HealthHandler)
	mux.HandleFunc("/metrics", s.app.StatusHandler.MetricsHandler)
	mux.HandleFunc("/version", s.app.StatusHandler.VersionHandler)

	// Everything else is a JSON 404
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handlers.NotFoundHandler(w, r)
	})

	return mux
}
