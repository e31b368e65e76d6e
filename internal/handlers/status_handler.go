package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
	"github.com/ternarybob/vigil/internal/services/metrics"
)

// healthCheckTimeout bounds each backing-store ping
const healthCheckTimeout = 5 * time.Second

// StatusHandler serves health, metrics and version endpoints
type StatusHandler struct {
	serviceName string
	storage     interfaces.JobStorage
	queue       interfaces.QueueManager
	metrics     *metrics.Collector
	logger      arbor.ILogger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(serviceName string, storage interfaces.JobStorage, queue interfaces.QueueManager, collector *metrics.Collector, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		serviceName: serviceName,
		storage:     storage,
		queue:       queue,
		metrics:     collector,
		logger:      logger,
	}
}

// HealthHandler handles GET /health. Any failed dependency check degrades
// the service and flips the status code to 503 so load balancers stop
// routing submissions here.
func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]string{
		"database": "ok",
		"queue":    "ok",
	}
	healthy := true

	if err := h.storage.Ping(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("Database health check failed")
		checks["database"] = err.Error()
		healthy = false
	}
	if err := h.queue.Ping(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("Queue health check failed")
		checks["queue"] = err.Error()
		healthy = false
	}

	var depth models.QueueDepth
	if healthy {
		d, err := h.queue.Depth(ctx)
		if err != nil {
			h.logger.Warn().Err(err).Msg("Queue depth check failed")
		} else {
			depth = d
		}
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	WriteJSON(w, code, map[string]interface{}{
		"status":  status,
		"service": h.serviceName,
		"version": common.GetVersion(),
		"checks":  checks,
		"queue":   depth,
	})
}

// MetricsHandler handles GET /metrics
func (h *StatusHandler) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	depth, err := h.queue.Depth(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Queue depth unavailable for metrics")
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"service": h.serviceName,
		"jobs":    h.metrics.Snapshot(),
		"queue":   depth,
	})
}

// VersionHandler handles GET /version
func (h *StatusHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"service": h.serviceName,
		"version": common.GetVersion(),
	})
}
