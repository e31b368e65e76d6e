package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

type scanResponse struct {
	JobID        string             `json:"jobId"`
	TargetURL    string             `json:"targetUrl"`
	Status       models.JobStatus   `json:"status"`
	CreatedAt    time.Time          `json:"createdAt"`
	StartedAt    *time.Time         `json:"startedAt,omitempty"`
	CompletedAt  *time.Time         `json:"completedAt,omitempty"`
	Result       *models.ScanResult `json:"result,omitempty"`
	ErrorMessage *string            `json:"errorMessage,omitempty"`
}

// ScanHandler serves the poll and history API
type ScanHandler struct {
	storage interfaces.JobStorage
	logger  arbor.ILogger
}

// NewScanHandler creates a new scan handler
func NewScanHandler(storage interfaces.JobStorage, logger arbor.ILogger) *ScanHandler {
	return &ScanHandler{
		storage: storage,
		logger:  logger,
	}
}

// ScanRoutes dispatches /scan/{id} by method
func (h *ScanHandler) ScanRoutes(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/scan/"), "/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, http.StatusBadRequest, "SCAN_ID_REQUIRED", "Scan ID is required.")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getScan(w, r, id)
	case http.MethodDelete:
		h.deleteScan(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// getScan handles GET /scan/{id}. The result is attached only for SUCCESS
// jobs and the error message only for FAILED ones.
func (h *ScanHandler) getScan(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	job, err := h.storage.GetJob(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrJobNotFound) {
			WriteError(w, http.StatusNotFound, "SCAN_NOT_FOUND", "No scan exists with that ID.")
			return
		}
		h.logger.Error().Str("job_id", id).Err(err).Msg("Failed to load scan job")
		WriteError(w, http.StatusInternalServerError, "STORAGE_UNAVAILABLE", "Failed to load the scan.")
		return
	}

	resp := scanResponse{
		JobID:       job.ID,
		TargetURL:   job.TargetURL,
		Status:      job.Status,
		CreatedAt:   job.CreatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
	}

	switch job.Status {
	case models.JobStatusSuccess:
		result, err := h.storage.GetResult(ctx, job.ID)
		if err != nil {
			h.logger.Error().Str("job_id", id).Err(err).Msg("Failed to load scan result")
			WriteError(w, http.StatusInternalServerError, "STORAGE_UNAVAILABLE", "Failed to load the scan result.")
			return
		}
		resp.Result = result
	case models.JobStatusFailed:
		resp.ErrorMessage = job.ErrorMessage
	}

	WriteJSON(w, http.StatusOK, resp)
}

// deleteScan handles DELETE /scan/{id}. Running scans are refused so an
// active worker never loses its job row mid-flight.
func (h *ScanHandler) deleteScan(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.storage.DeleteJob(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, interfaces.ErrJobNotFound):
			WriteError(w, http.StatusNotFound, "SCAN_NOT_FOUND", "No scan exists with that ID.")
		case errors.Is(err, interfaces.ErrJobRunning):
			WriteError(w, http.StatusConflict, "SCAN_RUNNING", "The scan is currently running and cannot be deleted.")
		default:
			h.logger.Error().Str("job_id", id).Err(err).Msg("Failed to delete scan job")
			WriteError(w, http.StatusInternalServerError, "STORAGE_UNAVAILABLE", "Failed to delete the scan.")
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"jobId":  id,
		"status": "deleted",
	})
}

// ListHandler handles GET /scans?url=&status=&page=&limit=
func (h *ScanHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	filter := models.JobFilter{
		URL: r.URL.Query().Get("url"),
	}

	if status := r.URL.Query().Get("status"); status != "" {
		s := models.JobStatus(strings.ToUpper(status))
		switch s {
		case models.JobStatusPending, models.JobStatusRunning, models.JobStatusSuccess, models.JobStatusFailed:
			filter.Status = s
		default:
			WriteError(w, http.StatusBadRequest, "INVALID_STATUS", "Status must be PENDING, RUNNING, SUCCESS or FAILED.")
			return
		}
	}

	if page := r.URL.Query().Get("page"); page != "" {
		if parsed, err := strconv.Atoi(page); err == nil {
			filter.Page = parsed
		}
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil {
			filter.Limit = parsed
		}
	}
	filter.Normalize()

	jobs, total, err := h.storage.ListJobs(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list scan jobs")
		WriteError(w, http.StatusInternalServerError, "STORAGE_UNAVAILABLE", "Failed to list scans.")
		return
	}
	if jobs == nil {
		jobs = []*models.ScanJob{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":       jobs,
		"pagination": models.NewPagination(filter.Page, filter.Limit, total),
	})
}
