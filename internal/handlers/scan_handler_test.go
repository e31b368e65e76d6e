package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

func seedJob(storage *stubStorage, id string, status models.JobStatus) *models.ScanJob {
	job := &models.ScanJob{
		ID:        id,
		TargetURL: "https://example.com",
		Status:    status,
		CreatedAt: time.Now(),
	}
	storage.jobs[id] = job
	return job
}

func TestGetScan_SuccessIncludesResult(t *testing.T) {
	storage := newStubStorage()
	seedJob(storage, "job-1", models.JobStatusSuccess)
	storage.results["job-1"] = &models.ScanResult{
		ScanJobID: "job-1",
		Score:     72,
		RiskLevel: models.RiskModerate,
	}
	h := NewScanHandler(storage, common.GetLogger())

	req := httptest.NewRequest(http.MethodGet, "/scan/job-1", nil)
	rec := httptest.NewRecorder()
	h.ScanRoutes(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp scanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "job-1", resp.JobID)
	require.NotNil(t, resp.Result)
	assert.Equal(t, 72, resp.Result.Score)
	assert.Nil(t, resp.ErrorMessage)
}

func TestGetScan_FailedIncludesErrorOnly(t *testing.T) {
	storage := newStubStorage()
	job := seedJob(storage, "job-2", models.JobStatusFailed)
	msg := "UNREACHABLE:no_response:https://example.com"
	job.ErrorMessage = &msg
	h := NewScanHandler(storage, common.GetLogger())

	req := httptest.NewRequest(http.MethodGet, "/scan/job-2", nil)
	rec := httptest.NewRecorder()
	h.ScanRoutes(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp scanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Result)
	require.NotNil(t, resp.ErrorMessage)
	assert.Equal(t, msg, *resp.ErrorMessage)
}

func TestGetScan_PendingHasNeitherResultNorError(t *testing.T) {
	storage := newStubStorage()
	seedJob(storage, "job-3", models.JobStatusPending)
	h := NewScanHandler(storage, common.GetLogger())

	req := httptest.NewRequest(http.MethodGet, "/scan/job-3", nil)
	rec := httptest.NewRecorder()
	h.ScanRoutes(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp scanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Result)
	assert.Nil(t, resp.ErrorMessage)
}

func TestGetScan_NotFound(t *testing.T) {
	h := NewScanHandler(newStubStorage(), common.GetLogger())
	req := httptest.NewRequest(http.MethodGet, "/scan/missing", nil)
	rec := httptest.NewRecorder()
	h.ScanRoutes(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteScan_RunningIsConflict(t *testing.T) {
	storage := newStubStorage()
	storage.deleteErr = interfaces.ErrJobRunning
	seedJob(storage, "job-4", models.JobStatusRunning)
	h := NewScanHandler(storage, common.GetLogger())

	req := httptest.NewRequest(http.MethodDelete, "/scan/job-4", nil)
	rec := httptest.NewRecorder()
	h.ScanRoutes(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteScan_Removes(t *testing.T) {
	storage := newStubStorage()
	seedJob(storage, "job-5", models.JobStatusSuccess)
	h := NewScanHandler(storage, common.GetLogger())

	req := httptest.NewRequest(http.MethodDelete, "/scan/job-5", nil)
	rec := httptest.NewRecorder()
	h.ScanRoutes(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, storage.jobs, "job-5")
}

func TestListScans_Pagination(t *testing.T) {
	storage := newStubStorage()
	storage.listJobs = []*models.ScanJob{
		{ID: "a", TargetURL: "https://example.com", Status: models.JobStatusSuccess},
	}
	storage.listTotal = 45
	h := NewScanHandler(storage, common.GetLogger())

	req := httptest.NewRequest(http.MethodGet, "/scans?status=success&page=2&limit=20", nil)
	rec := httptest.NewRecorder()
	h.ListHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, models.JobStatusSuccess, storage.lastFilter.Status)
	assert.Equal(t, 2, storage.lastFilter.Page)

	var resp struct {
		Data       []models.ScanJob  `json:"data"`
		Pagination models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, 45, resp.Pagination.Total)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
	assert.True(t, resp.Pagination.HasNext)
	assert.True(t, resp.Pagination.HasPrev)
}

func TestListScans_InvalidStatus(t *testing.T) {
	h := NewScanHandler(newStubStorage(), common.GetLogger())
	req := httptest.NewRequest(http.MethodGet, "/scans?status=EXPLODED", nil)
	rec := httptest.NewRecorder()
	h.ListHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListScans_LimitCapped(t *testing.T) {
	storage := newStubStorage()
	h := NewScanHandler(storage, common.GetLogger())

	req := httptest.NewRequest(http.MethodGet, "/scans?limit=5000", nil)
	rec := httptest.NewRecorder()
	h.ListHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.MaxPageLimit, storage.lastFilter.Limit)
}
