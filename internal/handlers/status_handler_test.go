package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/models"
	"github.com/ternarybob/vigil/internal/services/metrics"
)

func newTestStatusHandler(storage *stubStorage, queue *stubQueue) *StatusHandler {
	return NewStatusHandler("privacy-analyzer", storage, queue, metrics.NewCollector(), common.GetLogger())
}

func TestHealthHandler_Healthy(t *testing.T) {
	queue := &stubQueue{depth: models.QueueDepth{Waiting: 3, Active: 1}}
	h := newTestStatusHandler(newStubStorage(), queue)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.HealthHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
		Queue  models.QueueDepth `json:"queue"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Checks["database"])
	assert.Equal(t, int64(3), resp.Queue.Waiting)
}

func TestHealthHandler_DegradedOnDatabaseFailure(t *testing.T) {
	storage := newStubStorage()
	storage.pingErr = assert.AnError
	h := newTestStatusHandler(storage, &stubQueue{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.HealthHandler(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestHealthHandler_DegradedOnQueueFailure(t *testing.T) {
	queue := &stubQueue{pingErr: assert.AnError}
	h := newTestStatusHandler(newStubStorage(), queue)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.HealthHandler(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsHandler_ReportsCountersAndDepth(t *testing.T) {
	collector := metrics.NewCollector()
	collector.IncStarted()
	collector.IncSucceeded()
	queue := &stubQueue{depth: models.QueueDepth{DeadLettered: 2}}
	h := NewStatusHandler("privacy-analyzer", newStubStorage(), queue, collector, common.GetLogger())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.MetricsHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Service string            `json:"service"`
		Jobs    metrics.Snapshot  `json:"jobs"`
		Queue   models.QueueDepth `json:"queue"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "privacy-analyzer", resp.Service)
	assert.Equal(t, int64(1), resp.Jobs.Jobs.Started)
	assert.Equal(t, int64(2), resp.Queue.DeadLettered)
}

func TestVersionHandler(t *testing.T) {
	h := newTestStatusHandler(newStubStorage(), &stubQueue{})
	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	rec := httptest.NewRecorder()
	h.VersionHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "version")
}
