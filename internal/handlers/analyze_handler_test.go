package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/models"
)

func postAnalyze(t *testing.T, h *AnalyzeHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.SubmitHandler(rec, req)
	return rec
}

func decodeAnalyze(t *testing.T, rec *httptest.ResponseRecorder) analyzeResponse {
	t.Helper()
	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func publicResolver() *stubResolver {
	return &stubResolver{ip: net.ParseIP("93.184.216.34")}
}

func TestSubmitHandler_Accepts(t *testing.T) {
	storage := newStubStorage()
	queue := &stubQueue{}
	h := NewAnalyzeHandler(newTestAdmission(storage, queue, publicResolver()), common.GetLogger())

	rec := postAnalyze(t, h, `{"url": "example.com"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	resp := decodeAnalyze(t, rec)
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, string(models.JobStatusPending), resp.Status)
	assert.False(t, resp.Cached)
	assert.Equal(t, "/scan/"+resp.JobID, resp.PollURL)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, "https://example.com", queue.enqueued[0].URL)
}

func TestSubmitHandler_CacheHit(t *testing.T) {
	storage := newStubStorage()
	completed := time.Now().Add(-2 * time.Minute)
	storage.recent = &models.ScanJob{
		ID:          "cached-job",
		TargetURL:   "https://example.com",
		Status:      models.JobStatusSuccess,
		CompletedAt: &completed,
	}
	queue := &stubQueue{}
	h := NewAnalyzeHandler(newTestAdmission(storage, queue, publicResolver()), common.GetLogger())

	rec := postAnalyze(t, h, `{"url": "example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeAnalyze(t, rec)
	assert.Equal(t, "cached-job", resp.JobID)
	assert.Equal(t, string(models.JobStatusSuccess), resp.Status)
	assert.True(t, resp.Cached)
	assert.NotNil(t, resp.CachedAt)
	assert.Empty(t, queue.enqueued)
}

func TestSubmitHandler_RejectionMessages(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		contains string
	}{
		{"no TLD", `{"url": "ksgdsgfksdgfksdfg"}`, "doesn't look like a real domain"},
		{"raw IP", `{"url": "http://127.0.0.1/"}`, "not supported"},
		{"bad scheme", `{"url": "ftp://example.com"}`, "malformed"},
		{"empty", `{"url": ""}`, "url"},
		{"not JSON", `plain text`, "JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAnalyzeHandler(newTestAdmission(newStubStorage(), &stubQueue{}, publicResolver()), common.GetLogger())
			rec := postAnalyze(t, h, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, strings.ToLower(rec.Body.String()), strings.ToLower(tt.contains))
		})
	}
}

func TestSubmitHandler_SSRFBlocked(t *testing.T) {
	resolver := &stubResolver{ip: net.ParseIP("10.1.2.3")}
	h := NewAnalyzeHandler(newTestAdmission(newStubStorage(), &stubQueue{}, resolver), common.GetLogger())

	rec := postAnalyze(t, h, `{"url": "internal-service.example.com"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not permitted")
}

func TestSubmitHandler_EnqueueFailureIs500(t *testing.T) {
	queue := &stubQueue{enqueueErr: assert.AnError}
	h := NewAnalyzeHandler(newTestAdmission(newStubStorage(), queue, publicResolver()), common.GetLogger())

	rec := postAnalyze(t, h, `{"url": "example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSubmitHandler_MethodNotAllowed(t *testing.T) {
	h := NewAnalyzeHandler(newTestAdmission(newStubStorage(), &stubQueue{}, publicResolver()), common.GetLogger())
	req := httptest.NewRequest(http.MethodGet, "/analyze", nil)
	rec := httptest.NewRecorder()
	h.SubmitHandler(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
