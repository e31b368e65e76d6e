package analysis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vigil/internal/models"
)

func trackedSiteRecord() *models.CrawlRecord {
	return &models.CrawlRecord{
		TargetURL: "https://example.com",
		FinalURL:  "https://example.com/",
		Hostname:  "example.com",
		IsHTTPS:   true,
		Pages: []models.PageCapture{{
			URL:        "https://example.com",
			FinalURL:   "https://example.com/",
			IsHomepage: true,
			StatusCode: 200,
			ResponseHeaders: map[string]string{
				"content-security-policy": "default-src 'self'",
			},
			Requests: []models.CapturedRequest{
				{URL: "https://example.com/"},
				{URL: "https://www.google-analytics.com/collect", TrackingParams: []string{"utm_source"}},
				{URL: "https://connect.facebook.net/en_US/fbevents.js"},
			},
			Fingerprints: models.FingerprintFlags{Canvas: true},
		}},
		Cookies: []models.CapturedCookie{
			{Name: "_ga", Domain: ".example.com", Secure: true, HTTPOnly: true, SameSite: "Lax"},
		},
		PagesCrawled: 1,
	}
}

func TestAnalyze_FullReport(t *testing.T) {
	svc := newTestAnalysisService()
	report, err := svc.Analyze(context.Background(), trackedSiteRecord())
	require.NoError(t, err)

	assert.Equal(t, 2, report.TrackerCount)
	assert.Equal(t, 1, report.CookieCount)
	assert.Equal(t, 1, report.PagesCrawled)
	assert.True(t, report.IsHTTPS)
	assert.True(t, report.HasCSP)
	assert.True(t, report.CanvasFingerprint)
	assert.Equal(t, models.RiskLevelForScore(report.Score), report.RiskLevel)
	assert.NotEmpty(t, report.Summary)
	assert.NotEmpty(t, report.Signals)
	assert.Equal(t, 2, report.ExternalDomainCount)

	// Deductions: 2 trackers (-16), canvas (-15), tracking params (-10)
	assert.Equal(t, 59, report.Score)
	assert.Equal(t, models.RiskElevated, report.RiskLevel)
}

func TestAnalyze_Deterministic(t *testing.T) {
	svc := newTestAnalysisService()

	first, err := svc.Analyze(context.Background(), trackedSiteRecord())
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), trackedSiteRecord())
	require.NoError(t, err)

	// Cookie lifetimes reference the clock, so compare everything except
	// timing-derived float drift via JSON equality of the whole report
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(firstJSON), string(secondJSON))
}

func TestAnalyze_NilRecord(t *testing.T) {
	svc := newTestAnalysisService()
	_, err := svc.Analyze(context.Background(), nil)
	assert.Error(t, err)
}
