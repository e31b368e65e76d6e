package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vigil/internal/models"
)

func recordWithRequests(urls ...string) *models.CrawlRecord {
	requests := make([]models.CapturedRequest, 0, len(urls))
	for _, u := range urls {
		requests = append(requests, models.CapturedRequest{URL: u})
	}
	return &models.CrawlRecord{
		Hostname: "example.com",
		Pages:    []models.PageCapture{{IsHomepage: true, Requests: requests}},
	}
}

func TestDetectTrackers_MatchesKnownCompanies(t *testing.T) {
	record := recordWithRequests(
		"https://www.google-analytics.com/collect?v=1",
		"https://connect.facebook.net/en_US/fbevents.js",
		"https://static.hotjar.com/c/hotjar-1.js",
	)
	findings := detectTrackers(record)
	require.Len(t, findings, 3)

	companies := make([]string, 0, len(findings))
	for _, f := range findings {
		companies = append(companies, f.Company)
	}
	assert.ElementsMatch(t, []string{"Google Analytics", "Meta Pixel", "Hotjar"}, companies)
}

func TestDetectTrackers_OneFindingPerCompany(t *testing.T) {
	record := recordWithRequests(
		"https://www.google-analytics.com/collect?v=1",
		"https://www.google-analytics.com/j/collect?v=2",
	)
	findings := detectTrackers(record)
	require.Len(t, findings, 1)
	assert.Equal(t, "Google Analytics", findings[0].Company)
	assert.Equal(t, "https://www.google-analytics.com/collect?v=1", findings[0].Matched)
}

func TestDetectTrackers_CDNHostsExcluded(t *testing.T) {
	record := recordWithRequests(
		"https://cdnjs.cloudflare.com/ajax/libs/hotjar/fake.js",
		"https://example.com/app.js",
	)
	assert.Empty(t, detectTrackers(record))
}

func TestDetectTrackers_RiskAttached(t *testing.T) {
	record := recordWithRequests("https://securepubads.doubleclick.net/tag/js/gpt.js")
	findings := detectTrackers(record)
	require.Len(t, findings, 1)
	assert.Equal(t, models.TrackerRiskHigh, findings[0].Risk)
	assert.Equal(t, "advertising", findings[0].Category)
}
