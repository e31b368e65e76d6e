package analysis

import (
	"net/url"
	"strings"

	"github.com/ternarybob/vigil/internal/models"
)

// isCDNHost reports whether the host is on the CDN allowlist
func isCDNHost(host string) bool {
	host = strings.ToLower(host)
	for _, cdn := range cdnAllowlist {
		if host == cdn {
			return true
		}
	}
	return false
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// detectTrackers scans script sources and network-requested URLs for
// known tracking companies. One finding per company; the first matching
// keyword wins.
func detectTrackers(record *models.CrawlRecord) []models.TrackerFinding {
	seen := make(map[string]bool)
	var candidates []string

	for _, src := range record.AllExternalScripts() {
		if !seen[src] {
			seen[src] = true
			candidates = append(candidates, src)
		}
	}
	for _, req := range record.AllRequests() {
		if !seen[req.URL] {
			seen[req.URL] = true
			candidates = append(candidates, req.URL)
		}
	}

	found := make(map[string]bool)
	var findings []models.TrackerFinding
	for _, candidate := range candidates {
		if isCDNHost(hostOf(candidate)) {
			continue
		}
		lower := strings.ToLower(candidate)
		for _, pattern := range trackerPatterns {
			if !strings.Contains(lower, pattern.Keyword) {
				continue
			}
			if !found[pattern.Company] {
				found[pattern.Company] = true
				findings = append(findings, models.TrackerFinding{
					Company:  pattern.Company,
					Category: pattern.Category,
					Risk:     pattern.Risk,
					Matched:  candidate,
				})
			}
			break
		}
	}
	return findings
}
