package analysis

import (
	"fmt"
	"strings"

	"github.com/ternarybob/vigil/internal/models"
)

// aggregates are the crawl-wide facts the signals and score read
type aggregates struct {
	IsHTTPS             bool
	CSPHeader           string
	HasCSP              bool
	Fingerprints        models.FingerprintFlags
	BeaconCount         int
	WebSocketCount      int
	RedirectCount       int
	TrackingParamCount  int
	CookieCount         int
	InlineTrackerCount  int
	ExternalDomainCount int
	Trackers            []models.TrackerFinding
}

// collectAggregates merges per-page captures into crawl-wide facts
func collectAggregates(record *models.CrawlRecord, trackers []models.TrackerFinding, externalDomains []string) aggregates {
	agg := aggregates{
		IsHTTPS:             record.IsHTTPS,
		CookieCount:         len(record.Cookies),
		ExternalDomainCount: len(externalDomains),
		Trackers:            trackers,
	}

	if home := record.Homepage(); home != nil {
		agg.CSPHeader = home.ResponseHeaders["content-security-policy"]
		agg.HasCSP = agg.CSPHeader != ""
	}

	for i := range record.Pages {
		page := &record.Pages[i]
		agg.Fingerprints.Canvas = agg.Fingerprints.Canvas || page.Fingerprints.Canvas
		agg.Fingerprints.WebGL = agg.Fingerprints.WebGL || page.Fingerprints.WebGL
		agg.Fingerprints.Font = agg.Fingerprints.Font || page.Fingerprints.Font
		agg.Fingerprints.Keylogger = agg.Fingerprints.Keylogger || page.Fingerprints.Keylogger
		agg.Fingerprints.FormSnooping = agg.Fingerprints.FormSnooping || page.Fingerprints.FormSnooping
		agg.Fingerprints.ServiceWorker = agg.Fingerprints.ServiceWorker || page.Fingerprints.ServiceWorker

		agg.BeaconCount += len(page.Fingerprints.Beacons)
		agg.WebSocketCount += len(page.WebSocketURLs)
		agg.RedirectCount += len(page.Redirects)
		for _, req := range page.Requests {
			agg.TrackingParamCount += len(req.TrackingParams)
		}
		for _, script := range page.InlineScripts {
			if script.TrackerSignature {
				agg.InlineTrackerCount++
			}
		}
	}
	return agg
}

// buildSignals emits the security signal list from the aggregates
func buildSignals(agg aggregates) []models.SecuritySignal {
	var signals []models.SecuritySignal
	add := func(sigType models.SignalType, category, message string) {
		signals = append(signals, models.SecuritySignal{Type: sigType, Category: category, Message: message})
	}

	if agg.IsHTTPS {
		add(models.SignalSafe, "transport", "Connection uses HTTPS")
	} else {
		add(models.SignalDanger, "transport", "Site does not use HTTPS")
	}

	if agg.HasCSP {
		add(models.SignalInfo, "headers", "Content-Security-Policy header present")
		lower := strings.ToLower(agg.CSPHeader)
		if strings.Contains(lower, "unsafe-inline") {
			add(models.SignalWarning, "headers", "CSP allows unsafe-inline scripts")
		}
		if strings.Contains(lower, "unsafe-eval") {
			add(models.SignalWarning, "headers", "CSP allows unsafe-eval")
		}
	} else {
		add(models.SignalWarning, "headers", "No Content-Security-Policy header")
	}

	if agg.Fingerprints.Canvas {
		add(models.SignalDanger, "fingerprinting", "Canvas fingerprinting detected")
	}
	if agg.Fingerprints.WebGL {
		add(models.SignalWarning, "fingerprinting", "WebGL fingerprinting detected")
	}
	if agg.Fingerprints.Font {
		add(models.SignalWarning, "fingerprinting", "Font enumeration detected")
	}
	if agg.Fingerprints.Keylogger {
		add(models.SignalDanger, "surveillance", "Global keystroke listeners detected")
	}
	if agg.Fingerprints.FormSnooping {
		add(models.SignalDanger, "surveillance", "Form input value snooping detected")
	}
	if agg.BeaconCount > 0 {
		add(models.SignalWarning, "exfiltration", fmt.Sprintf("%d beacon calls observed", agg.BeaconCount))
	}
	if agg.WebSocketCount > 0 {
		add(models.SignalInfo, "network", fmt.Sprintf("%d WebSocket connections opened", agg.WebSocketCount))
	}
	if agg.Fingerprints.ServiceWorker {
		add(models.SignalInfo, "persistence", "Service worker registration attempted")
	}
	if agg.RedirectCount > 3 {
		add(models.SignalWarning, "navigation", fmt.Sprintf("%d redirects in navigation chain", agg.RedirectCount))
	}
	if agg.TrackingParamCount > 0 {
		add(models.SignalWarning, "tracking", fmt.Sprintf("%d requests carry tracking parameters", agg.TrackingParamCount))
	}

	switch {
	case agg.CookieCount > 20:
		add(models.SignalWarning, "cookies", fmt.Sprintf("%d cookies set", agg.CookieCount))
	case agg.CookieCount > 0:
		add(models.SignalInfo, "cookies", fmt.Sprintf("%d cookies set", agg.CookieCount))
	}

	if agg.InlineTrackerCount > 0 {
		add(models.SignalWarning, "tracking", fmt.Sprintf("%d inline tracking scripts found", agg.InlineTrackerCount))
	}

	switch {
	case agg.ExternalDomainCount > 10:
		add(models.SignalDanger, "third-parties", fmt.Sprintf("Site contacts %d external domains", agg.ExternalDomainCount))
	case agg.ExternalDomainCount > 5:
		add(models.SignalWarning, "third-parties", fmt.Sprintf("Site contacts %d external domains", agg.ExternalDomainCount))
	case agg.ExternalDomainCount > 0:
		add(models.SignalInfo, "third-parties", fmt.Sprintf("Site contacts %d external domains", agg.ExternalDomainCount))
	}

	highRiskTrackers := 0
	for _, tracker := range agg.Trackers {
		if tracker.Risk == models.TrackerRiskHigh {
			highRiskTrackers++
		}
	}
	if highRiskTrackers > 0 {
		add(models.SignalDanger, "tracking", fmt.Sprintf("%d high-risk trackers identified", highRiskTrackers))
	}

	return signals
}
