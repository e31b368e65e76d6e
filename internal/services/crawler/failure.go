package crawler

import (
	"strings"

	"github.com/ternarybob/vigil/internal/models"
)

// Markers that identify a browser error page in rendered content
var errorPageMarkers = []string{
	"ERR_NAME_NOT_RESOLVED",
	"ERR_CONNECTION_REFUSED",
	"ERR_CONNECTION_TIMED_OUT",
	"ERR_TIMED_OUT",
	"ERR_ADDRESS_UNREACHABLE",
	"ERR_INTERNET_DISCONNECTED",
	"ERR_EMPTY_RESPONSE",
	"chrome-error://",
	"neterror",
	"jserrorpage",
	"dns-not-found",
}

// Internal-page schemes a real site never lands on
var internalPagePrefixes = []string{
	"chrome-error://",
	"about:",
	"data:text/html",
}

// failureSignals is the set of independent navigation-failure indicators
// observed after a page settles
type failureSignals []string

func (f failureSignals) String() string {
	return strings.Join(f, ",")
}

// fails applies the per-page threshold: any signal fails a homepage, a
// sub-page tolerates one.
func (f failureSignals) fails(isHomepage bool) bool {
	if isHomepage {
		return len(f) >= 1
	}
	return len(f) >= 2
}

// detectFailure computes the five failure signals for a settled page
func detectFailure(capture *models.PageCapture, haveResponse bool) failureSignals {
	var signals failureSignals

	if !haveResponse {
		signals = append(signals, "no_response")
	}
	if capture.StatusCode >= 400 {
		signals = append(signals, "http_error")
	}

	finalURL := strings.ToLower(capture.FinalURL)
	for _, prefix := range internalPagePrefixes {
		if strings.HasPrefix(finalURL, prefix) {
			signals = append(signals, "internal_page")
			break
		}
	}

	// Error pages fire no subresources
	realRequests := 0
	for _, req := range capture.Requests {
		if !strings.HasPrefix(req.URL, "data:") {
			realRequests++
		}
	}
	if realRequests <= 1 {
		signals = append(signals, "no_subresources")
	}

	for _, marker := range errorPageMarkers {
		if strings.Contains(capture.BodyText, marker) {
			signals = append(signals, "error_content")
			break
		}
	}

	return signals
}
