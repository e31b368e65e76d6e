package models

// Crawl capture types. A CrawlRecord is transient: it exists only within one
// scheduled execution and is never persisted beyond the summarized fields the
// analysis pipeline derives from it.

// CapturedRequest is one network request observed during a page drive
type CapturedRequest struct {
	URL            string   `json:"url"`
	Method         string   `json:"method"`
	ResourceType   string   `json:"resourceType"`
	TrackingParams []string `json:"trackingParams,omitempty"`
	HasPostData    bool     `json:"hasPostData"`
}

// Redirect is one hop of the main-document redirect chain
type Redirect struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Status int64  `json:"status"`
}

// InlineScript describes an inline <script> body without retaining it
type InlineScript struct {
	Length           int  `json:"length"`
	TrackerSignature bool `json:"trackerSignature"`
}

// BeaconCall records a navigator.sendBeacon invocation
type BeaconCall struct {
	URL     string `json:"url"`
	HasData bool   `json:"hasData"`
}

// FingerprintFlags are set by the injected pre-navigation instrumentation
type FingerprintFlags struct {
	Canvas        bool         `json:"canvas"`
	WebGL         bool         `json:"webgl"`
	Font          bool         `json:"font"`
	Keylogger     bool         `json:"keylogger"`
	FormSnooping  bool         `json:"formSnooping"`
	ServiceWorker bool         `json:"serviceWorker"`
	Beacons       []BeaconCall `json:"beacons,omitempty"`
}

// PageCapture is everything recorded while driving a single page
type PageCapture struct {
	URL             string            `json:"url"`
	FinalURL        string            `json:"finalUrl"`
	IsHomepage      bool              `json:"isHomepage"`
	StatusCode      int64             `json:"statusCode"`
	Requests        []CapturedRequest `json:"requests"`
	ResponseHeaders map[string]string `json:"responseHeaders"`
	Redirects       []Redirect        `json:"redirects"`
	WebSocketURLs   []string          `json:"webSocketUrls"`
	Fingerprints    FingerprintFlags  `json:"fingerprints"`
	ExternalScripts []string          `json:"externalScripts"`
	InlineScripts   []InlineScript    `json:"inlineScripts"`
	LocalStorage    map[string]string `json:"localStorage"`
	SessionStorage  map[string]string `json:"sessionStorage"`
	InternalLinks   []string          `json:"internalLinks"`
	BodyText        string            `json:"bodyText"`
}

// CapturedCookie is one cookie read from the browser context after the crawl
type CapturedCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"` // Unix seconds; <=0 for session cookies
	Secure   bool    `json:"secure"`
	HTTPOnly bool    `json:"httpOnly"`
	SameSite string  `json:"sameSite"`
}

// CrawlRecord aggregates the captures of one multi-page crawl
type CrawlRecord struct {
	TargetURL    string           `json:"targetUrl"`
	FinalURL     string           `json:"finalUrl"`
	Hostname     string           `json:"hostname"`
	IsHTTPS      bool             `json:"isHttps"`
	Pages        []PageCapture    `json:"pages"`
	Cookies      []CapturedCookie `json:"cookies"`
	SitemapURLs  []string         `json:"sitemapUrls,omitempty"`
	PagesCrawled int              `json:"pagesCrawled"`
}

// Homepage returns the homepage capture, or nil when absent
func (r *CrawlRecord) Homepage() *PageCapture {
	for i := range r.Pages {
		if r.Pages[i].IsHomepage {
			return &r.Pages[i]
		}
	}
	return nil
}

// AllRequests flattens the per-page request captures
func (r *CrawlRecord) AllRequests() []CapturedRequest {
	var requests []CapturedRequest
	for i := range r.Pages {
		requests = append(requests, r.Pages[i].Requests...)
	}
	return requests
}

// AllExternalScripts returns the deduplicated union of external script URLs
func (r *CrawlRecord) AllExternalScripts() []string {
	seen := make(map[string]bool)
	var scripts []string
	for i := range r.Pages {
		for _, src := range r.Pages[i].ExternalScripts {
			if !seen[src] {
				seen[src] = true
				scripts = append(scripts, src)
			}
		}
	}
	return scripts
}
