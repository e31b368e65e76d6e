package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/ternarybob/vigil/internal/models"
)

// Query parameters that mark a request as tracking traffic
var trackingParamNames = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"gclid", "fbclid", "msclkid", "dclid", "ttclid", "twclid", "igshid", "mc_eid",
}

// pageState mirrors the object returned by collectPageStateJS
type pageState struct {
	Fingerprints   models.FingerprintFlags `json:"fingerprints"`
	InlineScripts  []models.InlineScript   `json:"inlineScripts"`
	LocalStorage   map[string]string       `json:"localStorage"`
	SessionStorage map[string]string       `json:"sessionStorage"`
	InternalLinks  []string                `json:"internalLinks"`
	BodyText       string                  `json:"bodyText"`
}

// pageListener accumulates CDP events during one page drive
type pageListener struct {
	mu sync.Mutex

	requests   []models.CapturedRequest
	redirects  []models.Redirect
	webSockets []string

	mainStatus  int64
	mainURL     string
	mainHeaders map[string]string
	haveMain    bool

	domReady  chan struct{}
	loadFired chan struct{}
	domOnce   sync.Once
	loadOnce  sync.Once
}

func newPageListener() *pageListener {
	return &pageListener{
		mainHeaders: make(map[string]string),
		domReady:    make(chan struct{}),
		loadFired:   make(chan struct{}),
	}
}

func (l *pageListener) handle(ev interface{}) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		l.mu.Lock()
		l.requests = append(l.requests, models.CapturedRequest{
			URL:            e.Request.URL,
			Method:         e.Request.Method,
			ResourceType:   e.Type.String(),
			TrackingParams: extractTrackingParams(e.Request.URL),
			HasPostData:    e.Request.HasPostData,
		})
		if e.RedirectResponse != nil {
			l.redirects = append(l.redirects, models.Redirect{
				From:   e.RedirectResponse.URL,
				To:     e.Request.URL,
				Status: e.RedirectResponse.Status,
			})
		}
		l.mu.Unlock()

	case *network.EventResponseReceived:
		if e.Type != network.ResourceTypeDocument {
			return
		}
		l.mu.Lock()
		if !l.haveMain {
			l.haveMain = true
			l.mainStatus = e.Response.Status
			l.mainURL = e.Response.URL
			for name, value := range e.Response.Headers {
				if s, ok := value.(string); ok {
					l.mainHeaders[strings.ToLower(name)] = s
				}
			}
		}
		l.mu.Unlock()

	case *network.EventWebSocketCreated:
		l.mu.Lock()
		l.webSockets = append(l.webSockets, e.URL)
		l.mu.Unlock()

	case *page.EventDomContentEventFired:
		l.domOnce.Do(func() { close(l.domReady) })

	case *page.EventLoadEventFired:
		l.loadOnce.Do(func() { close(l.loadFired) })
	}
}

// drivePage navigates one page and captures its artifacts. The wait
// sequence is domcontentloaded bounded by the navigation timeout, then
// the load event or the settle ceiling, then a fixed JS-settle window.
func (s *Service) drivePage(browserCtx context.Context, pageURL string, isHomepage bool) (*models.PageCapture, error) {
	tabCtx, cancel := chromedp.NewContext(browserCtx)
	defer cancel()

	listener := newPageListener()
	chromedp.ListenTarget(tabCtx, listener.handle)

	navCtx, navCancel := context.WithTimeout(tabCtx, s.config.NavigationTimeout)
	defer navCancel()

	err := chromedp.Run(navCtx,
		network.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(fingerprintDetectorJS).Do(ctx)
			return err
		}),
		chromedp.EmulateViewport(1920, 1080),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, _, _, _, err := page.Navigate(pageURL).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("UNREACHABLE:driver_error:%s", pageURL)
	}

	select {
	case <-listener.domReady:
	case <-navCtx.Done():
		return nil, fmt.Errorf("UNREACHABLE:driver_error:%s", pageURL)
	}

	select {
	case <-listener.loadFired:
	case <-time.After(s.config.SettleTimeout):
	case <-tabCtx.Done():
		return nil, fmt.Errorf("UNREACHABLE:driver_error:%s", pageURL)
	}

	select {
	case <-time.After(s.config.ScriptSettleWait):
	case <-tabCtx.Done():
		return nil, fmt.Errorf("UNREACHABLE:driver_error:%s", pageURL)
	}

	var state pageState
	var location string
	collectCtx, collectCancel := context.WithTimeout(tabCtx, 10*time.Second)
	defer collectCancel()
	if err := chromedp.Run(collectCtx,
		chromedp.Location(&location),
		chromedp.Evaluate(collectPageStateJS, &state),
	); err != nil {
		s.logger.Warn().Str("url", pageURL).Err(err).Msg("Page state collection failed")
	}

	listener.mu.Lock()
	capture := &models.PageCapture{
		URL:             pageURL,
		FinalURL:        location,
		IsHomepage:      isHomepage,
		StatusCode:      listener.mainStatus,
		Requests:        listener.requests,
		ResponseHeaders: listener.mainHeaders,
		Redirects:       listener.redirects,
		WebSocketURLs:   listener.webSockets,
		Fingerprints:    state.Fingerprints,
		InlineScripts:   state.InlineScripts,
		LocalStorage:    state.LocalStorage,
		SessionStorage:  state.SessionStorage,
		InternalLinks:   state.InternalLinks,
		BodyText:        state.BodyText,
	}
	haveResponse := listener.haveMain
	listener.mu.Unlock()

	if capture.FinalURL == "" {
		capture.FinalURL = listener.mainURL
	}
	capture.ExternalScripts = externalScriptURLs(capture)

	if failure := detectFailure(capture, haveResponse); failure.fails(isHomepage) {
		return capture, fmt.Errorf("UNREACHABLE:%s:%s", failure, pageURL)
	}
	return capture, nil
}

// externalScriptURLs pulls script requests served from another host
func externalScriptURLs(capture *models.PageCapture) []string {
	pageHost := hostOf(capture.FinalURL)
	if pageHost == "" {
		pageHost = hostOf(capture.URL)
	}

	seen := make(map[string]bool)
	var scripts []string
	for _, req := range capture.Requests {
		if req.ResourceType != network.ResourceTypeScript.String() {
			continue
		}
		host := hostOf(req.URL)
		if host == "" || host == pageHost || seen[req.URL] {
			continue
		}
		seen[req.URL] = true
		scripts = append(scripts, req.URL)
	}
	return scripts
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// extractTrackingParams returns the known tracking parameters present in
// the URL's query string
func extractTrackingParams(rawURL string) []string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.RawQuery == "" {
		return nil
	}
	query := parsed.Query()

	var params []string
	for _, name := range trackingParamNames {
		if query.Has(name) {
			params = append(params, name)
		}
	}
	return params
}
