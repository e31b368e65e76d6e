// Package crawler drives a headless browser over a target site and
// captures the artifacts the analysis pipeline consumes.
package crawler

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/models"
)

// Service is the crawl engine. Each Crawl launches a fresh browser
// context so no state leaks between scans.
type Service struct {
	config common.CrawlerConfig
	logger arbor.ILogger
}

// NewService creates the crawl engine
func NewService(config common.CrawlerConfig, logger arbor.ILogger) *Service {
	return &Service{config: config, logger: logger}
}

// allocatorOptions builds the browser launch flags. Service workers are
// disabled at the context level; the instrumentation additionally flags
// any registration attempt.
func (s *Service) allocatorOptions() []chromedp.ExecAllocatorOption {
	return append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.config.Headless),
		chromedp.Flag("disable-gpu", s.config.DisableGPU),
		chromedp.Flag("no-sandbox", s.config.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-features", "ServiceWorker"),
		chromedp.UserAgent(s.config.UserAgent),
	)
}

// Crawl drives the homepage plus up to MaxSubPages same-host pages and
// returns the aggregate record. A homepage failure fails the crawl;
// sub-page failures are logged and skipped.
func (s *Service) Crawl(ctx context.Context, targetURL string) (*models.CrawlRecord, error) {
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(ctx, s.allocatorOptions()...)
	defer allocatorCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	defer browserCancel()

	homepage, err := s.drivePage(browserCtx, targetURL, true)
	if err != nil {
		return nil, err
	}

	finalURL := homepage.FinalURL
	if finalURL == "" {
		finalURL = targetURL
	}

	record := &models.CrawlRecord{
		TargetURL: targetURL,
		FinalURL:  finalURL,
		Hostname:  hostOf(finalURL),
		IsHTTPS:   strings.HasPrefix(strings.ToLower(finalURL), "https://"),
		Pages:     []models.PageCapture{*homepage},
	}

	record.SitemapURLs = s.fetchSitemap(ctx, finalURL)

	candidates := make([]string, 0, len(record.SitemapURLs)+len(homepage.InternalLinks))
	candidates = append(candidates, record.SitemapURLs...)
	candidates = append(candidates, homepage.InternalLinks...)

	for _, subURL := range selectSubPages(finalURL, candidates, s.config.MaxSubPages) {
		capture, err := s.drivePage(browserCtx, subURL, false)
		if err != nil {
			s.logger.Warn().Str("url", subURL).Err(err).Msg("Sub-page crawl failed, skipping")
			continue
		}
		record.Pages = append(record.Pages, *capture)
	}

	cookies, err := s.collectCookies(browserCtx)
	if err != nil {
		s.logger.Warn().Str("url", targetURL).Err(err).Msg("Cookie collection failed")
	}
	record.Cookies = cookies
	record.PagesCrawled = len(record.Pages)

	s.logger.Info().
		Str("url", targetURL).
		Int("pages", record.PagesCrawled).
		Int("cookies", len(record.Cookies)).
		Msg("Crawl complete")
	return record, nil
}

// collectCookies reads every cookie the browser context accumulated
func (s *Service) collectCookies(browserCtx context.Context) ([]models.CapturedCookie, error) {
	var captured []models.CapturedCookie
	err := chromedp.Run(browserCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			cookies, err := storage.GetCookies().Do(ctx)
			if err != nil {
				return fmt.Errorf("failed to read context cookies: %w", err)
			}
			for _, cookie := range cookies {
				captured = append(captured, models.CapturedCookie{
					Name:     cookie.Name,
					Value:    cookie.Value,
					Domain:   cookie.Domain,
					Path:     cookie.Path,
					Expires:  cookie.Expires,
					Secure:   cookie.Secure,
					HTTPOnly: cookie.HTTPOnly,
					SameSite: string(cookie.SameSite),
				})
			}
			return nil
		}),
	)
	return captured, err
}
