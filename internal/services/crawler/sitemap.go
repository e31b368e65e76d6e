package crawler

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxSitemapURLs = 200

// fetchSitemap pulls /sitemap.xml within its budget and extracts <loc>
// URLs. Any failure yields an empty list; the sitemap is an enrichment,
// not a requirement.
func (s *Service) fetchSitemap(ctx context.Context, baseURL string) []string {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}
	sitemapURL := parsed.Scheme + "://" + parsed.Host + "/sitemap.xml"

	ctx, cancel := context.WithTimeout(ctx, s.config.SitemapTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", s.config.UserAgent)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		s.logger.Debug().Str("url", sitemapURL).Err(err).Msg("Sitemap fetch failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	return parseSitemapLocs(resp.Body)
}

// parseSitemapLocs extracts <loc> entries from sitemap XML
func parseSitemapLocs(body io.Reader) []string {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil
	}

	var locs []string
	doc.Find("loc").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		loc := strings.TrimSpace(sel.Text())
		if loc != "" {
			locs = append(locs, loc)
		}
		return len(locs) < maxSitemapURLs
	})
	return locs
}
