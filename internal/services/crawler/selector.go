package crawler

import (
	"net/url"
	"sort"
	"strings"
)

// Asset extensions excluded from sub-page selection
var assetExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".ico",
	".css", ".js", ".mjs",
	".zip", ".gz", ".tar", ".rar", ".7z",
	".woff", ".woff2", ".ttf", ".otf", ".eot",
	".pdf", ".xml", ".json",
}

// selectSubPages ranks candidate URLs and returns up to limit same-host
// pages. Shallow, query-free paths score highest: score = -2 for a query
// string, -1 per non-empty path segment.
func selectSubPages(homepageURL string, candidates []string, limit int) []string {
	home, err := url.Parse(homepageURL)
	if err != nil || limit <= 0 {
		return nil
	}
	homeHost := strings.ToLower(home.Hostname())
	homePath := strings.TrimSuffix(home.Path, "/")

	type scored struct {
		url   string
		score int
	}
	var ranked []scored
	seen := make(map[string]bool)

	for _, candidate := range candidates {
		parsed, err := url.Parse(candidate)
		if err != nil {
			continue
		}
		if !strings.EqualFold(parsed.Hostname(), homeHost) {
			continue
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			continue
		}
		path := strings.TrimSuffix(parsed.Path, "/")
		if path == homePath {
			continue
		}
		if hasAssetExtension(path) {
			continue
		}

		key := parsed.Scheme + "://" + strings.ToLower(parsed.Host) + path + "?" + parsed.RawQuery
		if seen[key] {
			continue
		}
		seen[key] = true

		score := 0
		if parsed.RawQuery != "" {
			score -= 2
		}
		for _, segment := range strings.Split(path, "/") {
			if segment != "" {
				score--
			}
		}
		ranked = append(ranked, scored{url: candidate, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	selected := make([]string, 0, len(ranked))
	for _, r := range ranked {
		selected = append(selected, r.url)
	}
	return selected
}

func hasAssetExtension(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range assetExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
