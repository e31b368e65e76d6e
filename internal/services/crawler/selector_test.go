package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectSubPages_PrefersShallowPaths(t *testing.T) {
	candidates := []string{
		"https://example.com/about",
		"https://example.com/blog/2024/01/deep-post",
		"https://example.com/pricing",
		"https://example.com/contact",
	}
	selected := selectSubPages("https://example.com/", candidates, 3)
	assert.Len(t, selected, 3)
	assert.NotContains(t, selected, "https://example.com/blog/2024/01/deep-post")
}

func TestSelectSubPages_PenalizesQueryStrings(t *testing.T) {
	candidates := []string{
		"https://example.com/search?q=stuff",
		"https://example.com/about",
	}
	selected := selectSubPages("https://example.com/", candidates, 1)
	assert.Equal(t, []string{"https://example.com/about"}, selected)
}

func TestSelectSubPages_RejectsOtherHosts(t *testing.T) {
	candidates := []string{
		"https://evil.com/about",
		"https://cdn.example.com/page",
		"https://example.com/team",
	}
	selected := selectSubPages("https://example.com/", candidates, 3)
	assert.Equal(t, []string{"https://example.com/team"}, selected)
}

func TestSelectSubPages_RejectsAssets(t *testing.T) {
	candidates := []string{
		"https://example.com/logo.png",
		"https://example.com/styles.css",
		"https://example.com/bundle.js",
		"https://example.com/sitemap.xml",
		"https://example.com/fonts/brand.woff2",
		"https://example.com/report.pdf",
		"https://example.com/about",
	}
	selected := selectSubPages("https://example.com/", candidates, 5)
	assert.Equal(t, []string{"https://example.com/about"}, selected)
}

func TestSelectSubPages_ExcludesHomepageAndDuplicates(t *testing.T) {
	candidates := []string{
		"https://example.com/",
		"https://example.com",
		"https://example.com/about",
		"https://example.com/about/",
	}
	selected := selectSubPages("https://example.com/", candidates, 3)
	assert.Len(t, selected, 1)
}

func TestSelectSubPages_HonorsLimit(t *testing.T) {
	candidates := []string{
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
		"https://example.com/d",
	}
	assert.Len(t, selectSubPages("https://example.com/", candidates, 3), 3)
	assert.Empty(t, selectSubPages("https://example.com/", candidates, 0))
}
