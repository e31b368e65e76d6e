package analysis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vigil/internal/common"
)

func newTestAnalysisService() *Service {
	return NewService(common.AnalysisConfig{
		ScriptFetchTimeout: 2 * time.Second,
		ScriptMaxBytes:     100 * 1024,
		MaxScripts:         8,
		MaxCookieReports:   30,
	}, common.GetLogger())
}

func TestShannonEntropy(t *testing.T) {
	assert.Zero(t, shannonEntropy(nil))
	assert.Zero(t, shannonEntropy([]byte("aaaaaaaa")))

	low := shannonEntropy([]byte(strings.Repeat("hello world ", 50)))
	high := shannonEntropy([]byte("a8F$k2!pQz9#mX7@vB4&nC1*wD6^eG3%"))
	assert.Greater(t, high, low)
}

func TestObfuscationScore_PlainScriptScoresLow(t *testing.T) {
	plain := []byte(`
function greet(name) {
	return "hello " + name;
}
document.addEventListener("DOMContentLoaded", function () {
	greet("world");
});
`)
	assert.Less(t, obfuscationScore(plain), 30)
}

func TestCountSignatures(t *testing.T) {
	text := `eval("x"); var f = new Function("return 1"); String.fromCharCode(104,105);`
	total, high := countSignatures(text)
	assert.Equal(t, 3, total)
	assert.Equal(t, 3, high)

	total, high = countSignatures(`console.log("clean")`)
	assert.Zero(t, total)
	assert.Zero(t, high)
}

func TestCountExfiltrationHits(t *testing.T) {
	text := `document.cookie; localStorage.getItem("x"); navigator.userAgent; fetch("/x"); new WebSocket("wss://e")`
	assert.Equal(t, 5, countExfiltrationHits(text))
}

func TestScriptRisk(t *testing.T) {
	assert.Equal(t, "high", scriptRisk(true, 0, 0, 0))
	assert.Equal(t, "high", scriptRisk(false, 60, 0, 0))
	assert.Equal(t, "high", scriptRisk(false, 0, 2, 2))
	assert.Equal(t, "medium", scriptRisk(false, 30, 0, 0))
	assert.Equal(t, "medium", scriptRisk(false, 0, 1, 1))
	assert.Equal(t, "medium", scriptRisk(false, 0, 3, 0))
	assert.Equal(t, "low", scriptRisk(false, 10, 1, 0))
}

func TestAnalyzeScripts_FetchAndReport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`eval(atob("ZG9jdW1lbnQuY29va2ll")); String.fromCharCode(1); setTimeout("run()", 10);`))
	}))
	defer server.Close()

	svc := newTestAnalysisService()
	reports := svc.analyzeScripts(context.Background(), []string{server.URL + "/t.js"})
	require.Len(t, reports, 1)

	report := reports[0]
	assert.Equal(t, "high", report.Risk)
	assert.Len(t, report.SHA256, 64)
	assert.Positive(t, report.SizeBytes)
	assert.GreaterOrEqual(t, report.ObfuscationSignals, 3)
	assert.Empty(t, report.FetchError)
}

func TestAnalyzeScripts_FetchErrorRecorded(t *testing.T) {
	svc := newTestAnalysisService()
	reports := svc.analyzeScripts(context.Background(), []string{"http://127.0.0.1:1/unreachable.js"})
	require.Len(t, reports, 1)
	assert.NotEmpty(t, reports[0].FetchError)
	assert.Equal(t, "low", reports[0].Risk)
}

func TestAnalyzeScripts_CDNAndLimitRespected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("var x = 1;"))
	}))
	defer server.Close()

	svc := newTestAnalysisService()
	svc.config.MaxScripts = 2

	urls := []string{
		"https://cdnjs.cloudflare.com/lib.js",
		server.URL + "/a.js",
		server.URL + "/b.js",
		server.URL + "/c.js",
	}
	reports := svc.analyzeScripts(context.Background(), urls)
	assert.Len(t, reports, 2)
}

func TestKnownBadHashFlagsHigh(t *testing.T) {
	body := []byte("var benign = true;")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer server.Close()

	svc := newTestAnalysisService()
	reports := svc.analyzeScripts(context.Background(), []string{server.URL + "/bad.js"})
	require.Len(t, reports, 1)

	KnownBadHashes[reports[0].SHA256] = true
	defer delete(KnownBadHashes, reports[0].SHA256)

	reports = svc.analyzeScripts(context.Background(), []string{server.URL + "/bad.js"})
	require.Len(t, reports, 1)
	assert.True(t, reports[0].KnownBad)
	assert.Equal(t, "high", reports[0].Risk)
}
