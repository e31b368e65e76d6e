package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"math"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/vigil/internal/models"
)

// Full-body read ceiling; the hash covers everything read, the text
// metrics only the analysis cap.
const scriptBodyCeiling = 5 * 1024 * 1024

var (
	stringLiteralPattern = regexp.MustCompile(`['"` + "`" + `][^'"` + "`" + `\n]{100,}['"` + "`" + `]`)
	identifierPattern    = regexp.MustCompile(`\b(?:var|let|const)\s+([a-zA-Z_$][a-zA-Z0-9_$]?)\b`)
)

// fetchScript downloads one external script within the per-script budget
func (s *Service) fetchScript(ctx context.Context, scriptURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.ScriptFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scriptURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(io.LimitReader(resp.Body, scriptBodyCeiling))
}

// shannonEntropy measures byte-level randomness of the sampled text
func shannonEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var freq [256]int
	for _, b := range data {
		freq[b]++
	}
	total := float64(len(data))
	entropy := 0.0
	for _, count := range freq {
		if count == 0 {
			continue
		}
		p := float64(count) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// obfuscationScore bands the text metrics into a 0..100 score
func obfuscationScore(sample []byte) int {
	text := string(sample)
	score := 0

	entropy := shannonEntropy(sample)
	switch {
	case entropy > 5.5:
		score += 40
	case entropy > 4.8:
		score += 20
	case entropy > 4.2:
		score += 10
	}

	longStrings := len(stringLiteralPattern.FindAllString(text, -1))
	switch {
	case longStrings > 5:
		score += 30
	case longStrings > 2:
		score += 15
	}

	if len(sample) > 0 {
		nonAlpha := 0
		for _, b := range sample {
			if !((b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == ' ' || b == '\n' || b == '\t') {
				nonAlpha++
			}
		}
		ratio := float64(nonAlpha) / float64(len(sample))
		switch {
		case ratio > 0.35:
			score += 20
		case ratio > 0.25:
			score += 10
		}
	}

	if len(identifierPattern.FindAllString(text, -1)) > 50 {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return score
}

// countSignatures returns matched signature kinds and how many of them
// are high severity
func countSignatures(text string) (total, highSeverity int) {
	for _, sig := range obfuscationSignatures {
		if sig.Pattern.MatchString(text) {
			total++
			if sig.HighSeverity {
				highSeverity++
			}
		}
	}
	return total, highSeverity
}

func countExfiltrationHits(text string) int {
	hits := 0
	for _, pattern := range exfiltrationPatterns {
		if pattern.MatchString(text) {
			hits++
		}
	}
	return hits
}

func scriptRisk(knownBad bool, score, signatures, highSeverity int) string {
	switch {
	case knownBad || score >= 60 || highSeverity >= 2:
		return "high"
	case score >= 30 || highSeverity >= 1 || signatures >= 3:
		return "medium"
	default:
		return "low"
	}
}

var scriptRiskRank = map[string]int{"high": 0, "medium": 1, "low": 2}

// analyzeScripts gathers intelligence on the non-CDN external scripts.
// Fetch failures produce a report row with the error instead of dropping
// the script silently.
func (s *Service) analyzeScripts(ctx context.Context, scriptURLs []string) []models.ScriptReport {
	var reports []models.ScriptReport
	fetched := 0

	for _, scriptURL := range scriptURLs {
		if fetched >= s.config.MaxScripts {
			break
		}
		if isCDNHost(hostOf(scriptURL)) {
			continue
		}
		fetched++

		body, err := s.fetchScript(ctx, scriptURL)
		if err != nil {
			reports = append(reports, models.ScriptReport{
				URL:        scriptURL,
				Risk:       "low",
				FetchError: err.Error(),
			})
			continue
		}

		sum := sha256.Sum256(body)
		hash := hex.EncodeToString(sum[:])
		knownBad := KnownBadHashes[hash]

		sample := body
		if len(sample) > s.config.ScriptMaxBytes {
			sample = sample[:s.config.ScriptMaxBytes]
		}
		text := string(sample)

		score := obfuscationScore(sample)
		signatures, highSeverity := countSignatures(text)

		reports = append(reports, models.ScriptReport{
			URL:                scriptURL,
			SHA256:             hash,
			KnownBad:           knownBad,
			SizeBytes:          len(body),
			Entropy:            roundTo(shannonEntropy(sample), 3),
			ObfuscationScore:   score,
			ObfuscationSignals: signatures,
			ExfiltrationHits:   countExfiltrationHits(text),
			Risk:               scriptRisk(knownBad, score, signatures, highSeverity),
		})
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return scriptRiskRank[reports[i].Risk] < scriptRiskRank[reports[j].Risk]
	})
	return reports
}

func roundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}

// nonCDNExternalDomains counts distinct external hosts off the CDN
// allowlist, relative to the crawled site.
func nonCDNExternalDomains(record *models.CrawlRecord) []string {
	siteHost := normalizeDomain(record.Hostname)
	seen := make(map[string]bool)
	var domains []string

	for _, req := range record.AllRequests() {
		host := hostOf(req.URL)
		if host == "" || isCDNHost(host) || strings.HasPrefix(req.URL, "data:") {
			continue
		}
		normalized := normalizeDomain(host)
		if normalized == siteHost || strings.HasSuffix(normalized, "."+siteHost) {
			continue
		}
		if !seen[normalized] {
			seen[normalized] = true
			domains = append(domains, normalized)
		}
	}
	return domains
}
