// Package analysis turns an aggregate crawl record into the privacy
// report: trackers, cookies, script intelligence, ownership, signals,
// and the score.
package analysis

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/models"
)

// Service runs the analysis pipeline. Apart from script fetching it is a
// pure function of the crawl record, so repeated runs over the same
// record produce the same report.
type Service struct {
	config     common.AnalysisConfig
	httpClient *http.Client
	logger     arbor.ILogger
}

// NewService creates the analysis pipeline
func NewService(config common.AnalysisConfig, logger arbor.ILogger) *Service {
	return &Service{
		config: config,
		httpClient: &http.Client{
			Timeout: config.ScriptFetchTimeout,
		},
		logger: logger,
	}
}

// Analyze produces the full report for one crawl record
func (s *Service) Analyze(ctx context.Context, record *models.CrawlRecord) (*models.AnalysisReport, error) {
	if record == nil {
		return nil, fmt.Errorf("nil crawl record")
	}

	trackers := detectTrackers(record)
	externalDomains := nonCDNExternalDomains(record)
	agg := collectAggregates(record, trackers, externalDomains)

	cookies := analyzeCookies(record.Cookies, record.Hostname, s.config.MaxCookieReports, time.Now())
	scripts := s.analyzeScripts(ctx, record.AllExternalScripts())
	ownership := buildOwnershipGraph(record.Hostname, externalDomains)
	signals := buildSignals(agg)

	score := computeScore(agg)
	riskLevel := models.RiskLevelForScore(score)

	report := &models.AnalysisReport{
		Score:               score,
		RiskLevel:           riskLevel,
		Summary:             buildSummary(record.Hostname, riskLevel, len(trackers), len(record.Cookies), len(externalDomains)),
		TrackerCount:        len(trackers),
		CookieCount:         len(record.Cookies),
		ExternalDomainCount: len(externalDomains),
		PagesCrawled:        record.PagesCrawled,
		IsHTTPS:             agg.IsHTTPS,
		HasCSP:              agg.HasCSP,
		CanvasFingerprint:   agg.Fingerprints.Canvas,
		WebGLFingerprint:    agg.Fingerprints.WebGL,
		FontFingerprint:     agg.Fingerprints.Font,
		Keylogger:           agg.Fingerprints.Keylogger,
		Trackers:            trackers,
		Cookies:             cookies,
		Scripts:             scripts,
		Ownership:           ownership,
		Signals:             signals,
	}

	s.logger.Info().
		Str("hostname", record.Hostname).
		Int("score", score).
		Str("risk", string(riskLevel)).
		Int("trackers", len(trackers)).
		Int("cookies", len(record.Cookies)).
		Msg("Analysis complete")
	return report, nil
}

func buildSummary(hostname string, risk models.RiskLevel, trackers, cookies, domains int) string {
	var posture string
	switch risk {
	case models.RiskLow:
		posture = "a strong privacy posture"
	case models.RiskModerate:
		posture = "a moderate privacy posture"
	case models.RiskElevated:
		posture = "elevated privacy risk"
	default:
		posture = "high privacy risk"
	}
	return fmt.Sprintf("%s shows %s: %d trackers, %d cookies, %d external domains contacted.",
		hostname, posture, trackers, cookies, domains)
}
