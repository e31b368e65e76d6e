package models

import (
	"encoding/json"
	"time"
)

// RiskLevel buckets the privacy score
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskElevated RiskLevel = "ELEVATED"
	RiskHigh     RiskLevel = "HIGH"
)

// RiskLevelForScore derives the risk level from a privacy score.
// Thresholds are fixed: >=80 LOW, >=60 MODERATE, >=40 ELEVATED, else HIGH.
func RiskLevelForScore(score int) RiskLevel {
	switch {
	case score >= 80:
		return RiskLow
	case score >= 60:
		return RiskModerate
	case score >= 40:
		return RiskElevated
	default:
		return RiskHigh
	}
}

// ScanResult is the persisted outcome of a successful scan.
// One-to-one with a SUCCESS ScanJob; created in the same transaction that
// moves the job to SUCCESS and cascade-deleted with it.
type ScanResult struct {
	ID        string `db:"id" json:"id"`
	ScanJobID string `db:"scan_job_id" json:"scanJobId"`

	Score     int       `db:"score" json:"score"`
	RiskLevel RiskLevel `db:"risk_level" json:"riskLevel"`
	Summary   string    `db:"summary" json:"summary"`

	TrackerCount        int `db:"tracker_count" json:"trackerCount"`
	CookieCount         int `db:"cookie_count" json:"cookieCount"`
	ExternalDomainCount int `db:"external_domain_count" json:"externalDomainCount"`
	PagesCrawled        int `db:"pages_crawled" json:"pagesCrawled"`

	IsHTTPS           bool `db:"is_https" json:"isHttps"`
	HasCSP            bool `db:"has_csp" json:"hasCsp"`
	CanvasFingerprint bool `db:"canvas_fingerprint" json:"canvasFingerprint"`
	WebGLFingerprint  bool `db:"webgl_fingerprint" json:"webglFingerprint"`
	FontFingerprint   bool `db:"font_fingerprint" json:"fontFingerprint"`
	Keylogger         bool `db:"keylogger" json:"keylogger"`

	// RawData is the full analysis report (models.AnalysisReport) as JSON
	RawData   json.RawMessage `db:"raw_data" json:"rawData"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}
