package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/vigil/internal/models"
)

func signalMessages(signals []models.SecuritySignal) []string {
	messages := make([]string, 0, len(signals))
	for _, s := range signals {
		messages = append(messages, s.Message)
	}
	return messages
}

func hasSignal(signals []models.SecuritySignal, sigType models.SignalType, category string) bool {
	for _, s := range signals {
		if s.Type == sigType && s.Category == category {
			return true
		}
	}
	return false
}

func TestBuildSignals_CleanSite(t *testing.T) {
	agg := aggregates{IsHTTPS: true, HasCSP: true, CSPHeader: "default-src 'self'"}
	signals := buildSignals(agg)

	assert.True(t, hasSignal(signals, models.SignalSafe, "transport"))
	assert.True(t, hasSignal(signals, models.SignalInfo, "headers"))
	assert.False(t, hasSignal(signals, models.SignalDanger, "fingerprinting"))
}

func TestBuildSignals_CSPUnsafeFlags(t *testing.T) {
	agg := aggregates{IsHTTPS: true, HasCSP: true, CSPHeader: "script-src 'unsafe-inline' 'unsafe-eval'"}
	messages := signalMessages(buildSignals(agg))
	assert.Contains(t, messages, "CSP allows unsafe-inline scripts")
	assert.Contains(t, messages, "CSP allows unsafe-eval")
}

func TestBuildSignals_SurveillanceFlags(t *testing.T) {
	agg := aggregates{
		IsHTTPS: true,
		Fingerprints: models.FingerprintFlags{
			Canvas: true, WebGL: true, Font: true, Keylogger: true, FormSnooping: true, ServiceWorker: true,
		},
		BeaconCount:    2,
		WebSocketCount: 1,
	}
	signals := buildSignals(agg)

	assert.True(t, hasSignal(signals, models.SignalDanger, "fingerprinting"))
	assert.True(t, hasSignal(signals, models.SignalWarning, "fingerprinting"))
	assert.True(t, hasSignal(signals, models.SignalDanger, "surveillance"))
	assert.True(t, hasSignal(signals, models.SignalWarning, "exfiltration"))
	assert.True(t, hasSignal(signals, models.SignalInfo, "network"))
	assert.True(t, hasSignal(signals, models.SignalInfo, "persistence"))
}

func TestBuildSignals_ExternalDomainTiers(t *testing.T) {
	for _, tt := range []struct {
		count int
		want  models.SignalType
	}{
		{12, models.SignalDanger},
		{7, models.SignalWarning},
		{2, models.SignalInfo},
	} {
		agg := aggregates{IsHTTPS: true, ExternalDomainCount: tt.count}
		assert.True(t, hasSignal(buildSignals(agg), tt.want, "third-parties"), "count %d", tt.count)
	}
}

func TestBuildSignals_CookieTiers(t *testing.T) {
	agg := aggregates{IsHTTPS: true, CookieCount: 25}
	assert.True(t, hasSignal(buildSignals(agg), models.SignalWarning, "cookies"))

	agg.CookieCount = 5
	assert.True(t, hasSignal(buildSignals(agg), models.SignalInfo, "cookies"))

	agg.CookieCount = 0
	assert.False(t, hasSignal(buildSignals(agg), models.SignalInfo, "cookies"))
}

func TestComputeScore_Deductions(t *testing.T) {
	// Pristine site loses only the missing-CSP deduction
	assert.Equal(t, 95, computeScore(aggregates{IsHTTPS: true}))
	assert.Equal(t, 100, computeScore(aggregates{IsHTTPS: true, HasCSP: true}))

	// -8 per tracker
	agg := aggregates{IsHTTPS: true, HasCSP: true, Trackers: make([]models.TrackerFinding, 3)}
	assert.Equal(t, 76, computeScore(agg))

	// No HTTPS is the single largest deduction
	assert.Equal(t, 75, computeScore(aggregates{HasCSP: true}))
}

func TestComputeScore_FloorAtZero(t *testing.T) {
	agg := aggregates{
		Trackers:    make([]models.TrackerFinding, 10),
		CookieCount: 30,
		Fingerprints: models.FingerprintFlags{
			Canvas: true, WebGL: true, Font: true, Keylogger: true, FormSnooping: true, ServiceWorker: true,
		},
		BeaconCount:        5,
		TrackingParamCount: 9,
		InlineTrackerCount: 2,
	}
	assert.Equal(t, 0, computeScore(agg))
}
