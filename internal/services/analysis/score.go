package analysis

// computeScore applies the fixed deduction table to the aggregates.
// The result is clamped to [0, 100].
func computeScore(agg aggregates) int {
	score := 100

	score -= 8 * len(agg.Trackers)
	if agg.CookieCount > 20 {
		score -= 10
	}
	if !agg.IsHTTPS {
		score -= 20
	}
	if agg.Fingerprints.Canvas {
		score -= 15
	}
	if agg.Fingerprints.WebGL {
		score -= 10
	}
	if agg.Fingerprints.Font {
		score -= 8
	}
	if agg.Fingerprints.Keylogger {
		score -= 15
	}
	if agg.Fingerprints.FormSnooping {
		score -= 8
	}
	if agg.BeaconCount > 0 {
		score -= 8
	}
	if agg.Fingerprints.ServiceWorker {
		score -= 5
	}
	if agg.TrackingParamCount > 0 {
		score -= 10
	}
	if !agg.HasCSP {
		score -= 5
	}
	if agg.InlineTrackerCount > 0 {
		score -= 5
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
