// Package metrics provides application-level counters using stdlib expvar.
// Counters are automatically exported on the /debug/vars HTTP endpoint
// when net/http/pprof is imported in the main binary.
package metrics

import "expvar"

// Operation counters.
var (
	ScanTotal       = expvar.NewInt("pulse_scan_total")
	AlertsEmitted   = expvar.NewInt("pulse_alerts_emitted_total")
	NudgeTotal      = expvar.NewInt("pulse_nudge_total")
	DismissTotal    = expvar.NewInt("pulse_dismiss_total")
	ScoreTotal      = expvar.NewInt("pulse_compliance_score_total")
	DraftTotal      = expvar.NewInt("pulse_draft_total")
	NarrationErrors = expvar.NewInt("pulse_narration_errors_total")
)

// Inc increments the given counter by 1.
func Inc(counter *expvar.Int) { counter.Add(1) }
