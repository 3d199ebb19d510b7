package lotcrawl

// AlertType classifies a health-monitor finding.
type AlertType string

// Alert types, in evaluation priority order. Hard failures (errors from a
// high-impact target, zero yield from an anchor) outrank statistical drift
// since they are unambiguous regardless of history depth.
const (
	AlertNone      AlertType = "none"
	AlertErrors    AlertType = "errors"
	AlertZeroFound AlertType = "zero_found"
	AlertDrop50Pct AlertType = "drop_50pct"
)

// HealthResult is the transient outcome of a yield health check for one
// target's current run.
type HealthResult struct {
	Alert       bool      `json:"alert"`
	AlertType   AlertType `json:"alertType"`
	BaselineAvg *float64  `json:"baselineAvg,omitempty"`
}

// minBaselineRuns is the history depth required before statistical checks
// apply; fewer runs would false-positive on new targets.
const minBaselineRuns = 3

// CheckHealth compares a target's current run yield against its trailing
// run history. history holds the most recent prior runs, newest first, at
// most seven. Checks are evaluated in priority order and the first match
// wins.
func CheckHealth(target *Target, currentFound, currentErrors int, history []*Run) *HealthResult {
	if target.HighImpact() && currentErrors > 0 {
		return &HealthResult{Alert: true, AlertType: AlertErrors}
	}
	if target.IsAnchor && currentFound == 0 {
		return &HealthResult{Alert: true, AlertType: AlertZeroFound}
	}
	if len(history) < minBaselineRuns {
		return &HealthResult{AlertType: AlertNone}
	}

	if len(history) > 7 {
		history = history[:7]
	}
	var sum int
	for _, run := range history {
		sum += run.VehiclesFound
	}
	avg := float64(sum) / float64(len(history))

	result := &HealthResult{AlertType: AlertNone, BaselineAvg: &avg}
	if avg > 0 && float64(currentFound) < avg*0.5 {
		result.Alert = true
		result.AlertType = AlertDrop50Pct
	}
	return result
}
