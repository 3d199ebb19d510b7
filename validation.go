package lotcrawl

import "time"

// Auto-enable/auto-disable thresholds. The asymmetry is deliberate:
// enabling is cheap to reconsider (the next run confirms or rejects it)
// while disabling stops wasted fetches against a site that has likely
// changed structurally, so shutdown requires a longer streak.
const (
	// PromoteAfterSuccesses consecutive successes promote a target to
	// passed and auto-enable it.
	PromoteAfterSuccesses = 2

	// DisableAfterFailures consecutive failures auto-disable an enabled
	// target.
	DisableAfterFailures = 3
)

// AutoDisableReason marks a disable as the state machine's own doing, as
// opposed to an operator's. Only auto-disables may be auto-reversed.
const AutoDisableReason = "auto-disabled after consecutive failed validation runs"

// RunOutcome is the state machine's per-run input.
type RunOutcome struct {
	VehiclesFound int
	HadError      bool
}

// Failure reports whether the run counts as a validation failure: an error
// outcome or a zero-yield crawl.
func (o RunOutcome) Failure() bool {
	return o.HadError || o.VehiclesFound == 0
}

// Transition describes what ApplyRunOutcome did to a target.
type Transition struct {
	Promoted bool `json:"promoted"`
	Disabled bool `json:"disabled"`
}

// ApplyRunOutcome advances a target's validation lifecycle for one run and
// mutates the target's lifecycle fields in place. The caller persists the
// target afterwards; per-target read-modify-write must not run concurrently
// for one target.
//
// Exactly one of ConsecutiveFailures/ConsecutiveSuccesses tracks the
// current streak; the other is always zero.
func ApplyRunOutcome(target *Target, outcome RunOutcome, now time.Time) Transition {
	var tr Transition
	target.ValidationRunCount++

	if outcome.Failure() {
		target.ConsecutiveFailures++
		target.ConsecutiveSuccesses = 0
		target.ValidationStatus = ValidationFailed

		// Auto-disable only acts on a currently enabled target, so an
		// operator's manual disable is never overwritten or repeated.
		if target.ConsecutiveFailures >= DisableAfterFailures && target.Enabled {
			target.Enabled = false
			target.DisabledReason = AutoDisableReason
			disabledAt := now
			target.DisabledAt = &disabledAt
			tr.Disabled = true
		}
		return tr
	}

	target.ConsecutiveFailures = 0
	target.ConsecutiveSuccesses++

	if target.ValidationStatus != ValidationPassed {
		if target.ConsecutiveSuccesses >= PromoteAfterSuccesses {
			target.ValidationStatus = ValidationPassed
			// Auto-enable reverses auto-disables only. An operator's
			// manual disable outlives any validation streak.
			if !target.OperatorDisabled() {
				target.Enabled = true
				target.DisabledReason = ""
				target.DisabledAt = nil
			}
			tr.Promoted = true
		} else {
			// First success in a streak: still accumulating evidence.
			target.ValidationStatus = ValidationPending
		}
	}
	return tr
}
