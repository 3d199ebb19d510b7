// Package crawl provides the crawl orchestration loop. It selects eligible
// targets, fetches and extracts each one, runs the quality gate and health
// check, persists the per-run audit record, advances validation state, and
// hands validated batches to the ingest collaborator.
package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mackayauctioneers-design/lotcrawl"
)

// Mode selects how the orchestrator resolves its target set.
type Mode string

// Operational entry modes.
const (
	// ModeCron crawls enabled, validation-passed targets up to the batch
	// cap.
	ModeCron Mode = "cron"

	// ModeValidate crawls pending and failed targets still under the
	// validation run cap.
	ModeValidate Mode = "validate"

	// ModeManual crawls an explicit slug list.
	ModeManual Mode = "manual"
)

// Config holds the orchestrator's tunables.
type Config struct {
	// CronBatchSize caps how many targets one cron invocation processes.
	CronBatchSize int

	// ValidationRunCap stops re-validating targets that have already
	// accumulated this many runs.
	ValidationRunCap int

	// HistoryLimit is how many prior runs feed the health baseline.
	HistoryLimit int
}

// DefaultConfig returns the production tunables.
func DefaultConfig() Config {
	return Config{
		CronBatchSize:    25,
		ValidationRunCap: 14,
		HistoryLimit:     7,
	}
}

// Orchestrator runs the crawl pipeline over a set of targets. Targets are
// processed sequentially, each gated behind the per-host rate limiter, so
// audit writes and validation updates for one target never race.
type Orchestrator struct {
	Targets    lotcrawl.TargetService
	Runs       lotcrawl.RunService
	Fetcher    lotcrawl.Fetcher
	Extractors lotcrawl.ExtractorRegistry
	Ingestor   lotcrawl.Ingestor
	Gate       *lotcrawl.Gate
	Limiter    *HostLimiter
	Logger     *slog.Logger
	Config     Config

	// Snapshots, when set, archives each successfully fetched page.
	Snapshots lotcrawl.SnapshotStore

	// Now is the clock, overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

// TargetResult records what happened to one target within a run.
type TargetResult struct {
	Slug    string `json:"slug"`
	Skipped bool   `json:"skipped,omitempty"`

	Found    int            `json:"found"`
	Ingested int            `json:"ingested"`
	Dropped  int            `json:"dropped"`
	Reasons  map[string]int `json:"dropReasons,omitempty"`
	Error    string         `json:"error,omitempty"`

	Alert    lotcrawl.AlertType `json:"alert,omitempty"`
	Promoted bool               `json:"promoted,omitempty"`
	Disabled bool               `json:"disabled,omitempty"`
}

// Summary aggregates one orchestrator invocation.
type Summary struct {
	Mode             Mode            `json:"mode"`
	TargetsProcessed int             `json:"targetsProcessed"`
	TargetsSkipped   int             `json:"targetsSkipped"`
	TotalFound       int             `json:"totalFound"`
	TotalIngested    int             `json:"totalIngested"`
	TotalDropped     int             `json:"totalDropped"`
	TargetsWithError int             `json:"targetsWithError"`
	TargetsWithAlert int             `json:"targetsWithAlert"`
	TargetsPromoted  int             `json:"targetsPromoted"`
	TargetsDisabled  int             `json:"targetsDisabled"`
	Results          []*TargetResult `json:"results"`
	StartedAt        time.Time       `json:"startedAt"`
	CompletedAt      time.Time       `json:"completedAt"`
}

// Run resolves the target set for the mode and processes each target in
// priority order. A canceled context abandons remaining targets cleanly;
// the target in flight completes its audit write first.
func (o *Orchestrator) Run(ctx context.Context, mode Mode, slugs []string) (*Summary, error) {
	targets, err := o.resolveTargets(ctx, mode, slugs)
	if err != nil {
		return nil, err
	}
	return o.process(ctx, mode, targets), nil
}

// resolveTargets selects the candidate target set for a mode.
func (o *Orchestrator) resolveTargets(ctx context.Context, mode Mode, slugs []string) ([]*lotcrawl.Target, error) {
	switch mode {
	case ModeCron:
		enabled := true
		status := lotcrawl.ValidationPassed
		return o.Targets.FindTargets(ctx, lotcrawl.TargetFilter{
			Enabled:          &enabled,
			ValidationStatus: &status,
			Limit:            o.Config.CronBatchSize,
		})

	case ModeValidate:
		var targets []*lotcrawl.Target
		for _, status := range []lotcrawl.ValidationStatus{lotcrawl.ValidationPending, lotcrawl.ValidationFailed} {
			status := status
			batch, err := o.Targets.FindTargets(ctx, lotcrawl.TargetFilter{
				ValidationStatus:  &status,
				MaxValidationRuns: o.Config.ValidationRunCap,
			})
			if err != nil {
				return nil, err
			}
			targets = append(targets, batch...)
		}
		return targets, nil

	case ModeManual:
		if len(slugs) == 0 {
			return nil, lotcrawl.Errorf(lotcrawl.EINVALID, "manual mode requires at least one target slug")
		}
		return o.Targets.FindTargets(ctx, lotcrawl.TargetFilter{Slugs: slugs})
	}

	return nil, lotcrawl.Errorf(lotcrawl.EINVALID, "unknown mode %q", mode)
}

// process runs the per-target pipeline over an already-resolved target set.
func (o *Orchestrator) process(ctx context.Context, mode Mode, targets []*lotcrawl.Target) *Summary {
	summary := &Summary{Mode: mode, StartedAt: o.now()}

	for _, target := range targets {
		// Abort remaining targets on cancellation; the current target
		// is never interrupted mid-pipeline.
		if ctx.Err() != nil {
			break
		}
		summary.add(o.processTarget(ctx, target))
	}

	summary.CompletedAt = o.now()
	return summary
}

// add folds one target's result into the aggregate.
func (s *Summary) add(result *TargetResult) {
	s.Results = append(s.Results, result)
	if result.Skipped {
		s.TargetsSkipped++
		return
	}
	s.TargetsProcessed++
	s.TotalFound += result.Found
	s.TotalIngested += result.Ingested
	s.TotalDropped += result.Dropped
	if result.Error != "" {
		s.TargetsWithError++
	}
	if result.Alert != "" && result.Alert != lotcrawl.AlertNone {
		s.TargetsWithAlert++
	}
	if result.Promoted {
		s.TargetsPromoted++
	}
	if result.Disabled {
		s.TargetsDisabled++
	}
}

// processTarget runs the full pipeline for one target. It never returns an
// error: per-target failures are isolated into the result so one broken
// site cannot abort the loop.
func (o *Orchestrator) processTarget(ctx context.Context, target *lotcrawl.Target) (result *TargetResult) {
	result = &TargetResult{Slug: target.Slug}

	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Sprintf("panic: %v", r)
			o.logger().Error("target panicked", "target", target.Slug, "panic", r)
		}
	}()

	extractor := o.Extractors.Get(target.Strategy)
	if target.Strategy == lotcrawl.StrategyUnsupported || extractor == nil {
		// A configuration state, not a failure: no audit row, no
		// validation update.
		result.Skipped = true
		o.logger().Info("skipping unsupported target", "target", target.Slug, "strategy", target.Strategy)
		return result
	}

	if o.Limiter != nil {
		if err := o.Limiter.Wait(ctx, target.FetchURL); err != nil {
			result.Skipped = true
			return result
		}
	}

	startedAt := o.now()
	runDate := startedAt.UTC().Format(lotcrawl.RunDateFormat)

	var candidates []*lotcrawl.Record
	var runErr error

	html, runErr := o.Fetcher.Fetch(ctx, target.FetchURL)
	if runErr == nil {
		if o.Snapshots != nil {
			if err := o.Snapshots.SaveSnapshot(ctx, target.Slug, runDate, html); err != nil {
				o.logger().Error("snapshot write failed", "target", target.Slug, "err", err)
			}
		}
		candidates, runErr = extractor.Extract(html, target)
	}

	gated := o.Gate.Apply(candidates, target)
	result.Found = len(gated.Passed)
	result.Dropped = gated.DroppedCount
	result.Reasons = gated.DropReasons
	if runErr != nil {
		result.Error = runErr.Error()
	}

	// The baseline must be read before this run's row is written.
	errorCount := 0
	if runErr != nil {
		errorCount = 1
	}
	history, err := o.Runs.FindRecentRuns(ctx, target.Slug, runDate, o.Config.HistoryLimit)
	if err != nil {
		o.logger().Error("history query failed", "target", target.Slug, "err", err)
	}
	health := lotcrawl.CheckHealth(target, result.Found, errorCount, history)
	result.Alert = health.AlertType
	if health.Alert {
		o.logger().Warn("health alert",
			"target", target.Slug,
			"alert", health.AlertType,
			"found", result.Found,
			"baseline", health.BaselineAvg,
		)
	}

	run := &lotcrawl.Run{
		RunDate:         runDate,
		TargetSlug:      target.Slug,
		VehiclesFound:   result.Found,
		VehiclesDropped: result.Dropped,
		DropReasons:     gated.DropReasons,
		Error:           result.Error,
		StartedAt:       startedAt,
		CompletedAt:     o.now(),
	}
	if err := o.Runs.UpsertRun(ctx, run); err != nil {
		o.logger().Error("audit write failed", "target", target.Slug, "err", err)
	}

	o.updateValidation(ctx, target, lotcrawl.RunOutcome{
		VehiclesFound: result.Found,
		HadError:      runErr != nil,
	}, result)

	// Hand off only clean, non-empty batches. An ingest failure is
	// logged but never rolls back the audit row; the run keeps
	// ingested=0.
	if runErr == nil && len(gated.Passed) > 0 && o.Ingestor != nil {
		ingested, err := o.Ingestor.Ingest(ctx, target.Slug, gated.Passed)
		if err != nil {
			o.logger().Error("ingest failed", "target", target.Slug, "err", err)
		} else {
			result.Ingested = ingested.Total()
			if err := o.Runs.SetIngested(ctx, runDate, target.Slug, result.Ingested); err != nil {
				o.logger().Error("ingest count write failed", "target", target.Slug, "err", err)
			}
		}
	}

	return result
}

// updateValidation advances the state machine and persists the target's
// lifecycle fields.
func (o *Orchestrator) updateValidation(ctx context.Context, target *lotcrawl.Target, outcome lotcrawl.RunOutcome, result *TargetResult) {
	transition := lotcrawl.ApplyRunOutcome(target, outcome, o.now())
	result.Promoted = transition.Promoted
	result.Disabled = transition.Disabled

	if transition.Promoted {
		o.logger().Info("target promoted", "target", target.Slug)
	}
	if transition.Disabled {
		o.logger().Warn("target auto-disabled", "target", target.Slug, "failures", target.ConsecutiveFailures)
	}

	upd := lotcrawl.TargetUpdate{
		Enabled:              &target.Enabled,
		ValidationStatus:     &target.ValidationStatus,
		ValidationRunCount:   &target.ValidationRunCount,
		ConsecutiveFailures:  &target.ConsecutiveFailures,
		ConsecutiveSuccesses: &target.ConsecutiveSuccesses,
		DisabledReason:       &target.DisabledReason,
	}
	if target.DisabledAt != nil {
		upd.DisabledAt = target.DisabledAt
	} else {
		upd.ClearDisabledAt = true
	}
	_, err := o.Targets.UpdateTarget(ctx, target.Slug, upd)
	if err != nil {
		o.logger().Error("validation update failed", "target", target.Slug, "err", err)
	}
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}
