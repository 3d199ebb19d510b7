package lotcrawl

import (
	"context"
	"time"
)

// Run is the audit record for one crawl attempt against one target. Rows
// are keyed by (RunDate, TargetSlug) and upserted: a rerun on the same day
// overwrites the earlier row, last writer wins.
type Run struct {
	ID         string `json:"id"`
	RunDate    string `json:"runDate"` // YYYY-MM-DD
	TargetSlug string `json:"targetSlug"`

	VehiclesFound    int            `json:"vehiclesFound"`
	VehiclesIngested int            `json:"vehiclesIngested"`
	VehiclesDropped  int            `json:"vehiclesDropped"`
	DropReasons      map[string]int `json:"dropReasons,omitempty"`

	// Error holds the fetch or pipeline error for the run, empty on
	// success.
	Error string `json:"error,omitempty"`

	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
}

// Validate returns an error if the run contains invalid fields.
func (r *Run) Validate() error {
	if r.TargetSlug == "" {
		return Errorf(EINVALID, "run target slug required")
	}
	if r.RunDate == "" {
		return Errorf(EINVALID, "run date required")
	}
	return nil
}

// RunDateFormat is the layout for Run.RunDate values.
const RunDateFormat = "2006-01-02"

// RunService represents the crawl-run audit store.
type RunService interface {
	// UpsertRun inserts the run or replaces the existing row with the
	// same (RunDate, TargetSlug) key.
	UpsertRun(ctx context.Context, run *Run) error

	// FindRecentRuns retrieves up to limit runs for a target with
	// RunDate strictly before the given date, most recent first. This is
	// the health monitor's baseline query.
	FindRecentRuns(ctx context.Context, targetSlug string, before string, limit int) ([]*Run, error)

	// SetIngested records the ingest collaborator's accepted count on an
	// already-written run row.
	SetIngested(ctx context.Context, runDate, targetSlug string, ingested int) error
}
