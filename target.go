package lotcrawl

import (
	"context"
	"time"
)

// Strategy identifies the extraction algorithm used to turn a target's raw
// page content into candidate records. Strategies are configured per target
// at registration time and never auto-detected at run time, so a misbehaving
// site cannot silently route through the wrong parser.
type Strategy string

// Known extraction strategies.
const (
	// StrategyAttr extracts repeated HTML blocks carrying a fixed set of
	// data attributes (stock number, price, year, make, model).
	StrategyAttr Strategy = "attr"

	// StrategyDense extracts denser multi-pattern blocks using ordered
	// fallback heuristics per field.
	StrategyDense Strategy = "dense"

	// StrategyJSONLD extracts embedded structured linked-data blocks.
	StrategyJSONLD Strategy = "jsonld"

	// StrategyUnsupported marks a target whose publishing platform has no
	// extractor yet. Such targets are skipped without affecting their
	// failure streak.
	StrategyUnsupported Strategy = "unsupported"
)

// Valid reports whether s is a known strategy tag.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyAttr, StrategyDense, StrategyJSONLD, StrategyUnsupported:
		return true
	}
	return false
}

// Priority buckets for crawl ordering. Anchor and high-priority targets are
// processed first within a run.
const (
	PriorityHigh   = "high"
	PriorityNormal = "normal"
	PriorityLow    = "low"
)

// ValidationStatus is a target's position in the validation lifecycle.
type ValidationStatus string

// Validation lifecycle states.
const (
	// ValidationPending is the initial state; the target is still
	// accumulating evidence.
	ValidationPending ValidationStatus = "pending"

	// ValidationPassed means the target is trusted for regular crawling.
	ValidationPassed ValidationStatus = "passed"

	// ValidationFailed is transient; a failed target can still be enabled
	// until its failure streak reaches the disable threshold.
	ValidationFailed ValidationStatus = "failed"
)

// Target represents one dealer website (a "rooftop") configured to be
// crawled.
//
// Enabled and ValidationStatus are overlapping but distinct signals:
// ValidationStatus=passed means the target was eligible to be auto-enabled,
// while Enabled can still be toggled independently by an operator. The state
// machine reads the current Enabled value and DisabledReason before acting,
// so it never re-disables an already-disabled target and never overrides an
// operator's manual disable with an auto-enable (see OperatorDisabled).
type Target struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	FetchURL string `json:"fetchUrl"`

	// Location defaults inherited by every record extracted from this
	// target.
	Suburb   string `json:"suburb"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
	Region   string `json:"region"`

	Strategy Strategy `json:"strategy"`
	Enabled  bool     `json:"enabled"`
	IsAnchor bool     `json:"isAnchor"`
	Priority string   `json:"priority"`

	// RequireStableID makes the quality gate insist on a dedupe-grade
	// source identifier (VIN or stock-number shaped) for this target.
	RequireStableID bool `json:"requireStableId"`

	ValidationStatus     ValidationStatus `json:"validationStatus"`
	ValidationRunCount   int              `json:"validationRunCount"`
	ConsecutiveFailures  int              `json:"consecutiveFailures"`
	ConsecutiveSuccesses int              `json:"consecutiveSuccesses"`

	DisabledReason string     `json:"disabledReason,omitempty"`
	DisabledAt     *time.Time `json:"disabledAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate returns an error if the target contains invalid fields.
func (t *Target) Validate() error {
	if t.Slug == "" {
		return Errorf(EINVALID, "target slug required")
	}
	if t.Name == "" {
		return Errorf(EINVALID, "target name required")
	}
	if t.FetchURL == "" {
		return Errorf(EINVALID, "target fetch URL required")
	}
	if !t.Strategy.Valid() {
		return Errorf(EINVALID, "unknown extraction strategy %q", t.Strategy)
	}
	return nil
}

// HighImpact reports whether the target warrants strict health alerting.
func (t *Target) HighImpact() bool {
	return t.IsAnchor || t.Priority == PriorityHigh
}

// OperatorDisabled reports whether the target was disabled by hand rather
// than by the validation state machine.
func (t *Target) OperatorDisabled() bool {
	return !t.Enabled && t.DisabledReason != "" && t.DisabledReason != AutoDisableReason
}

// TargetService represents the target registry.
type TargetService interface {
	// CreateTarget registers a new target.
	// Returns ECONFLICT if the slug is already registered.
	CreateTarget(ctx context.Context, target *Target) error

	// FindTargetBySlug retrieves a target by slug.
	// Returns ENOTFOUND if the target does not exist.
	FindTargetBySlug(ctx context.Context, slug string) (*Target, error)

	// FindTargets retrieves targets matching the filter, ordered with
	// anchor and high-priority targets first.
	FindTargets(ctx context.Context, filter TargetFilter) ([]*Target, error)

	// UpdateTarget updates an existing target.
	// Returns ENOTFOUND if the target does not exist.
	UpdateTarget(ctx context.Context, slug string, upd TargetUpdate) (*Target, error)
}

// TargetFilter represents a filter for FindTargets.
type TargetFilter struct {
	Slugs            []string          `json:"slugs"`
	Enabled          *bool             `json:"enabled"`
	ValidationStatus *ValidationStatus `json:"validationStatus"`

	// MaxValidationRuns keeps only targets whose ValidationRunCount is
	// strictly below the cap. Zero means no cap.
	MaxValidationRuns int `json:"maxValidationRuns"`

	Limit int `json:"limit"`
}

// TargetUpdate represents fields that can be updated on a target. Nil
// pointers leave the corresponding field unchanged.
type TargetUpdate struct {
	Name     *string `json:"name"`
	FetchURL *string `json:"fetchUrl"`
	Enabled  *bool   `json:"enabled"`

	ValidationStatus     *ValidationStatus `json:"validationStatus"`
	ValidationRunCount   *int              `json:"validationRunCount"`
	ConsecutiveFailures  *int              `json:"consecutiveFailures"`
	ConsecutiveSuccesses *int              `json:"consecutiveSuccesses"`
	DisabledReason       *string           `json:"disabledReason"`
	DisabledAt           *time.Time        `json:"disabledAt"`

	// ClearDisabledAt zeroes the disable timestamp. A nil DisabledAt
	// means "leave unchanged", so clearing needs its own signal.
	ClearDisabledAt bool `json:"clearDisabledAt,omitempty"`
}
