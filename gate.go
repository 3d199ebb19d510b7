package lotcrawl

import (
	"regexp"
	"strings"
)

// Drop reasons produced by the quality gate. Each rejected candidate
// contributes to exactly one reason.
const (
	DropMissingListingID  = "missing_listing_id"
	DropUnstableListingID = "unstable_listing_id"
	DropMissingURL        = "missing_url"
	DropMissingPrice      = "missing_price"
	DropPriceOutOfRange   = "price_out_of_range"
	DropYearTooOld        = "year_too_old"
	DropMissingMakeModel  = "missing_make_model"
	DropModelEqualsMake   = "model_equals_make"
)

// GateResult is the outcome of running a candidate set through the quality
// gate. Passed preserves input order minus the rejects; the reason counts
// always sum to DroppedCount.
type GateResult struct {
	Passed       []*Record      `json:"passed"`
	DroppedCount int            `json:"droppedCount"`
	DropReasons  map[string]int `json:"dropReasons"`
}

// Gate applies the ordered rejection rules that protect the record store
// from bad data. Apply is pure and deterministic: identical input always
// yields identical output.
type Gate struct {
	// MinPrice and MaxPrice bound the plausible price band in whole
	// currency units.
	MinPrice int
	MaxPrice int

	// MinYear is the dealer-grade year cutoff.
	MinYear int
}

// DefaultGate returns a Gate with the production thresholds.
func DefaultGate() *Gate {
	return &Gate{
		MinPrice: 3000,
		MaxPrice: 150000,
		MinYear:  2000,
	}
}

// Apply evaluates each candidate against the rule sequence, short-circuiting
// on the first failed rule so each reject lands under a single reason.
// Strict targets additionally require a dedupe-grade source identifier.
func (g *Gate) Apply(candidates []*Record, target *Target) *GateResult {
	result := &GateResult{
		DropReasons: make(map[string]int),
	}

	for _, c := range candidates {
		if reason := g.check(c, target); reason != "" {
			result.DroppedCount++
			result.DropReasons[reason]++
			continue
		}
		result.Passed = append(result.Passed, c)
	}

	return result
}

// check returns the first failed rule's drop reason, or "" if the candidate
// passes.
func (g *Gate) check(c *Record, target *Target) string {
	if strings.TrimSpace(c.SourceListingID) == "" {
		return DropMissingListingID
	}
	if target != nil && target.RequireStableID && !IsStableID(c.SourceListingID) {
		return DropUnstableListingID
	}
	if strings.TrimSpace(c.ListingURL) == "" {
		return DropMissingURL
	}
	if c.Price <= 0 {
		return DropMissingPrice
	}
	if c.Price < g.MinPrice || c.Price > g.MaxPrice {
		return DropPriceOutOfRange
	}
	if c.Year < g.MinYear {
		return DropYearTooOld
	}
	if !wellFormedMake(c.Make) || !wellFormedName(c.Model) {
		return DropMissingMakeModel
	}
	if strings.EqualFold(strings.TrimSpace(c.Make), strings.TrimSpace(c.Model)) {
		return DropModelEqualsMake
	}
	return ""
}

// makePattern admits alphabetic manufacturer names with internal spaces or
// hyphens ("Alfa Romeo", "Mercedes-Benz").
var makePattern = regexp.MustCompile(`^[A-Za-z]+(?:[ -][A-Za-z]+)*$`)

// wellFormedMake reports whether a make value is an alphabetic name of
// sane length. The same shape every extraction strategy is held to.
func wellFormedMake(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) <= 40 && makePattern.MatchString(s)
}

// wellFormedName reports whether a model value is present and minimally
// plausible: non-empty after trimming and short enough to be a name rather
// than a description blob. Models stay loose since they are legitimately
// alphanumeric ("F-150", "208").
func wellFormedName(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && len(s) <= 40
}
