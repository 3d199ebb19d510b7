package lotcrawl

import (
	"regexp"
	"strings"
)

// Source-identifier shapes trusted for downstream dedup. An unstable id
// (a row index, a non-unique label) would silently merge unrelated vehicles
// in the record store, so classification is a hard gate rather than a
// warning.
var (
	// 17-character VIN: alphanumeric excluding I, O, and Q.
	vinPattern = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)

	// Tail of a VIN, used by the vin- prefixed short form.
	vinTailPattern = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{4,17}$`)

	// Dealer stock numbers: alphanumeric, hyphens allowed, 4-24 chars.
	stockPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]{2,22}[A-Za-z0-9]$`)

	// Purely numeric ids are only trusted in a 4-10 digit band; shorter
	// looks like an index, longer looks like a timestamp.
	numericPattern = regexp.MustCompile(`^[0-9]{4,10}$`)

	allDigits = regexp.MustCompile(`^[0-9]+$`)
)

// IsStableID reports whether a source listing identifier is trustworthy
// enough to dedupe on: VIN-shaped, vin- prefixed short form, stock-number
// shaped, or purely numeric within a sane length band.
func IsStableID(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}

	if vinPattern.MatchString(strings.ToUpper(id)) {
		return true
	}
	if tail, ok := strings.CutPrefix(strings.ToLower(id), "vin-"); ok {
		return vinTailPattern.MatchString(strings.ToUpper(tail))
	}
	if allDigits.MatchString(id) {
		return numericPattern.MatchString(id)
	}
	return stockPattern.MatchString(id)
}
