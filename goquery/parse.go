package goquery

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// fieldExtractor resolves a single field from a listing block. Extractors
// are composed into ordered fallback chains with firstMatch, so each
// heuristic stays testable in isolation.
type fieldExtractor func() (value string, ok bool)

// firstMatch runs extractors in order and returns the first non-empty hit.
func firstMatch(extractors ...fieldExtractor) (string, bool) {
	for _, extract := range extractors {
		if value, ok := extract(); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}

// titleParts is a vehicle title resolved from a "<year> <make> <model>
// <rest...>" string.
type titleParts struct {
	Year    int
	Make    string
	Model   string
	Variant string
}

// "2019 Toyota Hilux SR5 4x4" - year, single-token make, single-token
// model, optional variant remainder.
var titlePattern = regexp.MustCompile(`^\s*((?:19|20)\d{2})\s+([A-Za-z][A-Za-z-]+)\s+([A-Za-z0-9][A-Za-z0-9-]*)(?:\s+(.+))?\s*$`)

// parseTitle pattern-matches a combined title string into its vehicle
// parts.
func parseTitle(s string) (titleParts, bool) {
	m := titlePattern.FindStringSubmatch(s)
	if m == nil {
		return titleParts{}, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return titleParts{}, false
	}
	return titleParts{
		Year:    year,
		Make:    m[2],
		Model:   m[3],
		Variant: strings.TrimSpace(m[4]),
	}, true
}

var (
	priceDigits = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?`)
	kmDigits    = regexp.MustCompile(`[0-9][0-9,]*`)
	alphaName   = regexp.MustCompile(`^[A-Za-z]+(?:[ -][A-Za-z]+)*$`)
)

// parsePrice extracts a whole-currency price from free text such as
// "$35,990 Drive Away". Returns false for empty, zero, or implausibly
// large values.
func parsePrice(s string) (int, bool) {
	m := priceDigits.FindString(s)
	if m == "" {
		return 0, false
	}
	m = strings.ReplaceAll(m, ",", "")
	if idx := strings.Index(m, "."); idx != -1 {
		m = m[:idx]
	}
	n, err := strconv.Atoi(m)
	if err != nil || n <= 0 || n > 9999999 {
		return 0, false
	}
	return n, true
}

// parseKM extracts an odometer reading from free text such as "45,210 km".
func parseKM(s string) (int, bool) {
	m := kmDigits.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil || n <= 0 || n > 2000000 {
		return 0, false
	}
	return n, true
}

// parseYear parses a model year and rejects values outside the plausible
// band.
func parseYear(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !yearPlausible(n) {
		return 0, false
	}
	return n, true
}

// yearPlausible bounds model years to 1980 through next year.
func yearPlausible(year int) bool {
	return year >= 1980 && year <= time.Now().Year()+1
}

// makeWellFormed accepts alphabetic makes, permitting internal spaces and
// hyphens ("Alfa Romeo", "Mercedes-Benz").
func makeWellFormed(name string) bool {
	return alphaName.MatchString(strings.TrimSpace(name))
}

// modelWellFormed bounds model names to a sane length.
func modelWellFormed(model string) bool {
	model = strings.TrimSpace(model)
	return model != "" && len(model) <= 40
}

// absoluteURL resolves href against base and strips the fragment. Returns
// "" if href cannot be parsed.
func absoluteURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	return resolved.String()
}
