package lotcrawl

// Extractor turns raw page content into zero or more candidate records.
//
// Extractors never return an error for malformed input: a block that cannot
// be resolved is skipped and lowers the raw-candidate count. The returned
// error covers only page-level problems (e.g., content that is not HTML at
// all); fetch failures and exceptions are the orchestrator's to record.
type Extractor interface {
	// Extract parses html and returns the candidate records found.
	// Location fields on the returned records default to the target's.
	Extract(html string, target *Target) ([]*Record, error)
}

// ExtractorRegistry maps a target's configured strategy tag to its
// extractor. There is deliberately no auto-detection fallback: an
// unregistered strategy returns nil and the target is skipped.
type ExtractorRegistry interface {
	// Get returns the extractor for a strategy, or nil if none is
	// registered.
	Get(strategy Strategy) Extractor

	// Register adds an extractor for a strategy, replacing any existing
	// registration.
	Register(strategy Strategy, extractor Extractor)
}
