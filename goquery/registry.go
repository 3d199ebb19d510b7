// Package goquery provides the extraction strategies that turn raw dealer
// page content into candidate vehicle records, built on CSS selection via
// github.com/PuerkitoBio/goquery.
//
// Each publishing-platform family gets its own extractor: attribute-tagged
// HTML blocks (AttrExtractor), dense multi-pattern blocks with ordered
// fallback heuristics (DenseExtractor), and embedded structured linked-data
// (JSONLDExtractor). A target is routed only to its configured strategy;
// there is no run-time auto-detection.
package goquery

import "github.com/mackayauctioneers-design/lotcrawl"

var _ lotcrawl.ExtractorRegistry = (*Registry)(nil)

// Registry maps strategy tags to extractors. Unregistered strategies
// (including StrategyUnsupported) resolve to nil and the orchestrator
// skips the target.
type Registry struct {
	extractors map[lotcrawl.Strategy]lotcrawl.Extractor
}

// NewRegistry creates a Registry with the three production extractors
// pre-registered.
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[lotcrawl.Strategy]lotcrawl.Extractor)}
	r.Register(lotcrawl.StrategyAttr, NewAttrExtractor())
	r.Register(lotcrawl.StrategyDense, NewDenseExtractor())
	r.Register(lotcrawl.StrategyJSONLD, NewJSONLDExtractor())
	return r
}

// NewEmptyRegistry creates a Registry with no extractors registered.
func NewEmptyRegistry() *Registry {
	return &Registry{extractors: make(map[lotcrawl.Strategy]lotcrawl.Extractor)}
}

// Get returns the extractor for a strategy, or nil if none is registered.
func (r *Registry) Get(strategy lotcrawl.Strategy) lotcrawl.Extractor {
	return r.extractors[strategy]
}

// Register adds an extractor for a strategy, replacing any existing
// registration.
func (r *Registry) Register(strategy lotcrawl.Strategy, extractor lotcrawl.Extractor) {
	r.extractors[strategy] = extractor
}
