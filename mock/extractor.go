package mock

import "github.com/mackayauctioneers-design/lotcrawl"

var _ lotcrawl.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of lotcrawl.Extractor.
type Extractor struct {
	ExtractFn func(html string, target *lotcrawl.Target) ([]*lotcrawl.Record, error)
}

func (e *Extractor) Extract(html string, target *lotcrawl.Target) ([]*lotcrawl.Record, error) {
	return e.ExtractFn(html, target)
}

var _ lotcrawl.ExtractorRegistry = (*ExtractorRegistry)(nil)

// ExtractorRegistry is a mock implementation of lotcrawl.ExtractorRegistry.
type ExtractorRegistry struct {
	GetFn      func(strategy lotcrawl.Strategy) lotcrawl.Extractor
	RegisterFn func(strategy lotcrawl.Strategy, extractor lotcrawl.Extractor)
}

func (r *ExtractorRegistry) Get(strategy lotcrawl.Strategy) lotcrawl.Extractor {
	return r.GetFn(strategy)
}

func (r *ExtractorRegistry) Register(strategy lotcrawl.Strategy, extractor lotcrawl.Extractor) {
	r.RegisterFn(strategy, extractor)
}
