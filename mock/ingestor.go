package mock

import (
	"context"

	"github.com/mackayauctioneers-design/lotcrawl"
)

var _ lotcrawl.Ingestor = (*Ingestor)(nil)

// Ingestor is a mock implementation of lotcrawl.Ingestor.
type Ingestor struct {
	IngestFn func(ctx context.Context, targetSlug string, records []*lotcrawl.Record) (lotcrawl.IngestResult, error)
}

func (i *Ingestor) Ingest(ctx context.Context, targetSlug string, records []*lotcrawl.Record) (lotcrawl.IngestResult, error) {
	return i.IngestFn(ctx, targetSlug, records)
}
