package mock

import (
	"context"

	"github.com/mackayauctioneers-design/lotcrawl"
)

var _ lotcrawl.RunService = (*RunService)(nil)

// RunService is a mock implementation of lotcrawl.RunService.
type RunService struct {
	UpsertRunFn      func(ctx context.Context, run *lotcrawl.Run) error
	FindRecentRunsFn func(ctx context.Context, targetSlug string, before string, limit int) ([]*lotcrawl.Run, error)
	SetIngestedFn    func(ctx context.Context, runDate, targetSlug string, ingested int) error
}

func (s *RunService) UpsertRun(ctx context.Context, run *lotcrawl.Run) error {
	return s.UpsertRunFn(ctx, run)
}

func (s *RunService) FindRecentRuns(ctx context.Context, targetSlug string, before string, limit int) ([]*lotcrawl.Run, error) {
	return s.FindRecentRunsFn(ctx, targetSlug, before, limit)
}

func (s *RunService) SetIngested(ctx context.Context, runDate, targetSlug string, ingested int) error {
	return s.SetIngestedFn(ctx, runDate, targetSlug, ingested)
}
