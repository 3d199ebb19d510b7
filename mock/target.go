package mock

import (
	"context"

	"github.com/mackayauctioneers-design/lotcrawl"
)

var _ lotcrawl.TargetService = (*TargetService)(nil)

// TargetService is a mock implementation of lotcrawl.TargetService.
type TargetService struct {
	CreateTargetFn     func(ctx context.Context, target *lotcrawl.Target) error
	FindTargetBySlugFn func(ctx context.Context, slug string) (*lotcrawl.Target, error)
	FindTargetsFn      func(ctx context.Context, filter lotcrawl.TargetFilter) ([]*lotcrawl.Target, error)
	UpdateTargetFn     func(ctx context.Context, slug string, upd lotcrawl.TargetUpdate) (*lotcrawl.Target, error)
}

func (s *TargetService) CreateTarget(ctx context.Context, target *lotcrawl.Target) error {
	return s.CreateTargetFn(ctx, target)
}

func (s *TargetService) FindTargetBySlug(ctx context.Context, slug string) (*lotcrawl.Target, error) {
	return s.FindTargetBySlugFn(ctx, slug)
}

func (s *TargetService) FindTargets(ctx context.Context, filter lotcrawl.TargetFilter) ([]*lotcrawl.Target, error) {
	return s.FindTargetsFn(ctx, filter)
}

func (s *TargetService) UpdateTarget(ctx context.Context, slug string, upd lotcrawl.TargetUpdate) (*lotcrawl.Target, error) {
	return s.UpdateTargetFn(ctx, slug, upd)
}
