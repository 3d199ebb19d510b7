package mock

import (
	"context"

	"github.com/mackayauctioneers-design/lotcrawl"
)

var _ lotcrawl.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore is a mock implementation of lotcrawl.SnapshotStore.
type SnapshotStore struct {
	SaveSnapshotFn func(ctx context.Context, targetSlug, runDate, html string) error
}

func (s *SnapshotStore) SaveSnapshot(ctx context.Context, targetSlug, runDate, html string) error {
	return s.SaveSnapshotFn(ctx, targetSlug, runDate, html)
}
