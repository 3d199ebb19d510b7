package lotcrawl

import "context"

// SnapshotStore persists raw fetched pages so extraction regressions can be
// diagnosed against the exact HTML a run saw.
type SnapshotStore interface {
	// SaveSnapshot stores the raw page for one target on one run date.
	// Re-saving the same (runDate, targetSlug) replaces the earlier
	// snapshot.
	SaveSnapshot(ctx context.Context, targetSlug, runDate, html string) error
}
