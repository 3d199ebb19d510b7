// Package fs provides file-based storage for raw crawl snapshots.
package fs

import (
	"context"
	"os"
	"path/filepath"

	"github.com/mackayauctioneers-design/lotcrawl"
)

// Ensure SnapshotStore implements lotcrawl.SnapshotStore at compile time.
var _ lotcrawl.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore writes fetched pages under baseDir/<run-date>/<slug>.html.
// Writes go to a temporary file first and are renamed into place, so a
// crashed run never leaves a truncated snapshot behind.
type SnapshotStore struct {
	baseDir string
}

// NewSnapshotStore creates a SnapshotStore rooted at baseDir.
func NewSnapshotStore(baseDir string) *SnapshotStore {
	return &SnapshotStore{baseDir: baseDir}
}

// SnapshotPath returns the final path for a target's snapshot on a run
// date.
func (s *SnapshotStore) SnapshotPath(targetSlug, runDate string) string {
	return filepath.Join(s.baseDir, runDate, targetSlug+".html")
}

// SaveSnapshot stores the raw page, replacing any earlier snapshot for the
// same (runDate, targetSlug).
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, targetSlug, runDate, html string) error {
	if targetSlug == "" {
		return lotcrawl.Errorf(lotcrawl.EINVALID, "snapshot target slug required")
	}
	if runDate == "" {
		return lotcrawl.Errorf(lotcrawl.EINVALID, "snapshot run date required")
	}

	finalPath := s.SnapshotPath(targetSlug, runDate)
	if err := os.MkdirAll(filepath.Dir(finalPath), 0755); err != nil {
		return err
	}

	tmpPath := finalPath + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(html), 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, finalPath)
}
