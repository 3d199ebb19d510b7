package sqlite

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mackayauctioneers-design/lotcrawl"
)

// Compile-time interface verification.
var _ lotcrawl.RunService = (*RunService)(nil)

// RunService implements lotcrawl.RunService using SQLite.
type RunService struct {
	db *DB
}

// NewRunService creates a new RunService.
func NewRunService(db *DB) *RunService {
	return &RunService{db: db}
}

// UpsertRun inserts the run or replaces the row with the same
// (run_date, target_slug) key. Same-day reruns are expected; last writer
// wins.
func (s *RunService) UpsertRun(ctx context.Context, run *lotcrawl.Run) error {
	if err := run.Validate(); err != nil {
		return err
	}

	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	reasons, err := json.Marshal(run.DropReasons)
	if err != nil {
		return err
	}
	if run.DropReasons == nil {
		reasons = []byte("{}")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, run_date, target_slug, vehicles_found, vehicles_ingested,
			vehicles_dropped, drop_reasons, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_date, target_slug) DO UPDATE SET
			vehicles_found = excluded.vehicles_found,
			vehicles_ingested = excluded.vehicles_ingested,
			vehicles_dropped = excluded.vehicles_dropped,
			drop_reasons = excluded.drop_reasons,
			error = excluded.error,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at
	`, run.ID, run.RunDate, run.TargetSlug, run.VehiclesFound, run.VehiclesIngested,
		run.VehiclesDropped, string(reasons), run.Error,
		run.StartedAt.UTC().Format(time.RFC3339), run.CompletedAt.UTC().Format(time.RFC3339))

	return err
}

// FindRecentRuns retrieves up to limit runs for a target dated strictly
// before the given date, most recent first.
func (s *RunService) FindRecentRuns(ctx context.Context, targetSlug string, before string, limit int) ([]*lotcrawl.Run, error) {
	if limit <= 0 {
		limit = 7
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_date, target_slug, vehicles_found, vehicles_ingested,
			vehicles_dropped, drop_reasons, error, started_at, completed_at
		FROM runs
		WHERE target_slug = ? AND run_date < ?
		ORDER BY run_date DESC
		LIMIT ?
	`, targetSlug, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*lotcrawl.Run
	for rows.Next() {
		var run lotcrawl.Run
		var reasons, startedAt, completedAt string

		err := rows.Scan(&run.ID, &run.RunDate, &run.TargetSlug,
			&run.VehiclesFound, &run.VehiclesIngested, &run.VehiclesDropped,
			&reasons, &run.Error, &startedAt, &completedAt)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal([]byte(reasons), &run.DropReasons); err != nil {
			return nil, err
		}
		if run.StartedAt, err = parseRFC3339(startedAt, "started_at"); err != nil {
			return nil, err
		}
		if run.CompletedAt, err = parseRFC3339(completedAt, "completed_at"); err != nil {
			return nil, err
		}

		runs = append(runs, &run)
	}

	return runs, rows.Err()
}

// SetIngested records the ingest collaborator's accepted count on an
// already-written run row.
func (s *RunService) SetIngested(ctx context.Context, runDate, targetSlug string, ingested int) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE runs SET vehicles_ingested = ? WHERE run_date = ? AND target_slug = ?
	`, ingested, runDate, targetSlug)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return lotcrawl.Errorf(lotcrawl.ENOTFOUND, "run not found")
	}
	return nil
}
