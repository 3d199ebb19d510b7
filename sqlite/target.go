package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mackayauctioneers-design/lotcrawl"
)

// Compile-time interface verification.
var _ lotcrawl.TargetService = (*TargetService)(nil)

// TargetService implements lotcrawl.TargetService using SQLite.
type TargetService struct {
	db *DB
}

// NewTargetService creates a new TargetService.
func NewTargetService(db *DB) *TargetService {
	return &TargetService{db: db}
}

const targetColumns = `id, slug, name, fetch_url, suburb, state, postcode, region,
	strategy, enabled, is_anchor, priority, require_stable_id,
	validation_status, validation_run_count, consecutive_failures, consecutive_successes,
	disabled_reason, disabled_at, created_at, updated_at`

// CreateTarget registers a new target.
func (s *TargetService) CreateTarget(ctx context.Context, target *lotcrawl.Target) error {
	if err := target.Validate(); err != nil {
		return err
	}

	if _, err := s.FindTargetBySlug(ctx, target.Slug); err == nil {
		return lotcrawl.Errorf(lotcrawl.ECONFLICT, "target %q already registered", target.Slug)
	} else if lotcrawl.ErrorCode(err) != lotcrawl.ENOTFOUND {
		return err
	}

	target.ID = uuid.New().String()
	if target.Priority == "" {
		target.Priority = lotcrawl.PriorityNormal
	}
	if target.ValidationStatus == "" {
		target.ValidationStatus = lotcrawl.ValidationPending
	}
	now := time.Now().UTC()
	target.CreatedAt = now
	target.UpdatedAt = now

	var disabledAt any
	if target.DisabledAt != nil {
		disabledAt = target.DisabledAt.Format(time.RFC3339)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO targets (`+targetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, target.ID, target.Slug, target.Name, target.FetchURL,
		target.Suburb, target.State, target.Postcode, target.Region,
		string(target.Strategy), boolToInt(target.Enabled), boolToInt(target.IsAnchor),
		target.Priority, boolToInt(target.RequireStableID),
		string(target.ValidationStatus), target.ValidationRunCount,
		target.ConsecutiveFailures, target.ConsecutiveSuccesses,
		target.DisabledReason, disabledAt,
		target.CreatedAt.Format(time.RFC3339), target.UpdatedAt.Format(time.RFC3339))

	return err
}

// FindTargetBySlug retrieves a target by slug.
func (s *TargetService) FindTargetBySlug(ctx context.Context, slug string) (*lotcrawl.Target, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+targetColumns+` FROM targets WHERE slug = ?
	`, slug)

	target, err := scanTarget(row)
	if err == sql.ErrNoRows {
		return nil, lotcrawl.Errorf(lotcrawl.ENOTFOUND, "target not found")
	}
	if err != nil {
		return nil, err
	}
	return target, nil
}

// FindTargets retrieves targets matching the filter, anchor and
// high-priority targets first.
func (s *TargetService) FindTargets(ctx context.Context, filter lotcrawl.TargetFilter) ([]*lotcrawl.Target, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + targetColumns + " FROM targets WHERE 1=1")

	if len(filter.Slugs) > 0 {
		query.WriteString(" AND slug IN (?" + strings.Repeat(", ?", len(filter.Slugs)-1) + ")")
		for _, slug := range filter.Slugs {
			args = append(args, slug)
		}
	}
	if filter.Enabled != nil {
		query.WriteString(" AND enabled = ?")
		args = append(args, boolToInt(*filter.Enabled))
	}
	if filter.ValidationStatus != nil {
		query.WriteString(" AND validation_status = ?")
		args = append(args, string(*filter.ValidationStatus))
	}
	if filter.MaxValidationRuns > 0 {
		query.WriteString(" AND validation_run_count < ?")
		args = append(args, filter.MaxValidationRuns)
	}

	// Anchors first, then priority bucket, then stable slug order.
	query.WriteString(` ORDER BY is_anchor DESC,
		CASE priority WHEN 'high' THEN 0 WHEN 'normal' THEN 1 ELSE 2 END,
		slug`)

	if filter.Limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []*lotcrawl.Target
	for rows.Next() {
		target, err := scanTarget(rows)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}

	return targets, rows.Err()
}

// UpdateTarget updates an existing target.
func (s *TargetService) UpdateTarget(ctx context.Context, slug string, upd lotcrawl.TargetUpdate) (*lotcrawl.Target, error) {
	target, err := s.FindTargetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		target.Name = *upd.Name
	}
	if upd.FetchURL != nil {
		target.FetchURL = *upd.FetchURL
	}
	if upd.Enabled != nil {
		target.Enabled = *upd.Enabled
	}
	if upd.ValidationStatus != nil {
		target.ValidationStatus = *upd.ValidationStatus
	}
	if upd.ValidationRunCount != nil {
		target.ValidationRunCount = *upd.ValidationRunCount
	}
	if upd.ConsecutiveFailures != nil {
		target.ConsecutiveFailures = *upd.ConsecutiveFailures
	}
	if upd.ConsecutiveSuccesses != nil {
		target.ConsecutiveSuccesses = *upd.ConsecutiveSuccesses
	}
	if upd.DisabledReason != nil {
		target.DisabledReason = *upd.DisabledReason
	}
	if upd.ClearDisabledAt {
		target.DisabledAt = nil
	} else if upd.DisabledAt != nil {
		target.DisabledAt = upd.DisabledAt
	}

	if err := target.Validate(); err != nil {
		return nil, err
	}

	target.UpdatedAt = time.Now().UTC()

	var disabledAt any
	if target.DisabledAt != nil {
		disabledAt = target.DisabledAt.Format(time.RFC3339)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE targets
		SET name = ?, fetch_url = ?, enabled = ?,
			validation_status = ?, validation_run_count = ?,
			consecutive_failures = ?, consecutive_successes = ?,
			disabled_reason = ?, disabled_at = ?, updated_at = ?
		WHERE slug = ?
	`, target.Name, target.FetchURL, boolToInt(target.Enabled),
		string(target.ValidationStatus), target.ValidationRunCount,
		target.ConsecutiveFailures, target.ConsecutiveSuccesses,
		target.DisabledReason, disabledAt, target.UpdatedAt.Format(time.RFC3339),
		slug)
	if err != nil {
		return nil, err
	}

	return target, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTarget(row scanner) (*lotcrawl.Target, error) {
	var target lotcrawl.Target
	var strategy, status string
	var enabled, isAnchor, requireStable int
	var disabledAt sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&target.ID, &target.Slug, &target.Name, &target.FetchURL,
		&target.Suburb, &target.State, &target.Postcode, &target.Region,
		&strategy, &enabled, &isAnchor, &target.Priority, &requireStable,
		&status, &target.ValidationRunCount,
		&target.ConsecutiveFailures, &target.ConsecutiveSuccesses,
		&target.DisabledReason, &disabledAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	target.Strategy = lotcrawl.Strategy(strategy)
	target.Enabled = enabled != 0
	target.IsAnchor = isAnchor != 0
	target.RequireStableID = requireStable != 0
	target.ValidationStatus = lotcrawl.ValidationStatus(status)

	if disabledAt.Valid && disabledAt.String != "" {
		t, err := parseRFC3339(disabledAt.String, "disabled_at")
		if err != nil {
			return nil, err
		}
		target.DisabledAt = &t
	}
	if target.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if target.UpdatedAt, err = parseRFC3339(updatedAt, "updated_at"); err != nil {
		return nil, err
	}

	return &target, nil
}
