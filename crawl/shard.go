package crawl

import (
	"context"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/mackayauctioneers-design/lotcrawl"
)

// RunSharded partitions the mode's target set into shards by slug hash and
// processes the shards concurrently. A slug always lands in the same shard,
// so per-target state updates stay serialized within one worker, and all
// workers share the orchestrator's HostLimiter so per-host pacing holds
// across shards.
func (o *Orchestrator) RunSharded(ctx context.Context, mode Mode, slugs []string, shards int) (*Summary, error) {
	if shards < 1 {
		return nil, lotcrawl.Errorf(lotcrawl.EINVALID, "shard count must be positive, got %d", shards)
	}
	if shards == 1 {
		return o.Run(ctx, mode, slugs)
	}

	targets, err := o.resolveTargets(ctx, mode, slugs)
	if err != nil {
		return nil, err
	}

	partitions := make([][]*lotcrawl.Target, shards)
	for _, target := range targets {
		i := int(xxhash.Sum64String(target.Slug) % uint64(shards))
		partitions[i] = append(partitions[i], target)
	}

	summaries := make([]*Summary, shards)
	g, ctx := errgroup.WithContext(ctx)
	for i, partition := range partitions {
		i, partition := i, partition
		if len(partition) == 0 {
			continue
		}
		g.Go(func() error {
			summaries[i] = o.process(ctx, mode, partition)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return mergeSummaries(mode, summaries), nil
}

// mergeSummaries folds per-shard summaries into one. The earliest start and
// latest completion bound the merged run.
func mergeSummaries(mode Mode, summaries []*Summary) *Summary {
	merged := &Summary{Mode: mode}
	for _, s := range summaries {
		if s == nil {
			continue
		}
		merged.TargetsProcessed += s.TargetsProcessed
		merged.TargetsSkipped += s.TargetsSkipped
		merged.TotalFound += s.TotalFound
		merged.TotalIngested += s.TotalIngested
		merged.TotalDropped += s.TotalDropped
		merged.TargetsWithError += s.TargetsWithError
		merged.TargetsWithAlert += s.TargetsWithAlert
		merged.TargetsPromoted += s.TargetsPromoted
		merged.TargetsDisabled += s.TargetsDisabled
		merged.Results = append(merged.Results, s.Results...)

		if merged.StartedAt.IsZero() || s.StartedAt.Before(merged.StartedAt) {
			merged.StartedAt = s.StartedAt
		}
		if s.CompletedAt.After(merged.CompletedAt) {
			merged.CompletedAt = s.CompletedAt
		}
	}
	return merged
}
