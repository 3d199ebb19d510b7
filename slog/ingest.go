package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/mackayauctioneers-design/lotcrawl"
)

// Ensure LoggingIngestor implements lotcrawl.Ingestor.
var _ lotcrawl.Ingestor = (*LoggingIngestor)(nil)

// LoggingIngestor wraps an Ingestor with batch-size and outcome logging.
type LoggingIngestor struct {
	next   lotcrawl.Ingestor
	logger *slog.Logger
}

// NewLoggingIngestor creates a new LoggingIngestor.
func NewLoggingIngestor(next lotcrawl.Ingestor, logger *slog.Logger) *LoggingIngestor {
	return &LoggingIngestor{next: next, logger: logger}
}

// Ingest delegates to the wrapped ingestor and logs the operation.
func (i *LoggingIngestor) Ingest(ctx context.Context, targetSlug string, records []*lotcrawl.Record) (result lotcrawl.IngestResult, err error) {
	defer func(begin time.Time) {
		i.logger.Info("ingest",
			"target", targetSlug,
			"batch", len(records),
			"created", result.Created,
			"updated", result.Updated,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return i.next.Ingest(ctx, targetSlug, records)
}
