package crawl_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mackayauctioneers-design/lotcrawl"
	"github.com/mackayauctioneers-design/lotcrawl/crawl"
	"github.com/mackayauctioneers-design/lotcrawl/mock"
)

// fixedNow is the deterministic clock used across orchestrator tests.
var fixedNow = time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC)

// harness bundles an orchestrator with its mock collaborators and a
// recording layer for the calls the tests assert on.
type harness struct {
	orch    *crawl.Orchestrator
	targets *mock.TargetService
	runs    *mock.RunService
	fetcher *mock.Fetcher
	ingest  *mock.Ingestor

	upserted []*lotcrawl.Run
	updates  map[string]lotcrawl.TargetUpdate
	ingested map[string]int
}

func newHarness(tb testing.TB) *harness {
	tb.Helper()

	h := &harness{
		targets:  &mock.TargetService{},
		runs:     &mock.RunService{},
		fetcher:  &mock.Fetcher{},
		ingest:   &mock.Ingestor{},
		updates:  make(map[string]lotcrawl.TargetUpdate),
		ingested: make(map[string]int),
	}

	h.fetcher.FetchFn = func(ctx context.Context, url string) (string, error) {
		return "<html></html>", nil
	}
	h.runs.UpsertRunFn = func(ctx context.Context, run *lotcrawl.Run) error {
		h.upserted = append(h.upserted, run)
		return nil
	}
	h.runs.FindRecentRunsFn = func(ctx context.Context, slug, before string, limit int) ([]*lotcrawl.Run, error) {
		return nil, nil
	}
	h.runs.SetIngestedFn = func(ctx context.Context, runDate, slug string, ingested int) error {
		h.ingested[slug] = ingested
		return nil
	}
	h.targets.UpdateTargetFn = func(ctx context.Context, slug string, upd lotcrawl.TargetUpdate) (*lotcrawl.Target, error) {
		h.updates[slug] = upd
		return nil, nil
	}
	h.ingest.IngestFn = func(ctx context.Context, slug string, records []*lotcrawl.Record) (lotcrawl.IngestResult, error) {
		return lotcrawl.IngestResult{Created: len(records)}, nil
	}

	h.orch = &crawl.Orchestrator{
		Targets:  h.targets,
		Runs:     h.runs,
		Fetcher:  h.fetcher,
		Ingestor: h.ingest,
		Gate:     lotcrawl.DefaultGate(),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:   crawl.DefaultConfig(),
		Now:      func() time.Time { return fixedNow },
	}
	return h
}

// stubExtractors wires a registry that returns records for every supported
// strategy.
func (h *harness) stubExtractors(records []*lotcrawl.Record, err error) {
	h.orch.Extractors = &mock.ExtractorRegistry{
		GetFn: func(strategy lotcrawl.Strategy) lotcrawl.Extractor {
			if strategy == lotcrawl.StrategyUnsupported {
				return nil
			}
			return &mock.Extractor{
				ExtractFn: func(html string, target *lotcrawl.Target) ([]*lotcrawl.Record, error) {
					return records, err
				},
			}
		},
	}
}

func (h *harness) serveTargets(targets ...*lotcrawl.Target) {
	h.targets.FindTargetsFn = func(ctx context.Context, filter lotcrawl.TargetFilter) ([]*lotcrawl.Target, error) {
		return targets, nil
	}
}

func goodRecord(id string) *lotcrawl.Record {
	return &lotcrawl.Record{
		SourceListingID: id,
		Year:            2021,
		Make:            "Toyota",
		Model:           "Hilux",
		Price:           45990,
		ListingURL:      "https://example-motors.com.au/stock/" + id,
	}
}

func passedTarget(slug string) *lotcrawl.Target {
	return &lotcrawl.Target{
		Slug:             slug,
		Name:             "Example Motors",
		FetchURL:         "https://example-motors.com.au/stock",
		Strategy:         lotcrawl.StrategyAttr,
		Enabled:          true,
		ValidationStatus: lotcrawl.ValidationPassed,
	}
}

func TestOrchestrator_Run(t *testing.T) {
	t.Parallel()

	t.Run("CronHappyPath", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.serveTargets(passedTarget("example-motors"))
		h.stubExtractors([]*lotcrawl.Record{goodRecord("STK-1001"), goodRecord("STK-1002")}, nil)

		summary, err := h.orch.Run(context.Background(), crawl.ModeCron, nil)
		require.NoError(t, err)

		assert.Equal(t, 1, summary.TargetsProcessed)
		assert.Equal(t, 2, summary.TotalFound)
		assert.Equal(t, 2, summary.TotalIngested)
		assert.Equal(t, 0, summary.TotalDropped)
		assert.Equal(t, 0, summary.TargetsWithError)

		require.Len(t, h.upserted, 1)
		run := h.upserted[0]
		assert.Equal(t, fixedNow.Format(lotcrawl.RunDateFormat), run.RunDate)
		assert.Equal(t, "example-motors", run.TargetSlug)
		assert.Equal(t, 2, run.VehiclesFound)
		assert.Empty(t, run.Error)
		assert.Equal(t, 2, h.ingested["example-motors"])
	})

	t.Run("FetchErrorRecordedNotIngested", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.serveTargets(passedTarget("example-motors"))
		h.stubExtractors(nil, nil)
		h.fetcher.FetchFn = func(ctx context.Context, url string) (string, error) {
			return "", lotcrawl.Errorf(lotcrawl.EUNAVAILABLE, "fetch returned status 503")
		}
		h.ingest.IngestFn = func(ctx context.Context, slug string, records []*lotcrawl.Record) (lotcrawl.IngestResult, error) {
			t.Fatal("ingest must not be called for an errored run")
			return lotcrawl.IngestResult{}, nil
		}

		summary, err := h.orch.Run(context.Background(), crawl.ModeCron, nil)
		require.NoError(t, err)

		assert.Equal(t, 1, summary.TargetsWithError)
		require.Len(t, h.upserted, 1)
		assert.Contains(t, h.upserted[0].Error, "503")
		assert.Zero(t, h.upserted[0].VehiclesFound)

		// An errored run is a validation failure.
		upd := h.updates["example-motors"]
		require.NotNil(t, upd.ConsecutiveFailures)
		assert.Equal(t, 1, *upd.ConsecutiveFailures)
	})

	t.Run("UnsupportedStrategySkipped", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		target := passedTarget("legacy-yard")
		target.Strategy = lotcrawl.StrategyUnsupported
		h.serveTargets(target)
		h.stubExtractors(nil, nil)

		summary, err := h.orch.Run(context.Background(), crawl.ModeCron, nil)
		require.NoError(t, err)

		assert.Equal(t, 1, summary.TargetsSkipped)
		assert.Equal(t, 0, summary.TargetsProcessed)
		assert.Empty(t, h.upserted, "skipped targets must not write audit rows")
		assert.Empty(t, h.updates, "skipped targets must not advance validation state")
	})

	t.Run("SecondSuccessPromotes", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		target := passedTarget("new-dealer")
		target.Enabled = false
		target.ValidationStatus = lotcrawl.ValidationPending
		target.ConsecutiveSuccesses = 1
		h.serveTargets(target)
		h.stubExtractors([]*lotcrawl.Record{goodRecord("STK-2001")}, nil)

		summary, err := h.orch.Run(context.Background(), crawl.ModeValidate, nil)
		require.NoError(t, err)

		assert.Equal(t, 1, summary.TargetsPromoted)
		upd := h.updates["new-dealer"]
		require.NotNil(t, upd.ValidationStatus)
		assert.Equal(t, lotcrawl.ValidationPassed, *upd.ValidationStatus)
		require.NotNil(t, upd.Enabled)
		assert.True(t, *upd.Enabled)
		assert.True(t, upd.ClearDisabledAt, "promotion must clear any stale disable timestamp")
	})

	t.Run("PromotionKeepsOperatorDisable", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		disabledAt := fixedNow.AddDate(0, 0, -8)
		target := passedTarget("benched-dealer")
		target.Enabled = false
		target.ValidationStatus = lotcrawl.ValidationPending
		target.ConsecutiveSuccesses = 1
		target.DisabledReason = "disabled by operator"
		target.DisabledAt = &disabledAt
		h.serveTargets(target)
		h.stubExtractors([]*lotcrawl.Record{goodRecord("STK-2101")}, nil)

		summary, err := h.orch.Run(context.Background(), crawl.ModeValidate, nil)
		require.NoError(t, err)

		assert.Equal(t, 1, summary.TargetsPromoted)
		upd := h.updates["benched-dealer"]
		require.NotNil(t, upd.Enabled)
		assert.False(t, *upd.Enabled, "operator disable must survive promotion")
		require.NotNil(t, upd.DisabledReason)
		assert.Equal(t, "disabled by operator", *upd.DisabledReason)
		require.NotNil(t, upd.DisabledAt)
		assert.Equal(t, disabledAt, *upd.DisabledAt)
		assert.False(t, upd.ClearDisabledAt)
	})

	t.Run("ThirdFailureDisables", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		target := passedTarget("flaky-dealer")
		target.ConsecutiveFailures = 2
		h.serveTargets(target)
		h.stubExtractors(nil, nil) // zero yield counts as a failure

		summary, err := h.orch.Run(context.Background(), crawl.ModeCron, nil)
		require.NoError(t, err)

		assert.Equal(t, 1, summary.TargetsDisabled)
		upd := h.updates["flaky-dealer"]
		require.NotNil(t, upd.Enabled)
		assert.False(t, *upd.Enabled)
		require.NotNil(t, upd.DisabledReason)
		assert.NotEmpty(t, *upd.DisabledReason)
	})

	t.Run("PanicIsolatedPerTarget", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.serveTargets(passedTarget("bad-dealer"), passedTarget("good-dealer"))

		h.orch.Extractors = &mock.ExtractorRegistry{
			GetFn: func(strategy lotcrawl.Strategy) lotcrawl.Extractor {
				return &mock.Extractor{
					ExtractFn: func(html string, target *lotcrawl.Target) ([]*lotcrawl.Record, error) {
						if target.Slug == "bad-dealer" {
							panic("selector engine blew up")
						}
						return []*lotcrawl.Record{goodRecord("STK-3001")}, nil
					},
				}
			},
		}

		summary, err := h.orch.Run(context.Background(), crawl.ModeCron, nil)
		require.NoError(t, err)

		require.Len(t, summary.Results, 2)
		assert.Contains(t, summary.Results[0].Error, "panic")
		assert.Equal(t, 1, summary.Results[1].Found)
		assert.Equal(t, 1, summary.TotalIngested)
	})

	t.Run("CancellationAbandonsRemaining", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.serveTargets(passedTarget("first"), passedTarget("second"), passedTarget("third"))
		h.stubExtractors([]*lotcrawl.Record{goodRecord("STK-4001")}, nil)

		ctx, cancel := context.WithCancel(context.Background())
		h.fetcher.FetchFn = func(ctx context.Context, url string) (string, error) {
			cancel() // cancel while the first target is in flight
			return "<html></html>", nil
		}

		summary, err := h.orch.Run(ctx, crawl.ModeCron, nil)
		require.NoError(t, err)

		// The in-flight target completes its audit write; the rest are
		// never started.
		assert.Equal(t, 1, summary.TargetsProcessed)
		require.Len(t, h.upserted, 1)
		assert.Equal(t, "first", h.upserted[0].TargetSlug)
	})

	t.Run("ManualModeRequiresSlugs", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		_, err := h.orch.Run(context.Background(), crawl.ModeManual, nil)
		require.Error(t, err)
		assert.Equal(t, lotcrawl.EINVALID, lotcrawl.ErrorCode(err))
	})

	t.Run("UnknownMode", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		_, err := h.orch.Run(context.Background(), crawl.Mode("hourly"), nil)
		require.Error(t, err)
		assert.Equal(t, lotcrawl.EINVALID, lotcrawl.ErrorCode(err))
	})

	t.Run("IngestFailureKeepsAuditRow", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.serveTargets(passedTarget("example-motors"))
		h.stubExtractors([]*lotcrawl.Record{goodRecord("STK-5001")}, nil)
		h.ingest.IngestFn = func(ctx context.Context, slug string, records []*lotcrawl.Record) (lotcrawl.IngestResult, error) {
			return lotcrawl.IngestResult{}, errors.New("ingest api unavailable")
		}

		summary, err := h.orch.Run(context.Background(), crawl.ModeCron, nil)
		require.NoError(t, err)

		// The audit row stands with ingested left at zero.
		require.Len(t, h.upserted, 1)
		assert.Equal(t, 1, h.upserted[0].VehiclesFound)
		assert.Empty(t, h.ingested)
		assert.Equal(t, 0, summary.TotalIngested)

		// Crawl and extraction succeeded, so the run is still a
		// validation success.
		upd := h.updates["example-motors"]
		require.NotNil(t, upd.ConsecutiveSuccesses)
		assert.Equal(t, 1, *upd.ConsecutiveSuccesses)
	})

	t.Run("YieldDropRaisesAlert", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.serveTargets(passedTarget("example-motors"))

		// 3 candidates against a trailing average of 100.
		records := []*lotcrawl.Record{
			goodRecord("STK-6001"),
			goodRecord("STK-6002"),
			goodRecord("STK-6003"),
		}
		h.stubExtractors(records, nil)
		h.runs.FindRecentRunsFn = func(ctx context.Context, slug, before string, limit int) ([]*lotcrawl.Run, error) {
			return []*lotcrawl.Run{
				{RunDate: "2026-08-27", TargetSlug: slug, VehiclesFound: 100},
				{RunDate: "2026-08-26", TargetSlug: slug, VehiclesFound: 95},
				{RunDate: "2026-08-25", TargetSlug: slug, VehiclesFound: 105},
			}, nil
		}

		summary, err := h.orch.Run(context.Background(), crawl.ModeCron, nil)
		require.NoError(t, err)

		assert.Equal(t, 1, summary.TargetsWithAlert)
		require.Len(t, summary.Results, 1)
		assert.Equal(t, lotcrawl.AlertDrop50Pct, summary.Results[0].Alert)
	})

	t.Run("SnapshotSavedOnSuccessfulFetch", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.serveTargets(passedTarget("example-motors"))
		h.stubExtractors([]*lotcrawl.Record{goodRecord("STK-8001")}, nil)

		var savedSlug, savedDate string
		h.orch.Snapshots = &mock.SnapshotStore{
			SaveSnapshotFn: func(ctx context.Context, slug, runDate, html string) error {
				savedSlug, savedDate = slug, runDate
				return nil
			},
		}

		_, err := h.orch.Run(context.Background(), crawl.ModeCron, nil)
		require.NoError(t, err)
		assert.Equal(t, "example-motors", savedSlug)
		assert.Equal(t, fixedNow.Format(lotcrawl.RunDateFormat), savedDate)
	})

	t.Run("GateDropsReflectedInSummary", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.serveTargets(passedTarget("example-motors"))

		noPrice := goodRecord("STK-7002")
		noPrice.Price = 0
		h.stubExtractors([]*lotcrawl.Record{goodRecord("STK-7001"), noPrice}, nil)

		summary, err := h.orch.Run(context.Background(), crawl.ModeCron, nil)
		require.NoError(t, err)

		assert.Equal(t, 1, summary.TotalFound)
		assert.Equal(t, 1, summary.TotalDropped)
		require.Len(t, h.upserted, 1)
		assert.Equal(t, map[string]int{lotcrawl.DropMissingPrice: 1}, h.upserted[0].DropReasons)
	})
}

func TestOrchestrator_ModeFilters(t *testing.T) {
	t.Parallel()

	t.Run("CronFiltersEnabledPassed", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.stubExtractors(nil, nil)

		var got lotcrawl.TargetFilter
		h.targets.FindTargetsFn = func(ctx context.Context, filter lotcrawl.TargetFilter) ([]*lotcrawl.Target, error) {
			got = filter
			return nil, nil
		}

		_, err := h.orch.Run(context.Background(), crawl.ModeCron, nil)
		require.NoError(t, err)

		require.NotNil(t, got.Enabled)
		assert.True(t, *got.Enabled)
		require.NotNil(t, got.ValidationStatus)
		assert.Equal(t, lotcrawl.ValidationPassed, *got.ValidationStatus)
		assert.Equal(t, h.orch.Config.CronBatchSize, got.Limit)
	})

	t.Run("ValidateQueriesPendingAndFailed", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.stubExtractors(nil, nil)

		var statuses []lotcrawl.ValidationStatus
		h.targets.FindTargetsFn = func(ctx context.Context, filter lotcrawl.TargetFilter) ([]*lotcrawl.Target, error) {
			require.NotNil(t, filter.ValidationStatus)
			statuses = append(statuses, *filter.ValidationStatus)
			assert.Equal(t, h.orch.Config.ValidationRunCap, filter.MaxValidationRuns)
			return nil, nil
		}

		_, err := h.orch.Run(context.Background(), crawl.ModeValidate, nil)
		require.NoError(t, err)
		assert.Equal(t, []lotcrawl.ValidationStatus{lotcrawl.ValidationPending, lotcrawl.ValidationFailed}, statuses)
	})

	t.Run("ManualQueriesBySlug", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.stubExtractors(nil, nil)

		var got lotcrawl.TargetFilter
		h.targets.FindTargetsFn = func(ctx context.Context, filter lotcrawl.TargetFilter) ([]*lotcrawl.Target, error) {
			got = filter
			return nil, nil
		}

		_, err := h.orch.Run(context.Background(), crawl.ModeManual, []string{"example-motors", "flaky-dealer"})
		require.NoError(t, err)
		assert.Equal(t, []string{"example-motors", "flaky-dealer"}, got.Slugs)
	})
}
