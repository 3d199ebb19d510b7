package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/mackayauctioneers-design/lotcrawl"
	"github.com/mackayauctioneers-design/lotcrawl/crawl"
	"github.com/mackayauctioneers-design/lotcrawl/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx          context.Context
	Stdout       io.Writer
	Stderr       io.Writer
	Logger       *slog.Logger
	DB           *sqlite.DB
	Targets      lotcrawl.TargetService
	Runs         lotcrawl.RunService
	Orchestrator *crawl.Orchestrator
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Rate float64 `default:"1.0" env:"LOTCRAWL_RATE" help:"Max requests per second per host"`

	Cron     CronCmd     `cmd:"" help:"Crawl enabled, validation-passed targets"`
	Validate ValidateCmd `cmd:"" help:"Run validation crawls for pending and failed targets"`
	Run      RunCmd      `cmd:"" help:"Crawl specific targets by slug"`
	Targets  TargetsCmd  `cmd:"" help:"Manage crawl targets"`
}

// CronCmd is the "cron" subcommand.
type CronCmd struct {
	Batch  int  `short:"b" default:"25" env:"LOTCRAWL_CRON_BATCH" help:"Max targets per cron invocation"`
	Shards int  `short:"s" default:"1" env:"LOTCRAWL_SHARDS" help:"Process targets in N concurrent shards"`
	JSON   bool `help:"Print the run summary as JSON"`
}

// ValidateCmd is the "validate" subcommand.
type ValidateCmd struct {
	RunCap int  `default:"14" env:"LOTCRAWL_VALIDATION_RUN_CAP" help:"Stop re-validating targets with this many runs"`
	JSON   bool `help:"Print the run summary as JSON"`
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	Slugs []string `arg:"" help:"Target slugs to crawl"`
	JSON  bool     `help:"Print the run summary as JSON"`
}

// TargetsCmd groups target administration subcommands.
type TargetsCmd struct {
	List    TargetsListCmd    `cmd:"" help:"List registered targets"`
	Add     TargetsAddCmd     `cmd:"" help:"Register a new crawl target"`
	Enable  TargetsEnableCmd  `cmd:"" help:"Enable a target"`
	Disable TargetsDisableCmd `cmd:"" help:"Disable a target"`
}

// TargetsListCmd is the "targets list" subcommand.
type TargetsListCmd struct {
	Enabled bool   `help:"Show only enabled targets"`
	Status  string `help:"Filter by validation status (pending, passed, failed)"`
}

// TargetsAddCmd is the "targets add" subcommand.
type TargetsAddCmd struct {
	Slug     string `arg:"" help:"Unique target slug"`
	Name     string `arg:"" help:"Dealer display name"`
	URL      string `arg:"" help:"Inventory page URL"`
	Strategy string `short:"S" default:"dense" help:"Extraction strategy (attr, dense, jsonld, unsupported)"`

	Suburb   string `help:"Default suburb for extracted records"`
	State    string `help:"Default state for extracted records"`
	Postcode string `help:"Default postcode for extracted records"`
	Region   string `help:"Default region for extracted records"`

	Anchor   bool   `help:"Mark as an anchor target (strict zero-yield alerting)"`
	Priority string `default:"normal" help:"Crawl priority (high, normal, low)"`
	StrictID bool   `name:"strict-id" help:"Require dedupe-grade listing identifiers"`
}

// TargetsEnableCmd is the "targets enable" subcommand.
type TargetsEnableCmd struct {
	Slug string `arg:"" help:"Target slug"`
}

// TargetsDisableCmd is the "targets disable" subcommand.
type TargetsDisableCmd struct {
	Slug   string `arg:"" help:"Target slug"`
	Reason string `help:"Why the target is being disabled"`
}
