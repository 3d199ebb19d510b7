package main

import (
	"encoding/json"
	"fmt"

	"github.com/mackayauctioneers-design/lotcrawl/crawl"
)

// Run executes the cron command.
func (c *CronCmd) Run(deps *Dependencies) error {
	summary, err := deps.Orchestrator.RunSharded(deps.Ctx, crawl.ModeCron, nil, c.Shards)
	if err != nil {
		return err
	}
	return printSummary(deps, summary, c.JSON)
}

// Run executes the validate command.
func (c *ValidateCmd) Run(deps *Dependencies) error {
	summary, err := deps.Orchestrator.Run(deps.Ctx, crawl.ModeValidate, nil)
	if err != nil {
		return err
	}
	return printSummary(deps, summary, c.JSON)
}

// Run executes the run command.
func (c *RunCmd) Run(deps *Dependencies) error {
	summary, err := deps.Orchestrator.Run(deps.Ctx, crawl.ModeManual, c.Slugs)
	if err != nil {
		return err
	}
	return printSummary(deps, summary, c.JSON)
}

// printSummary renders a run summary for operators, or as JSON for
// machine consumers.
func printSummary(deps *Dependencies, summary *crawl.Summary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Fprintf(deps.Stdout, "%s run: %d targets, %d skipped\n",
		summary.Mode, summary.TargetsProcessed, summary.TargetsSkipped)
	fmt.Fprintf(deps.Stdout, "  found %d, ingested %d, dropped %d\n",
		summary.TotalFound, summary.TotalIngested, summary.TotalDropped)

	if summary.TargetsWithError > 0 || summary.TargetsWithAlert > 0 {
		fmt.Fprintf(deps.Stdout, "  errors %d, alerts %d\n",
			summary.TargetsWithError, summary.TargetsWithAlert)
	}
	if summary.TargetsPromoted > 0 || summary.TargetsDisabled > 0 {
		fmt.Fprintf(deps.Stdout, "  promoted %d, disabled %d\n",
			summary.TargetsPromoted, summary.TargetsDisabled)
	}

	for _, r := range summary.Results {
		if r.Error == "" {
			continue
		}
		fmt.Fprintf(deps.Stderr, "  %s: %s\n", r.Slug, r.Error)
	}
	return nil
}
