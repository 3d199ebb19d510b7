package main

import (
	"fmt"
	"time"

	"github.com/mackayauctioneers-design/lotcrawl"
)

// Run executes the targets list command.
func (c *TargetsListCmd) Run(deps *Dependencies) error {
	filter := lotcrawl.TargetFilter{}
	if c.Enabled {
		enabled := true
		filter.Enabled = &enabled
	}
	if c.Status != "" {
		status := lotcrawl.ValidationStatus(c.Status)
		filter.ValidationStatus = &status
	}

	targets, err := deps.Targets.FindTargets(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", lotcrawl.ErrorMessage(err))
		return err
	}

	if len(targets) == 0 {
		fmt.Fprintln(deps.Stdout, "No targets found. Use 'lotcrawl targets add' to register one.")
		return nil
	}

	for _, t := range targets {
		state := "disabled"
		if t.Enabled {
			state = "enabled"
		}
		flags := ""
		if t.IsAnchor {
			flags = " [anchor]"
		}
		fmt.Fprintf(deps.Stdout, "%-30s %-8s %-8s %s%s\n",
			t.Slug, t.Strategy, state, t.ValidationStatus, flags)
	}

	return nil
}

// Run executes the targets add command.
func (c *TargetsAddCmd) Run(deps *Dependencies) error {
	target := &lotcrawl.Target{
		Slug:            c.Slug,
		Name:            c.Name,
		FetchURL:        c.URL,
		Strategy:        lotcrawl.Strategy(c.Strategy),
		Suburb:          c.Suburb,
		State:           c.State,
		Postcode:        c.Postcode,
		Region:          c.Region,
		IsAnchor:        c.Anchor,
		Priority:        c.Priority,
		RequireStableID: c.StrictID,
	}

	if err := deps.Targets.CreateTarget(deps.Ctx, target); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", lotcrawl.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Added target %s (%s). It starts pending; run 'lotcrawl validate' to qualify it.\n",
		target.Slug, target.Strategy)
	return nil
}

// Run executes the targets enable command.
func (c *TargetsEnableCmd) Run(deps *Dependencies) error {
	enabled := true
	reason := ""
	_, err := deps.Targets.UpdateTarget(deps.Ctx, c.Slug, lotcrawl.TargetUpdate{
		Enabled:         &enabled,
		DisabledReason:  &reason,
		ClearDisabledAt: true,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", lotcrawl.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Enabled target %s\n", c.Slug)
	return nil
}

// Run executes the targets disable command.
func (c *TargetsDisableCmd) Run(deps *Dependencies) error {
	enabled := false
	reason := c.Reason
	if reason == "" {
		reason = "disabled by operator"
	}
	now := time.Now()
	_, err := deps.Targets.UpdateTarget(deps.Ctx, c.Slug, lotcrawl.TargetUpdate{
		Enabled:        &enabled,
		DisabledReason: &reason,
		DisabledAt:     &now,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", lotcrawl.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Disabled target %s\n", c.Slug)
	return nil
}
