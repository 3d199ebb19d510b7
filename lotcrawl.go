// Package lotcrawl ingests vehicle-listing inventory from dealer websites.
// It fetches each configured rooftop site, extracts structured vehicle
// records using a per-target extraction strategy, filters them through a
// strict quality gate, tracks each target's historical yield for anomaly
// detection, and runs an auto-enable/auto-disable lifecycle over crawl
// targets based on run outcomes.
//
// This package contains domain types, interfaces, and the pure domain
// logic (stable-identity classification, quality gating, health checks,
// validation-state transitions) following Ben Johnson's Standard Package
// Layout. Implementations live in subdirectories named after their primary
// dependency (e.g., sqlite/, goquery/, http/).
package lotcrawl
