package lotcrawl

import "context"

// Fetcher retrieves raw page content for one URL per call.
// Implementations may go direct or route through a managed scrape service;
// either way the core only needs the raw HTML. Retry and backoff policy
// belong to the implementation, not the orchestrator: within a single run a
// fetch failure is recorded as the target's error outcome and never retried.
type Fetcher interface {
	// Fetch returns the page content for url.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)
}
