// Package http provides HTTP-based implementations of the fetch and ingest
// collaborators.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mackayauctioneers-design/lotcrawl"
)

// DefaultFetchTimeout is the default timeout for page fetches. Dealer
// sites are slow; 30s leaves headroom for a managed scrape service.
const DefaultFetchTimeout = 30 * time.Second

// Ensure Fetcher implements lotcrawl.Fetcher at compile time.
var _ lotcrawl.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves raw page content over HTTP. By default it goes direct;
// configured with a scrape API it routes every request through a managed
// fetch service instead, which handles rendering and anti-bot measures.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string

	scrapeEndpoint string
	scrapeKey      string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header for direct fetches.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithScrapeAPI routes fetches through a managed scrape service. The
// endpoint receives the target URL and key as query parameters and returns
// the raw page content.
func WithScrapeAPI(endpoint, key string) Option {
	return func(f *Fetcher) {
		f.scrapeEndpoint = endpoint
		f.scrapeKey = key
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultFetchTimeout,
		userAgent: "lotcrawl/1.0",
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// Fetch retrieves the page content for the given URL.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	requestURL := pageURL
	if f.scrapeEndpoint != "" {
		u, err := url.Parse(f.scrapeEndpoint)
		if err != nil {
			return "", lotcrawl.Errorf(lotcrawl.EINVALID, "invalid scrape endpoint: %v", err)
		}
		q := u.Query()
		q.Set("url", pageURL)
		if f.scrapeKey != "" {
			q.Set("api_key", f.scrapeKey)
		}
		u.RawQuery = q.Encode()
		requestURL = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", lotcrawl.Errorf(lotcrawl.EUNAVAILABLE, "fetch %s: %v", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", lotcrawl.Errorf(lotcrawl.EUNAVAILABLE, "fetch %s: HTTP %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	return string(body), nil
}
