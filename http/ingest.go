package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mackayauctioneers-design/lotcrawl"
)

// DefaultIngestTimeout bounds one batch hand-off to the warehouse.
const DefaultIngestTimeout = 60 * time.Second

// Ensure Ingestor implements lotcrawl.Ingestor at compile time.
var _ lotcrawl.Ingestor = (*Ingestor)(nil)

// Ingestor hands validated record batches to the downstream record store
// over HTTP. Deduplication and merge-by-identity happen on the other side
// of this call; the client only relays the created/updated counts back.
type Ingestor struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

// NewIngestor creates an Ingestor posting batches to the given endpoint.
// The key, if non-empty, is sent as a bearer token.
func NewIngestor(endpoint, apiKey string) *Ingestor {
	return &Ingestor{
		client:   &http.Client{Timeout: DefaultIngestTimeout},
		endpoint: endpoint,
		apiKey:   apiKey,
	}
}

// ingestRequest is the wire shape of one batch.
type ingestRequest struct {
	TargetSlug string             `json:"targetSlug"`
	Records    []*lotcrawl.Record `json:"records"`
}

// Ingest posts the batch and returns the warehouse's created/updated
// counts.
func (i *Ingestor) Ingest(ctx context.Context, targetSlug string, records []*lotcrawl.Record) (lotcrawl.IngestResult, error) {
	payload, err := json.Marshal(ingestRequest{TargetSlug: targetSlug, Records: records})
	if err != nil {
		return lotcrawl.IngestResult{}, fmt.Errorf("marshal ingest batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.endpoint, bytes.NewReader(payload))
	if err != nil {
		return lotcrawl.IngestResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if i.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+i.apiKey)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return lotcrawl.IngestResult{}, lotcrawl.Errorf(lotcrawl.EUNAVAILABLE, "ingest %s: %v", targetSlug, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return lotcrawl.IngestResult{}, lotcrawl.Errorf(lotcrawl.EUNAVAILABLE, "ingest %s: HTTP %d", targetSlug, resp.StatusCode)
	}

	var result lotcrawl.IngestResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return lotcrawl.IngestResult{}, fmt.Errorf("decode ingest response: %w", err)
	}

	return result, nil
}
