package lotcrawl

import "context"

// SellerHints flags dealer-sourced provenance on an extracted record.
type SellerHints struct {
	IsDealer   bool   `json:"isDealer"`
	DealerName string `json:"dealerName,omitempty"`
}

// Record is the as-extracted, unvalidated output of an extraction strategy.
// It is a transient, per-run value and is never persisted directly; records
// that pass the quality gate are handed to the ingest collaborator, which
// owns deduplication and merge-by-identity.
//
// Price is in whole currency units and KM is the odometer reading; zero
// means the field was absent from the source page.
type Record struct {
	SourceListingID string `json:"sourceListingId"`
	Year            int    `json:"year"`
	Make            string `json:"make"`
	Model           string `json:"model"`
	Variant         string `json:"variant,omitempty"`
	KM              int    `json:"km,omitempty"`
	Price           int    `json:"price,omitempty"`
	Transmission    string `json:"transmission,omitempty"`
	Fuel            string `json:"fuel,omitempty"`
	ListingURL      string `json:"listingUrl"`

	// Location defaults inherited from the crawl target.
	Suburb   string `json:"suburb,omitempty"`
	State    string `json:"state,omitempty"`
	Postcode string `json:"postcode,omitempty"`
	Region   string `json:"region,omitempty"`

	SellerHints SellerHints `json:"sellerHints"`
}

// IngestResult reports what the ingest collaborator did with a batch.
type IngestResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// Total returns the number of records the collaborator accepted.
func (r IngestResult) Total() int {
	return r.Created + r.Updated
}

// Ingestor hands validated record batches to the downstream record store.
// Dedup and merge logic live entirely behind this interface.
type Ingestor interface {
	Ingest(ctx context.Context, targetSlug string, records []*Record) (IngestResult, error)
}
