package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mackayauctioneers-design/lotcrawl"
)

var _ lotcrawl.Extractor = (*AttrExtractor)(nil)

// AttrExtractor handles platforms that publish inventory as repeated HTML
// blocks carrying a fixed set of data attributes. It is the simplest and
// most reliable strategy: every field is explicitly tagged, so the only
// heuristics are price parsing and detail-URL resolution.
//
// A block looks like:
//
//	<div data-stock-number="U10423" data-vehicle-id="88231"
//	     data-price="35990" data-year="2019"
//	     data-make="Toyota" data-model="Hilux">
//	  <a href="/stock/u10423">...</a>
//	</div>
type AttrExtractor struct{}

// NewAttrExtractor creates a new AttrExtractor.
func NewAttrExtractor() *AttrExtractor {
	return &AttrExtractor{}
}

// Extract scans for attribute-tagged blocks and returns candidate records
// deduplicated by stock number within the page. Candidates lacking a
// resolvable detail URL are emitted with an empty URL so the quality gate
// rejects and counts them instead of losing them silently.
func (e *AttrExtractor) Extract(html string, target *lotcrawl.Target) ([]*lotcrawl.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, lotcrawl.Errorf(lotcrawl.EINVALID, "failed to parse HTML: %v", err)
	}

	base, _ := url.Parse(target.FetchURL)

	seen := make(map[string]bool)
	var records []*lotcrawl.Record

	doc.Find("[data-stock-number], [data-vehicle-id]").Each(func(_ int, sel *goquery.Selection) {
		stock := strings.TrimSpace(sel.AttrOr("data-stock-number", ""))
		if stock == "" {
			// Fall back to the platform's internal vehicle id.
			stock = strings.TrimSpace(sel.AttrOr("data-vehicle-id", ""))
		}
		if stock == "" {
			return
		}
		// In-page dedup by stock number; platforms repeat blocks for
		// mobile and desktop layouts.
		if seen[stock] {
			return
		}
		seen[stock] = true

		rec := newRecord(target)
		rec.SourceListingID = stock
		rec.Make = strings.TrimSpace(sel.AttrOr("data-make", ""))
		rec.Model = strings.TrimSpace(sel.AttrOr("data-model", ""))

		if year, ok := parseYear(sel.AttrOr("data-year", "")); ok {
			rec.Year = year
		}
		if price, ok := parsePrice(sel.AttrOr("data-price", "")); ok {
			rec.Price = price
		}

		// The same-record anchor link is the canonical detail URL.
		sel.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			if resolved := absoluteURL(base, a.AttrOr("href", "")); resolved != "" {
				rec.ListingURL = resolved
				return false
			}
			return true
		})

		records = append(records, rec)
	})

	return records, nil
}

// newRecord seeds a record with the target's location defaults and dealer
// provenance.
func newRecord(target *lotcrawl.Target) *lotcrawl.Record {
	return &lotcrawl.Record{
		Suburb:   target.Suburb,
		State:    target.State,
		Postcode: target.Postcode,
		Region:   target.Region,
		SellerHints: lotcrawl.SellerHints{
			IsDealer:   true,
			DealerName: target.Name,
		},
	}
}
