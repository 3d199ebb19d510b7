package goquery

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mackayauctioneers-design/lotcrawl"
)

var _ lotcrawl.Extractor = (*DenseExtractor)(nil)

// Title containers observed across the dense platform family. The first
// container class present in a block wins.
var denseTitleContainers = []string{
	".vehicle-title",
	".listing-title",
	".inventory-title",
	".stock-title",
}

// Price sources in fallback order: explicit data attribute first, then the
// platform's price elements.
var densePriceSelectors = []string{
	".price",
	".vehicle-price",
	".drive-away-price",
}

// Odometer sources in fallback order.
var denseKMSelectors = []string{
	".odometer",
	".kms",
	".mileage",
}

// DenseExtractor handles the denser platform family where listing blocks
// carry a primary marker attribute but fields are spread across several
// possible locations. Year, make, and model resolve through three ordered
// fallbacks per block: scoped sub-elements inside a known title container,
// the anchor's title attribute, then an image alt attribute. The first
// fallback that yields all three required fields wins.
//
// Every resolved field passes a sanity check before the candidate is
// accepted; any failure rejects the whole block rather than emitting
// partial data.
type DenseExtractor struct {
	// Logger records why blocks were rejected, at debug level. Defaults
	// to slog.Default().
	Logger *slog.Logger
}

// NewDenseExtractor creates a new DenseExtractor.
func NewDenseExtractor() *DenseExtractor {
	return &DenseExtractor{}
}

// Extract locates listing blocks by their marker attribute and resolves
// each one through the fallback chains. Blocks that cannot be resolved are
// skipped and lower the raw-candidate count; they are never errors. Each
// skip is logged with the specific check that rejected the block.
func (e *DenseExtractor) Extract(html string, target *lotcrawl.Target) ([]*lotcrawl.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, lotcrawl.Errorf(lotcrawl.EINVALID, "failed to parse HTML: %v", err)
	}

	base, _ := url.Parse(target.FetchURL)

	var records []*lotcrawl.Record
	doc.Find("[data-listing-id]").Each(func(_ int, sel *goquery.Selection) {
		rec, reason := e.extractBlock(sel, base, target)
		if reason != "" {
			listingID, _ := sel.Attr("data-listing-id")
			e.logger().Debug("listing block skipped",
				"target", target.Slug,
				"listingID", listingID,
				"reason", reason,
			)
			return
		}
		records = append(records, rec)
	})

	return records, nil
}

func (e *DenseExtractor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// extractBlock resolves one listing block. The returned reason is "" on
// success, otherwise it names the first sanity check or fallback chain
// that failed.
func (e *DenseExtractor) extractBlock(sel *goquery.Selection, base *url.URL, target *lotcrawl.Target) (*lotcrawl.Record, string) {
	title, ok := e.resolveTitle(sel)
	if !ok {
		return nil, "title_unresolved"
	}

	if !yearPlausible(title.Year) {
		return nil, "year_implausible"
	}
	if !makeWellFormed(title.Make) {
		return nil, "make_malformed"
	}
	if !modelWellFormed(title.Model) {
		return nil, "model_malformed"
	}
	if strings.EqualFold(title.Make, title.Model) {
		return nil, "make_equals_model"
	}

	rec := newRecord(target)
	rec.SourceListingID = strings.TrimSpace(sel.AttrOr("data-listing-id", ""))
	rec.Year = title.Year
	rec.Make = title.Make
	rec.Model = title.Model
	rec.Variant = title.Variant

	if price, ok := firstMatch(e.attrSource(sel, "data-price"), e.textSources(sel, densePriceSelectors)); ok {
		if parsed, ok := parsePrice(price); ok {
			rec.Price = parsed
		}
	}
	if km, ok := firstMatch(e.attrSource(sel, "data-odometer"), e.textSources(sel, denseKMSelectors)); ok {
		if parsed, ok := parseKM(km); ok {
			rec.KM = parsed
		}
	}
	if transmission, ok := e.textSources(sel, []string{".transmission"})(); ok {
		rec.Transmission = strings.TrimSpace(transmission)
	}
	if fuel, ok := e.textSources(sel, []string{".fuel-type", ".fuel"})(); ok {
		rec.Fuel = strings.TrimSpace(fuel)
	}

	sel.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if resolved := absoluteURL(base, a.AttrOr("href", "")); resolved != "" {
			rec.ListingURL = resolved
			return false
		}
		return true
	})

	return rec, ""
}

// resolveTitle runs the three ordered title fallbacks and stops at the
// first that yields year, make, and model together.
func (e *DenseExtractor) resolveTitle(sel *goquery.Selection) (titleParts, bool) {
	if parts, ok := e.titleFromContainer(sel); ok {
		return parts, true
	}
	if parts, ok := e.titleFromAnchorAttr(sel); ok {
		return parts, true
	}
	return e.titleFromImageAlt(sel)
}

// titleFromContainer reads scoped .year/.make/.model/.variant sub-elements
// inside the first known title container present in the block.
func (e *DenseExtractor) titleFromContainer(sel *goquery.Selection) (titleParts, bool) {
	for _, containerClass := range denseTitleContainers {
		container := sel.Find(containerClass).First()
		if container.Length() == 0 {
			continue
		}

		year, ok := parseYear(container.Find(".year").First().Text())
		if !ok {
			continue
		}
		makeName := strings.TrimSpace(container.Find(".make").First().Text())
		model := strings.TrimSpace(container.Find(".model").First().Text())
		if makeName == "" || model == "" {
			continue
		}

		return titleParts{
			Year:    year,
			Make:    makeName,
			Model:   model,
			Variant: strings.TrimSpace(container.Find(".variant").First().Text()),
		}, true
	}
	return titleParts{}, false
}

// titleFromAnchorAttr pattern-matches the title attribute of the block's
// anchors.
func (e *DenseExtractor) titleFromAnchorAttr(sel *goquery.Selection) (titleParts, bool) {
	var parts titleParts
	var found bool
	sel.Find("a[title]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if p, ok := parseTitle(a.AttrOr("title", "")); ok {
			parts = p
			found = true
			return false
		}
		return true
	})
	return parts, found
}

// titleFromImageAlt pattern-matches image alt attributes, the last resort.
func (e *DenseExtractor) titleFromImageAlt(sel *goquery.Selection) (titleParts, bool) {
	var parts titleParts
	var found bool
	sel.Find("img[alt]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		if p, ok := parseTitle(img.AttrOr("alt", "")); ok {
			parts = p
			found = true
			return false
		}
		return true
	})
	return parts, found
}

// attrSource returns a fieldExtractor reading an attribute on the block
// itself.
func (e *DenseExtractor) attrSource(sel *goquery.Selection, attr string) fieldExtractor {
	return func() (string, bool) {
		value := strings.TrimSpace(sel.AttrOr(attr, ""))
		return value, value != ""
	}
}

// textSources returns a fieldExtractor trying each selector's text in
// order.
func (e *DenseExtractor) textSources(sel *goquery.Selection, selectors []string) fieldExtractor {
	return func() (string, bool) {
		for _, selector := range selectors {
			if text := strings.TrimSpace(sel.Find(selector).First().Text()); text != "" {
				return text, true
			}
		}
		return "", false
	}
}
