package goquery

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cespare/xxhash/v2"
	"github.com/mackayauctioneers-design/lotcrawl"
)

var _ lotcrawl.Extractor = (*JSONLDExtractor)(nil)

// JSONLDExtractor handles platforms that embed inventory as structured
// linked-data blocks (script type="application/ld+json"). It understands
// single objects, arrays, @graph wrappers, and ItemList forms, and accepts
// items typed Vehicle, Car, or Product.
//
// Year, make, and model are pattern-matched from the item's combined name
// string. The stable identifier resolves through a priority order: SKU,
// product id, manufacturer part number, a VIN-derived short id, and as a
// last resort a hash of the detail URL.
type JSONLDExtractor struct{}

// NewJSONLDExtractor creates a new JSONLDExtractor.
func NewJSONLDExtractor() *JSONLDExtractor {
	return &JSONLDExtractor{}
}

// Extract parses every linked-data block on the page. Blocks or items that
// cannot be parsed are skipped, never errors.
func (e *JSONLDExtractor) Extract(html string, target *lotcrawl.Target) ([]*lotcrawl.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, lotcrawl.Errorf(lotcrawl.EINVALID, "failed to parse HTML: %v", err)
	}

	base, _ := url.Parse(target.FetchURL)

	var records []*lotcrawl.Record
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var payload any
		if err := json.Unmarshal([]byte(sel.Text()), &payload); err != nil {
			return
		}
		for _, item := range flattenLinkedData(payload) {
			if rec := e.itemToRecord(item, base, target); rec != nil {
				records = append(records, rec)
			}
		}
	})

	return records, nil
}

// flattenLinkedData unwraps the list-of-items and graph-wrapped forms down
// to the individual item objects.
func flattenLinkedData(payload any) []map[string]any {
	var items []map[string]any

	switch v := payload.(type) {
	case []any:
		for _, entry := range v {
			items = append(items, flattenLinkedData(entry)...)
		}
	case map[string]any:
		if graph, ok := v["@graph"].([]any); ok {
			for _, entry := range graph {
				items = append(items, flattenLinkedData(entry)...)
			}
			return items
		}
		if typeMatches(v["@type"], "ItemList") {
			if elements, ok := v["itemListElement"].([]any); ok {
				for _, entry := range elements {
					element, ok := entry.(map[string]any)
					if !ok {
						continue
					}
					// ListItem wrappers hold the real item under "item".
					if inner, ok := element["item"].(map[string]any); ok {
						items = append(items, flattenLinkedData(inner)...)
					} else {
						items = append(items, flattenLinkedData(element)...)
					}
				}
			}
			return items
		}
		items = append(items, v)
	}

	return items
}

// typeMatches reports whether an @type value (string or array of strings)
// contains want, case-insensitively.
func typeMatches(typeValue any, want string) bool {
	switch v := typeValue.(type) {
	case string:
		return strings.EqualFold(v, want)
	case []any:
		for _, entry := range v {
			if s, ok := entry.(string); ok && strings.EqualFold(s, want) {
				return true
			}
		}
	}
	return false
}

// vehicleTyped reports whether the item is structured vehicle/product data.
func vehicleTyped(item map[string]any) bool {
	return typeMatches(item["@type"], "Vehicle") ||
		typeMatches(item["@type"], "Car") ||
		typeMatches(item["@type"], "Product")
}

// itemToRecord converts one linked-data item into a candidate record, or
// nil if the item does not resolve.
func (e *JSONLDExtractor) itemToRecord(item map[string]any, base *url.URL, target *lotcrawl.Target) *lotcrawl.Record {
	if !vehicleTyped(item) {
		return nil
	}

	title, ok := parseTitle(stringField(item, "name"))
	if !ok || !yearPlausible(title.Year) {
		return nil
	}

	rec := newRecord(target)
	rec.Year = title.Year
	rec.Make = title.Make
	rec.Model = title.Model
	rec.Variant = title.Variant

	offers, _ := item["offers"].(map[string]any)
	if offerList, ok := item["offers"].([]any); ok && len(offerList) > 0 {
		offers, _ = offerList[0].(map[string]any)
	}

	rec.ListingURL = absoluteURL(base, stringField(item, "url"))
	if rec.ListingURL == "" && offers != nil {
		rec.ListingURL = absoluteURL(base, stringField(offers, "url"))
	}

	if offers != nil {
		if price, ok := parsePrice(stringOrNumber(offers["price"])); ok {
			rec.Price = price
		}
	}

	if odometer, ok := item["mileageFromOdometer"].(map[string]any); ok {
		if km, ok := parseKM(stringOrNumber(odometer["value"])); ok {
			rec.KM = km
		}
	} else if km, ok := parseKM(stringOrNumber(item["mileageFromOdometer"])); ok {
		rec.KM = km
	}

	rec.Transmission = stringField(item, "vehicleTransmission")
	rec.Fuel = stringField(item, "fuelType")
	rec.SourceListingID = stableIDFor(item, rec.ListingURL)

	return rec
}

// stableIDFor resolves the dedupe identifier through the priority order:
// SKU, product id, MPN, VIN-derived short id, then a hash of the detail
// URL.
func stableIDFor(item map[string]any, listingURL string) string {
	if sku := stringField(item, "sku"); sku != "" {
		return sku
	}
	if productID := stringOrNumber(item["productID"]); productID != "" {
		return productID
	}
	if mpn := stringOrNumber(item["mpn"]); mpn != "" {
		return mpn
	}
	if vin := stringField(item, "vehicleIdentificationNumber"); len(vin) >= 8 {
		return "vin-" + strings.ToUpper(vin[len(vin)-8:])
	}
	if listingURL != "" {
		return fmt.Sprintf("url-%x", xxhash.Sum64String(listingURL))
	}
	return ""
}

// stringField returns a trimmed string property.
func stringField(item map[string]any, key string) string {
	s, _ := item[key].(string)
	return strings.TrimSpace(s)
}

// stringOrNumber renders a JSON string or number property as a string.
func stringOrNumber(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}
