package lotcrawl_test

import (
	"fmt"
	"testing"

	"github.com/mackayauctioneers-design/lotcrawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// goodRecord returns a candidate that passes every gate rule.
func goodRecord(id string) *lotcrawl.Record {
	return &lotcrawl.Record{
		SourceListingID: id,
		Year:            2019,
		Make:            "Toyota",
		Model:           "Hilux",
		Price:           35990,
		ListingURL:      "https://example-motors.com.au/stock/" + id,
	}
}

func TestGate_Apply_passes_clean_candidates_in_order(t *testing.T) {
	t.Parallel()

	gate := lotcrawl.DefaultGate()
	candidates := []*lotcrawl.Record{goodRecord("STK1001"), goodRecord("STK1002"), goodRecord("STK1003")}

	result := gate.Apply(candidates, &lotcrawl.Target{Slug: "example"})

	require.Len(t, result.Passed, 3)
	assert.Equal(t, "STK1001", result.Passed[0].SourceListingID)
	assert.Equal(t, "STK1002", result.Passed[1].SourceListingID)
	assert.Equal(t, "STK1003", result.Passed[2].SourceListingID)
	assert.Zero(t, result.DroppedCount)
	assert.Empty(t, result.DropReasons)
}

func TestGate_Apply_accepts_compound_makes(t *testing.T) {
	t.Parallel()

	gate := lotcrawl.DefaultGate()

	alfa := goodRecord("STK1101")
	alfa.Make = "Alfa Romeo"
	alfa.Model = "Giulia"
	merc := goodRecord("STK1102")
	merc.Make = "Mercedes-Benz"
	merc.Model = "C200"

	result := gate.Apply([]*lotcrawl.Record{alfa, merc}, &lotcrawl.Target{Slug: "example"})

	assert.Len(t, result.Passed, 2)
	assert.Zero(t, result.DroppedCount)
}

func TestGate_Apply_drop_reasons(t *testing.T) {
	t.Parallel()

	gate := lotcrawl.DefaultGate()

	tests := []struct {
		name   string
		mutate func(*lotcrawl.Record)
		reason string
	}{
		{"missing listing id", func(r *lotcrawl.Record) { r.SourceListingID = "" }, lotcrawl.DropMissingListingID},
		{"missing url", func(r *lotcrawl.Record) { r.ListingURL = "  " }, lotcrawl.DropMissingURL},
		{"missing price", func(r *lotcrawl.Record) { r.Price = 0 }, lotcrawl.DropMissingPrice},
		{"negative price", func(r *lotcrawl.Record) { r.Price = -500 }, lotcrawl.DropMissingPrice},
		{"price below band", func(r *lotcrawl.Record) { r.Price = 1500 }, lotcrawl.DropPriceOutOfRange},
		{"price above band", func(r *lotcrawl.Record) { r.Price = 900000 }, lotcrawl.DropPriceOutOfRange},
		{"year too old", func(r *lotcrawl.Record) { r.Year = 1997 }, lotcrawl.DropYearTooOld},
		{"missing make", func(r *lotcrawl.Record) { r.Make = "" }, lotcrawl.DropMissingMakeModel},
		{"missing model", func(r *lotcrawl.Record) { r.Model = " " }, lotcrawl.DropMissingMakeModel},
		{"numeric make", func(r *lotcrawl.Record) { r.Make = "2021" }, lotcrawl.DropMissingMakeModel},
		{"non-alphabetic make", func(r *lotcrawl.Record) { r.Make = "T0y0ta!" }, lotcrawl.DropMissingMakeModel},
		{"make equals model", func(r *lotcrawl.Record) { r.Model = "toyota" }, lotcrawl.DropModelEqualsMake},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := goodRecord("STK2001")
			tt.mutate(rec)

			result := gate.Apply([]*lotcrawl.Record{rec}, &lotcrawl.Target{Slug: "example"})

			assert.Empty(t, result.Passed)
			assert.Equal(t, 1, result.DroppedCount)
			assert.Equal(t, map[string]int{tt.reason: 1}, result.DropReasons)
		})
	}
}

func TestGate_Apply_strict_target_requires_stable_id(t *testing.T) {
	t.Parallel()

	gate := lotcrawl.DefaultGate()
	strict := &lotcrawl.Target{Slug: "example", RequireStableID: true}
	lax := &lotcrawl.Target{Slug: "example"}

	rec := goodRecord("ab") // present but not dedupe-grade

	strictResult := gate.Apply([]*lotcrawl.Record{rec}, strict)
	assert.Empty(t, strictResult.Passed)
	assert.Equal(t, map[string]int{lotcrawl.DropUnstableListingID: 1}, strictResult.DropReasons)

	laxResult := gate.Apply([]*lotcrawl.Record{rec}, lax)
	assert.Len(t, laxResult.Passed, 1)
}

// 30 candidates: 5 missing price, 3 below the minimum price, 2 with
// make==model leaves 20 passed with reason counts matching exactly.
func TestGate_Apply_mixed_batch_accounting(t *testing.T) {
	t.Parallel()

	gate := lotcrawl.DefaultGate()

	var candidates []*lotcrawl.Record
	for i := 0; i < 30; i++ {
		rec := goodRecord(fmt.Sprintf("STK3%03d", i))
		switch {
		case i < 5:
			rec.Price = 0
		case i < 8:
			rec.Price = 1999
		case i < 10:
			rec.Make = "Mazda"
			rec.Model = "MAZDA"
		}
		candidates = append(candidates, rec)
	}

	result := gate.Apply(candidates, &lotcrawl.Target{Slug: "example"})

	assert.Len(t, result.Passed, 20)
	assert.Equal(t, 10, result.DroppedCount)
	assert.Equal(t, map[string]int{
		lotcrawl.DropMissingPrice:    5,
		lotcrawl.DropPriceOutOfRange: 3,
		lotcrawl.DropModelEqualsMake: 2,
	}, result.DropReasons)
}

// Gate accounting invariants hold for any input: passed plus dropped equals
// the candidate count, and reason counts sum to the dropped count.
func TestGate_Apply_accounting_invariants(t *testing.T) {
	t.Parallel()

	gate := lotcrawl.DefaultGate()

	candidates := []*lotcrawl.Record{
		goodRecord("STK4001"),
		{SourceListingID: "STK4002"}, // no URL, no price
		goodRecord("STK4003"),
		{},                     // empty candidate
		goodRecord("dup-make"), // passes
	}
	candidates[4].Make = "Kia"
	candidates[4].Model = "Sportage"

	result := gate.Apply(candidates, &lotcrawl.Target{Slug: "example"})

	assert.Equal(t, len(candidates), len(result.Passed)+result.DroppedCount)
	var reasonSum int
	for _, n := range result.DropReasons {
		reasonSum += n
	}
	assert.Equal(t, result.DroppedCount, reasonSum)

	for _, rec := range result.Passed {
		assert.NotEqual(t, "", rec.SourceListingID)
	}
}
