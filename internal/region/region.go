// Package region resolves a listing's district to its administrative region.
package region

import (
	"listing-stats/internal/model"
	"listing-stats/internal/normalize"
)

// ReferenceRow is one row of the district->region reference table.
type ReferenceRow struct {
	District string
	Region   string
}

// Entry is the canonical labels stored under one district key.
type Entry struct {
	District string
	Region   string
}

// Lookup is the immutable in-memory reference table. Build it once and probe
// it for every listing; probes are O(1) map lookups.
type Lookup struct {
	byKey map[string]Entry
}

// Build constructs a Lookup from reference rows. Keys go through the same
// normalization as listing districts, so the join later is plain string
// equality. The first row wins when two rows normalize to the same key.
func Build(rows []ReferenceRow) *Lookup {
	byKey := make(map[string]Entry, len(rows))
	for _, r := range rows {
		key := normalize.DistrictKey(normalize.District(r.District))
		if key == "" {
			continue
		}
		if _, exists := byKey[key]; exists {
			continue
		}
		byKey[key] = Entry{District: r.District, Region: r.Region}
	}
	return &Lookup{byKey: byKey}
}

// Size returns the number of distinct district keys in the table.
func (lk *Lookup) Size() int {
	return len(lk.byKey)
}

// Join resolves one normalized listing against the lookup and derives its
// price per area. Left-join semantics: an unmatched district leaves Region
// nil and the row flows on. PricePerArea stays nil when price or area is
// missing, or the area is zero.
func (lk *Lookup) Join(nl model.NormalizedListing) model.JoinedListing {
	jl := model.JoinedListing{NormalizedListing: nl}

	if entry, ok := lk.byKey[nl.DistrictKey]; ok && nl.DistrictKey != "" {
		region := entry.Region
		jl.Region = &region
	}

	if nl.PriceTotal != nil && nl.LivingArea != nil && !nl.LivingArea.IsZero() {
		ppa := nl.PriceTotal.Div(*nl.LivingArea)
		jl.PricePerArea = &ppa
	}

	return jl
}
