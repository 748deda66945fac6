// Package dedupe collapses duplicate listing records to one per identifier.
//
// The surviving row is the first one seen in source order. All bundled
// sources read listings ordered by identifier, so the pick is arbitrary but
// reproducible across runs. Known limitation carried over from the upstream
// pipeline: ties are not broken by recency or any quality signal.
package dedupe

import "listing-stats/internal/model"

// Deduper tracks seen identifiers across one pipeline run.
type Deduper struct {
	seen map[string]struct{}
}

// New returns a Deduper sized for the given expected row count.
func New(sizeHint int) *Deduper {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Deduper{seen: make(map[string]struct{}, sizeHint)}
}

// Keep reports whether l is the first occurrence of its identifier and
// records it. Later occurrences of the same identifier return false.
func (d *Deduper) Keep(l model.Listing) bool {
	if _, dup := d.seen[l.ID]; dup {
		return false
	}
	d.seen[l.ID] = struct{}{}
	return true
}

// Size returns the number of distinct identifiers seen so far.
func (d *Deduper) Size() int {
	return len(d.seen)
}
