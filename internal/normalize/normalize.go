// Package normalize derives the cleaned fields of a listing from its raw
// text columns. Every helper here is total: a value that cannot be parsed
// degrades to nil and the row is left for a later stage to drop.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"listing-stats/internal/model"
)

var (
	// hyphenRun collapses whitespace around a hyphen into a bare hyphen.
	hyphenRun = regexp.MustCompile(`\s*-\s*`)
	// spaceRun collapses any whitespace run into a single space.
	spaceRun = regexp.MustCompile(`\s+`)
)

// districtExceptions is a fixed two-entry mapping applied before key
// normalization. Matching is case-insensitive equality on the trimmed
// district. Extend only by adding entries; there is no general rule behind
// these, they correct two known quirks of the upstream export.
var districtExceptions = []struct {
	match   string
	replace string
}{
	{match: "Hlavní město Praha", replace: "Praha"},
	{match: "Ostrava", replace: "Ostrava-město"},
}

// timestampLayouts are the creation-timestamp formats seen in the export.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Listing derives all normalized fields for one deduplicated listing.
func Listing(l model.Listing) model.NormalizedListing {
	districtRaw := District(l.District)

	return model.NormalizedListing{
		Raw:          l,
		Year:         Year(l.CreatedAt),
		OfferType:    model.OfferType(canonicalEnum(l.OfferType)),
		PropertyType: model.PropertyType(canonicalEnum(l.PropertyType)),
		DistrictRaw:  districtRaw,
		DistrictKey:  DistrictKey(districtRaw),
		PriceTotal:   Decimal(l.PriceTotal),
		LivingArea:   Decimal(l.LivingArea),
		Latitude:     Float(l.Latitude),
		Longitude:    Float(l.Longitude),
	}
}

// Year extracts the year from a raw creation timestamp, nil if none of the
// accepted layouts match.
func Year(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			y := t.Year()
			return &y
		}
	}
	return nil
}

// District applies the fixed exception mapping to a raw district name.
// Unmatched names pass through with surrounding whitespace trimmed.
func District(raw string) string {
	trimmed := strings.TrimSpace(raw)
	for _, e := range districtExceptions {
		if strings.EqualFold(trimmed, e.match) {
			return e.replace
		}
	}
	return trimmed
}

// DistrictKey produces the join key for a district name: trimmed, whitespace
// runs around hyphens collapsed to a bare hyphen, remaining whitespace runs
// collapsed to single spaces, lowercased. Idempotent.
func DistrictKey(s string) string {
	s = strings.TrimSpace(s)
	s = hyphenRun.ReplaceAllString(s, "-")
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.ToLower(s)
}

// Decimal coerces a raw numeric string. Empty string and a lone "." are
// treated the same as absent; anything else unparseable also yields nil.
func Decimal(raw string) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "." {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	return &d
}

// Float coerces a raw coordinate string under the same tolerant policy.
func Float(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "." {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

func canonicalEnum(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
