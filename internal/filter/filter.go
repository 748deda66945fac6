// Package filter enforces domain validity on joined listings.
//
// The chain is a list of independent predicates; a row survives only if all
// of them pass. No predicate depends on another's side effects, so their
// order is irrelevant to the outcome. A predicate whose operand is nil
// fails the row, it never errors.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"listing-stats/internal/model"
)

var allDigits = regexp.MustCompile(`^[0-9]+$`)

// Range is an inclusive numeric interval.
type Range struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Contains reports whether v lies in the interval.
func (r Range) Contains(v decimal.Decimal) bool {
	return v.GreaterThanOrEqual(r.Min) && v.LessThanOrEqual(r.Max)
}

// Bounds holds every tunable numeric limit of the chain. The price-per-area
// ranges are independent configuration constants per offer type, not values
// derived from the data.
type Bounds struct {
	Area Range

	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64

	PricePerArea map[model.OfferType]Range
}

// DefaultBounds returns the production limits: living area 16–500 m²,
// the country bounding box, rent 50–1500 and sale 5000–300000 per m².
func DefaultBounds() Bounds {
	return Bounds{
		Area: Range{
			Min: decimal.NewFromInt(16),
			Max: decimal.NewFromInt(500),
		},
		LatMin: 48.5,
		LatMax: 51.1,
		LonMin: 12.0,
		LonMax: 18.9,
		PricePerArea: map[model.OfferType]Range{
			model.OfferRent: {
				Min: decimal.NewFromInt(50),
				Max: decimal.NewFromInt(1500),
			},
			model.OfferSale: {
				Min: decimal.NewFromInt(5000),
				Max: decimal.NewFromInt(300000),
			},
		},
	}
}

// Validate rejects malformed limits. This is the only fatal error class in
// the pipeline and runs at construction time, before any row is processed.
func (b Bounds) Validate() error {
	if b.Area.Min.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("filter: area lower bound must be positive, got %s", b.Area.Min)
	}
	if b.Area.Max.LessThan(b.Area.Min) {
		return fmt.Errorf("filter: area bounds inverted: [%s, %s]", b.Area.Min, b.Area.Max)
	}
	if b.LatMax < b.LatMin {
		return fmt.Errorf("filter: latitude bounds inverted: [%v, %v]", b.LatMin, b.LatMax)
	}
	if b.LonMax < b.LonMin {
		return fmt.Errorf("filter: longitude bounds inverted: [%v, %v]", b.LonMin, b.LonMax)
	}
	for _, offer := range []model.OfferType{model.OfferSale, model.OfferRent} {
		r, ok := b.PricePerArea[offer]
		if !ok {
			return fmt.Errorf("filter: missing price-per-area range for offer type %q", offer)
		}
		if r.Min.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("filter: price-per-area lower bound for %q must be positive, got %s", offer, r.Min)
		}
		if r.Max.LessThan(r.Min) {
			return fmt.Errorf("filter: price-per-area bounds for %q inverted: [%s, %s]", offer, r.Min, r.Max)
		}
	}
	return nil
}

// Predicate is one named validity check.
type Predicate struct {
	Name string
	Keep func(model.JoinedListing) bool
}

// Chain evaluates all predicates against each row.
type Chain struct {
	predicates []Predicate
}

// NewChain validates the bounds and builds the canonical predicate set.
func NewChain(b Bounds) (*Chain, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	return &Chain{predicates: []Predicate{
		{Name: "property_type", Keep: func(jl model.JoinedListing) bool {
			return jl.PropertyType == model.PropertyApartment || jl.PropertyType == model.PropertyHouse
		}},
		{Name: "offer_type", Keep: func(jl model.JoinedListing) bool {
			return jl.OfferType == model.OfferSale || jl.OfferType == model.OfferRent
		}},
		{Name: "living_area", Keep: func(jl model.JoinedListing) bool {
			return jl.LivingArea != nil && b.Area.Contains(*jl.LivingArea)
		}},
		{Name: "price_total", Keep: func(jl model.JoinedListing) bool {
			return jl.PriceTotal != nil && jl.PriceTotal.GreaterThan(decimal.Zero)
		}},
		{Name: "location_present", Keep: func(jl model.JoinedListing) bool {
			if jl.Latitude != nil && jl.Longitude != nil {
				return true
			}
			return strings.TrimSpace(jl.DistrictRaw) != ""
		}},
		{Name: "coordinate_bounds", Keep: func(jl model.JoinedListing) bool {
			if jl.Latitude == nil || jl.Longitude == nil {
				return true
			}
			return *jl.Latitude >= b.LatMin && *jl.Latitude <= b.LatMax &&
				*jl.Longitude >= b.LonMin && *jl.Longitude <= b.LonMax
		}},
		{Name: "district_not_numeric", Keep: func(jl model.JoinedListing) bool {
			d := strings.TrimSpace(jl.DistrictRaw)
			if d == "" {
				return true
			}
			return !allDigits.MatchString(d)
		}},
		{Name: "price_per_area", Keep: func(jl model.JoinedListing) bool {
			if jl.PricePerArea == nil {
				return false
			}
			r, ok := b.PricePerArea[jl.OfferType]
			if !ok {
				return false
			}
			return r.Contains(*jl.PricePerArea)
		}},
	}}, nil
}

// Keep reports whether the row survives every predicate. On rejection the
// second return names the first predicate that failed, for drop logging.
func (c *Chain) Keep(jl model.JoinedListing) (bool, string) {
	for _, p := range c.predicates {
		if !p.Keep(jl) {
			return false, p.Name
		}
	}
	return true, ""
}
