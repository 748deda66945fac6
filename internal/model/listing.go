// Package model defines the record types handed between pipeline stages.
// Every type is an immutable snapshot: a stage builds a new value and the
// next stage consumes it, nothing is mutated in place.
package model

import (
	"github.com/shopspring/decimal"
)

// OfferType classifies a listing by transaction kind.
type OfferType string

const (
	OfferSale OfferType = "sale"
	OfferRent OfferType = "rent"
)

// PropertyType classifies a listing by property kind.
type PropertyType string

const (
	PropertyApartment PropertyType = "apartment"
	PropertyHouse     PropertyType = "house"
	PropertyOther     PropertyType = "other"
)

// Listing is a raw input row as delivered by the listings source. Numeric
// and date fields stay as text here: the warehouse export does not guarantee
// they parse, and coercion is the Normalizer's job.
type Listing struct {
	ID           string
	CreatedAt    string
	OfferType    string
	PropertyType string
	PriceTotal   string
	LivingArea   string
	District     string
	Latitude     string
	Longitude    string
}

// NormalizedListing is a Listing with derived fields attached. Nil pointers
// mean the raw value was absent or failed coercion.
type NormalizedListing struct {
	Raw Listing

	Year         *int
	OfferType    OfferType
	PropertyType PropertyType

	// DistrictRaw is the district after the fixed exception mapping,
	// DistrictKey its normalized form used only for joining.
	DistrictRaw string
	DistrictKey string

	PriceTotal *decimal.Decimal
	LivingArea *decimal.Decimal
	Latitude   *float64
	Longitude  *float64
}

// JoinedListing is a NormalizedListing resolved against the region lookup.
// Region stays nil when the district has no match (left-join semantics).
type JoinedListing struct {
	NormalizedListing

	Region       *string
	PricePerArea *decimal.Decimal
}

// AggregateRow is one output group. Region is nil for listings whose
// district never resolved; the label is uppercased for display.
type AggregateRow struct {
	Year         int
	Region       *string
	OfferType    OfferType
	PropertyType PropertyType

	MeanPricePerArea   decimal.Decimal
	MedianPricePerArea decimal.Decimal
	RowCount           int64
}
