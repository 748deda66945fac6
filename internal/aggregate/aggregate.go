// Package aggregate groups filtered listings and computes the output
// statistics per (year, region, offer type, property type).
//
// Grouping on region is case-insensitive; the display label is uppercased
// only when the rows are finalized. This is the one stage whose memory use
// grows with group size: the exact median needs every value of a group.
package aggregate

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"listing-stats/internal/model"
)

type groupKey struct {
	year       int
	hasRegion  bool
	regionFold string
	offer      model.OfferType
	property   model.PropertyType
}

type group struct {
	regionLabel string
	sum         decimal.Decimal
	values      []decimal.Decimal
}

// Aggregator accumulates price-per-area values per group.
type Aggregator struct {
	groups  map[groupKey]*group
	skipped int64
}

// New returns an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{groups: make(map[groupKey]*group)}
}

// Add folds one filtered listing into its group. Rows without a year are
// dropped here, the first stage that requires one; the drop is reported via
// Skipped, not an error. Returns whether the row was counted.
func (a *Aggregator) Add(jl model.JoinedListing) bool {
	if jl.Year == nil || jl.PricePerArea == nil {
		a.skipped++
		return false
	}

	key := groupKey{
		year:     *jl.Year,
		offer:    jl.OfferType,
		property: jl.PropertyType,
	}
	var label string
	if jl.Region != nil {
		key.hasRegion = true
		key.regionFold = strings.ToLower(*jl.Region)
		label = *jl.Region
	}

	g, ok := a.groups[key]
	if !ok {
		g = &group{regionLabel: label}
		a.groups[key] = g
	}
	g.sum = g.sum.Add(*jl.PricePerArea)
	g.values = append(g.values, *jl.PricePerArea)
	return true
}

// Skipped returns how many rows were dropped for a missing year or price
// per area.
func (a *Aggregator) Skipped() int64 {
	return a.skipped
}

// Rows finalizes every group and returns the output sorted by year, then
// region with nulls first, then offer type, then property type. The sort
// order is a presentation contract for output comparison.
func (a *Aggregator) Rows() []model.AggregateRow {
	rows := make([]model.AggregateRow, 0, len(a.groups))
	for key, g := range a.groups {
		row := model.AggregateRow{
			Year:               key.year,
			OfferType:          key.offer,
			PropertyType:       key.property,
			MeanPricePerArea:   mean(g.sum, len(g.values)),
			MedianPricePerArea: median(g.values),
			RowCount:           int64(len(g.values)),
		}
		if key.hasRegion {
			display := strings.ToUpper(g.regionLabel)
			row.Region = &display
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		ri, rj := rows[i], rows[j]
		if ri.Year != rj.Year {
			return ri.Year < rj.Year
		}
		if (ri.Region == nil) != (rj.Region == nil) {
			return ri.Region == nil
		}
		if ri.Region != nil && *ri.Region != *rj.Region {
			return *ri.Region < *rj.Region
		}
		if ri.OfferType != rj.OfferType {
			return ri.OfferType < rj.OfferType
		}
		return ri.PropertyType < rj.PropertyType
	})
	return rows
}

func mean(sum decimal.Decimal, count int) decimal.Decimal {
	return sum.Div(decimal.NewFromInt(int64(count)))
}

// median returns the middle value of the sorted group, or the mean of the
// two middle values for an even count.
func median(values []decimal.Decimal) decimal.Decimal {
	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LessThan(sorted[j])
	})

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2))
}
