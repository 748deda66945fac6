// Package config defines the tunable parameters of a pipeline run and their
// layered loading (defaults, optional YAML file, environment).
package config

import (
	"github.com/shopspring/decimal"

	"listing-stats/internal/filter"
	"listing-stats/internal/model"
)

// Config carries every numeric boundary of the filter chain plus process
// settings. The price-per-area ranges are deliberately exposed rather than
// hardcoded in predicates; operators retune them per market.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Living-area bounds in square meters, inclusive.
	AreaMin float64 `koanf:"area_min"`
	AreaMax float64 `koanf:"area_max"`

	// Coordinate bounding box for the target country.
	LatMin float64 `koanf:"lat_min"`
	LatMax float64 `koanf:"lat_max"`
	LonMin float64 `koanf:"lon_min"`
	LonMax float64 `koanf:"lon_max"`

	// Price-per-area bounds per offer type, inclusive.
	RentPricePerAreaMin float64 `koanf:"rent_price_per_area_min"`
	RentPricePerAreaMax float64 `koanf:"rent_price_per_area_max"`
	SalePricePerAreaMin float64 `koanf:"sale_price_per_area_min"`
	SalePricePerAreaMax float64 `koanf:"sale_price_per_area_max"`
}

// New returns the production defaults.
func New() *Config {
	return &Config{
		LogLevel: "info",

		AreaMin: 16,
		AreaMax: 500,

		LatMin: 48.5,
		LatMax: 51.1,
		LonMin: 12.0,
		LonMax: 18.9,

		RentPricePerAreaMin: 50,
		RentPricePerAreaMax: 1500,
		SalePricePerAreaMin: 5000,
		SalePricePerAreaMax: 300000,
	}
}

// Bounds converts the configuration into the filter chain's bounds. The
// chain validates them at construction, so malformed values fail the run
// before any row is read.
func (c *Config) Bounds() filter.Bounds {
	return filter.Bounds{
		Area: filter.Range{
			Min: decimal.NewFromFloat(c.AreaMin),
			Max: decimal.NewFromFloat(c.AreaMax),
		},
		LatMin: c.LatMin,
		LatMax: c.LatMax,
		LonMin: c.LonMin,
		LonMax: c.LonMax,
		PricePerArea: map[model.OfferType]filter.Range{
			model.OfferRent: {
				Min: decimal.NewFromFloat(c.RentPricePerAreaMin),
				Max: decimal.NewFromFloat(c.RentPricePerAreaMax),
			},
			model.OfferSale: {
				Min: decimal.NewFromFloat(c.SalePricePerAreaMin),
				Max: decimal.NewFromFloat(c.SalePricePerAreaMax),
			},
		},
	}
}
