// Package storage provides file-based sources and sinks for local runs:
// CSV listings input, CSV region reference, and the aggregate CSV output.
package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"listing-stats/internal/model"
	"listing-stats/internal/region"
)

// listingColumns is the required header of a listings CSV.
var listingColumns = []string{
	"id", "created_at", "offer_type", "property_type",
	"price_total", "living_area", "district", "latitude", "longitude",
}

// ListingsCSV streams raw listings from a CSV file with a header row.
// Files are expected to be sorted by id; the deduplicator's pick among
// duplicate identifiers follows file order.
type ListingsCSV struct {
	file    *os.File
	reader  *csv.Reader
	index   map[string]int
	current model.Listing
	err     error
}

// OpenListingsCSV opens the file and validates its header.
func OpenListingsCSV(path string) (*ListingsCSV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open listings %q: %w", path, err)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: read listings header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, required := range listingColumns {
		if _, ok := index[required]; !ok {
			_ = f.Close()
			return nil, fmt.Errorf("csv: listings file %q missing column %q", path, required)
		}
	}

	return &ListingsCSV{file: f, reader: r, index: index}, nil
}

// Next advances to the next listing.
func (c *ListingsCSV) Next() bool {
	if c.err != nil {
		return false
	}
	record, err := c.reader.Read()
	if err == io.EOF {
		return false
	}
	if err != nil {
		c.err = fmt.Errorf("csv: read listing row: %w", err)
		return false
	}

	field := func(name string) string {
		i := c.index[name]
		if i >= len(record) {
			return ""
		}
		return record[i]
	}
	c.current = model.Listing{
		ID:           field("id"),
		CreatedAt:    field("created_at"),
		OfferType:    field("offer_type"),
		PropertyType: field("property_type"),
		PriceTotal:   field("price_total"),
		LivingArea:   field("living_area"),
		District:     field("district"),
		Latitude:     field("latitude"),
		Longitude:    field("longitude"),
	}
	return true
}

// Listing returns the row read by the last successful Next.
func (c *ListingsCSV) Listing() model.Listing {
	return c.current
}

// Err returns the first read error, if any.
func (c *ListingsCSV) Err() error {
	return c.err
}

// Close closes the underlying file.
func (c *ListingsCSV) Close() error {
	return c.file.Close()
}

// LoadRegionsCSV reads the full district->region reference table from a CSV
// file with a "district,region" header.
func LoadRegionsCSV(path string) ([]region.ReferenceRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open regions %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("csv: read regions header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, required := range []string{"district", "region"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("csv: regions file %q missing column %q", path, required)
		}
	}

	var refs []region.ReferenceRow
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read region row: %w", err)
		}
		field := func(name string) string {
			i := index[name]
			if i >= len(record) {
				return ""
			}
			return record[i]
		}
		refs = append(refs, region.ReferenceRow{
			District: field("district"),
			Region:   field("region"),
		})
	}
	return refs, nil
}

// CSVSink writes the aggregate table to a CSV file, creating intermediate
// directories as needed. A nil region becomes an empty cell.
type CSVSink struct {
	Path string
}

// Write materializes the rows in their given order with a header row.
func (s *CSVSink) Write(_ context.Context, rows []model.AggregateRow) error {
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("csv: create output dir: %w", err)
		}
	}

	f, err := os.Create(s.Path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", s.Path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"year", "region", "offer_type", "property_type",
		"mean_price_per_area", "median_price_per_area", "row_count",
	}); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, row := range rows {
		regionCell := ""
		if row.Region != nil {
			regionCell = *row.Region
		}
		record := []string{
			strconv.Itoa(row.Year),
			regionCell,
			string(row.OfferType),
			string(row.PropertyType),
			row.MeanPricePerArea.String(),
			row.MedianPricePerArea.String(),
			strconv.FormatInt(row.RowCount, 10),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}
	return nil
}
