// Package postgres loads the district->region reference table and can
// materialize the aggregate output as a relational table.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"listing-stats/internal/model"
	"listing-stats/internal/region"
)

// Store wraps the Postgres connection.
type Store struct {
	db *sql.DB
}

// NewStore opens a connection, waits for the database to come up, and runs
// the output-table migration.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS price_per_area_aggregates (
			year                  INT          NOT NULL,
			region                TEXT,
			offer_type            VARCHAR(10)  NOT NULL,
			property_type         VARCHAR(20)  NOT NULL,
			mean_price_per_area   NUMERIC(18,4) NOT NULL,
			median_price_per_area NUMERIC(18,4) NOT NULL,
			row_count             BIGINT       NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_ppa_aggregates_year   ON price_per_area_aggregates(year);
		CREATE INDEX IF NOT EXISTS idx_ppa_aggregates_region ON price_per_area_aggregates(region);
	`)
	return err
}

// Regions loads the full district->region reference table. The table is
// small (one row per district of the country) and is held in memory for the
// whole run.
func (s *Store) Regions(ctx context.Context) ([]region.ReferenceRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT district, region
		FROM region_reference
		ORDER BY district
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: query region reference: %w", err)
	}
	defer rows.Close()

	var refs []region.ReferenceRow
	for rows.Next() {
		var r region.ReferenceRow
		if err := rows.Scan(&r.District, &r.Region); err != nil {
			return nil, fmt.Errorf("postgres: scan region row: %w", err)
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// Write replaces the aggregate table contents with the given rows.
func (s *Store) Write(ctx context.Context, rows []model.AggregateRow) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM price_per_area_aggregates"); err != nil {
		return fmt.Errorf("postgres: clear aggregates: %w", err)
	}

	const batchSize = 50
	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := s.insertBatch(ctx, rows[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertBatch(ctx context.Context, batch []model.AggregateRow) error {
	if len(batch) == 0 {
		return nil
	}

	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*7)

	for idx, row := range batch {
		base := idx * 7
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7))

		var regionVal sql.NullString
		if row.Region != nil {
			regionVal = sql.NullString{String: *row.Region, Valid: true}
		}
		valueArgs = append(valueArgs,
			row.Year, regionVal, string(row.OfferType), string(row.PropertyType),
			row.MeanPricePerArea, row.MedianPricePerArea, row.RowCount)
	}

	query := fmt.Sprintf(`
		INSERT INTO price_per_area_aggregates (
			year, region, offer_type, property_type,
			mean_price_per_area, median_price_per_area, row_count
		) VALUES %s
	`, strings.Join(valueStrings, ","))

	if _, err := s.db.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert aggregates: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
