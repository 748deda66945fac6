// Package clickhouse reads raw listings from and writes aggregate rows to
// the analytics warehouse.
//
// Expected listings table layout (all payload columns as String, since the
// export upstream does not guarantee they parse):
//
//	CREATE TABLE listings (
//	    id            String,
//	    created_at    String,
//	    offer_type    String,
//	    property_type String,
//	    price_total   String,
//	    living_area   String,
//	    district      String,
//	    latitude      String,
//	    longitude     String
//	) ENGINE = MergeTree ORDER BY id
package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"listing-stats/internal/model"
)

// Config holds ClickHouse connection configuration.
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Debug    bool

	// ListingsTable is the source table, AggregatesTable the output table.
	ListingsTable   string
	AggregatesTable string
}

// DefaultConfig returns default development configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:            "localhost",
		Port:            9000,
		Database:        "listings",
		Username:        "default",
		Password:        "",
		Debug:           false,
		ListingsTable:   "listings",
		AggregatesTable: "price_per_area_aggregates",
	}
}

// Store is the warehouse-backed listings source and aggregate sink.
type Store struct {
	conn driver.Conn
	cfg  *Config
}

// NewStore connects to ClickHouse.
func NewStore(cfg *Config) (*Store, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	return &Store{conn: conn, cfg: cfg}, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Listings opens a streaming cursor over the raw listings table. Rows are
// ordered by identifier so the deduplicator's pick among duplicates is
// stable across runs.
func (s *Store) Listings(ctx context.Context) (*ListingRows, error) {
	query := fmt.Sprintf(`
		SELECT id, created_at, offer_type, property_type,
		       price_total, living_area, district, latitude, longitude
		FROM %s
		ORDER BY id
	`, s.cfg.ListingsTable)

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	return &ListingRows{rows: rows}, nil
}

// ListingRows streams raw listings one at a time.
type ListingRows struct {
	rows    driver.Rows
	current model.Listing
	err     error
}

// Next advances to the next listing. It returns false at the end of the
// result set or on the first scan error; check Err afterwards.
func (r *ListingRows) Next() bool {
	if r.err != nil || !r.rows.Next() {
		return false
	}
	var l model.Listing
	if err := r.rows.Scan(
		&l.ID, &l.CreatedAt, &l.OfferType, &l.PropertyType,
		&l.PriceTotal, &l.LivingArea, &l.District, &l.Latitude, &l.Longitude,
	); err != nil {
		r.err = fmt.Errorf("failed to scan listing: %w", err)
		return false
	}
	r.current = l
	return true
}

// Listing returns the row read by the last successful Next.
func (r *ListingRows) Listing() model.Listing {
	return r.current
}

// Err returns the first scan or cursor error, if any.
func (r *ListingRows) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.rows.Err()
}

// Close releases the cursor.
func (r *ListingRows) Close() error {
	return r.rows.Close()
}

// EnsureAggregatesTable creates the output table when it does not exist.
func (s *Store) EnsureAggregatesTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			year                 Int32,
			region               Nullable(String),
			offer_type           String,
			property_type        String,
			mean_price_per_area  Decimal(18, 4),
			median_price_per_area Decimal(18, 4),
			row_count            UInt64
		) ENGINE = MergeTree
		ORDER BY (year, offer_type, property_type)
	`, s.cfg.AggregatesTable)
	if err := s.conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create aggregates table: %w", err)
	}
	return nil
}

// Write replaces the aggregate table contents with the given rows.
func (s *Store) Write(ctx context.Context, rows []model.AggregateRow) error {
	if err := s.EnsureAggregatesTable(ctx); err != nil {
		return err
	}
	if err := s.conn.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s", s.cfg.AggregatesTable)); err != nil {
		return fmt.Errorf("failed to truncate aggregates table: %w", err)
	}

	batch, err := s.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s", s.cfg.AggregatesTable))
	if err != nil {
		return fmt.Errorf("failed to prepare aggregate batch: %w", err)
	}
	for _, row := range rows {
		if err := batch.Append(
			int32(row.Year),
			row.Region,
			string(row.OfferType),
			string(row.PropertyType),
			row.MeanPricePerArea,
			row.MedianPricePerArea,
			uint64(row.RowCount),
		); err != nil {
			return fmt.Errorf("failed to append aggregate row: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert aggregates: %w", err)
	}
	return nil
}
