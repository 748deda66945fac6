// liststat - regional price-per-m² statistics over a listings dataset
//
// Usage:
//   liststat run --listings-csv listings.csv --regions-csv regions.csv --out out/aggregates.csv
//   liststat run --to clickhouse [connection flags]
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"listing-stats/db/clickhouse"
	"listing-stats/db/postgres"
	"listing-stats/internal/config"
	"listing-stats/internal/pipeline"
	"listing-stats/internal/region"
	"listing-stats/internal/storage"
	"listing-stats/pkg/platform"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	app := &cli.App{
		Name:    "liststat",
		Usage:   "Clean a real-estate listings dataset and aggregate regional price-per-m² statistics",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LISTSTAT_LOG_LEVEL"},
			},
		},

		Commands: []*cli.Command{
			runCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the full pipeline: dedupe, normalize, join, filter, aggregate",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listings-csv",
				Usage: "Read listings from this CSV file instead of ClickHouse",
			},
			&cli.StringFlag{
				Name:  "regions-csv",
				Usage: "Read the district->region reference from this CSV file instead of Postgres",
			},
			&cli.StringFlag{
				Name:  "to",
				Value: "csv",
				Usage: "Output target (csv, clickhouse, postgres)",
			},
			&cli.StringFlag{
				Name:  "out",
				Value: "out/aggregates.csv",
				Usage: "Output path for the csv target",
			},
			&cli.StringFlag{
				Name:    "clickhouse-host",
				Value:   "localhost",
				Usage:   "ClickHouse host",
				EnvVars: []string{"CLICKHOUSE_HOST"},
			},
			&cli.IntFlag{
				Name:    "clickhouse-port",
				Value:   9000,
				Usage:   "ClickHouse native port",
				EnvVars: []string{"CLICKHOUSE_PORT"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-database",
				Value:   "listings",
				Usage:   "ClickHouse database",
				EnvVars: []string{"CLICKHOUSE_DATABASE"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-user",
				Value:   "default",
				Usage:   "ClickHouse user",
				EnvVars: []string{"CLICKHOUSE_USER"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-password",
				Value:   "",
				Usage:   "ClickHouse password",
				EnvVars: []string{"CLICKHOUSE_PASSWORD"},
			},
			&cli.StringFlag{
				Name:    "postgres-dsn",
				Usage:   "Postgres DSN for the region reference and the postgres output target",
				EnvVars: []string{"POSTGRES_DSN"},
			},
		},
		Action: runPipeline,
	}
}

func runPipeline(c *cli.Context) error {
	ctx := c.Context
	logger := platform.InitLogger(c.String("log-level"))

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	var pg *postgres.Store
	defer func() {
		if pg != nil {
			_ = pg.Close()
		}
	}()

	lookup, err := buildLookup(ctx, c, &pg)
	if err != nil {
		return err
	}
	logger.Info("region reference loaded", "districts", lookup.Size())

	p, err := pipeline.New(cfg.Bounds(), lookup, logger)
	if err != nil {
		return err
	}

	var ch *clickhouse.Store
	defer func() {
		if ch != nil {
			_ = ch.Close()
		}
	}()

	src, err := openSource(ctx, c, &ch)
	if err != nil {
		return err
	}

	sink, err := openSink(ctx, c, &ch, &pg)
	if err != nil {
		return err
	}

	result, err := p.Run(ctx, src, sink)
	if err != nil {
		return err
	}

	fmt.Printf("run %s\n", result.RunID)
	for _, m := range result.Stages {
		fmt.Printf("  %-10s in=%-8d out=%-8d dropped=%d\n", m.Stage, m.In, m.Out, m.Dropped())
	}
	fmt.Printf("  groups: %d\n", len(result.Rows))
	return nil
}

func buildLookup(ctx context.Context, c *cli.Context, pg **postgres.Store) (*region.Lookup, error) {
	if path := c.String("regions-csv"); path != "" {
		refs, err := storage.LoadRegionsCSV(path)
		if err != nil {
			return nil, err
		}
		return region.Build(refs), nil
	}

	store, err := openPostgres(c, pg)
	if err != nil {
		return nil, err
	}
	refs, err := store.Regions(ctx)
	if err != nil {
		return nil, err
	}
	return region.Build(refs), nil
}

func openSource(ctx context.Context, c *cli.Context, ch **clickhouse.Store) (pipeline.Source, error) {
	if path := c.String("listings-csv"); path != "" {
		return storage.OpenListingsCSV(path)
	}

	store, err := openClickHouse(ctx, c, ch)
	if err != nil {
		return nil, err
	}
	return store.Listings(ctx)
}

func openSink(ctx context.Context, c *cli.Context, ch **clickhouse.Store, pg **postgres.Store) (pipeline.Sink, error) {
	switch target := c.String("to"); target {
	case "csv":
		return &storage.CSVSink{Path: c.String("out")}, nil
	case "clickhouse":
		return openClickHouse(ctx, c, ch)
	case "postgres":
		return openPostgres(c, pg)
	default:
		return nil, fmt.Errorf("unknown output target %q (want csv, clickhouse or postgres)", target)
	}
}

func openClickHouse(ctx context.Context, c *cli.Context, ch **clickhouse.Store) (*clickhouse.Store, error) {
	if *ch != nil {
		return *ch, nil
	}
	cfg := clickhouse.DefaultConfig()
	cfg.Host = c.String("clickhouse-host")
	cfg.Port = c.Int("clickhouse-port")
	cfg.Database = c.String("clickhouse-database")
	cfg.Username = c.String("clickhouse-user")
	cfg.Password = c.String("clickhouse-password")

	store, err := clickhouse.NewStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	*ch = store
	return store, nil
}

func openPostgres(c *cli.Context, pg **postgres.Store) (*postgres.Store, error) {
	if *pg != nil {
		return *pg, nil
	}
	dsn := c.String("postgres-dsn")
	if dsn == "" {
		return nil, fmt.Errorf("postgres-dsn is required (or use --regions-csv / --to csv)")
	}
	store, err := postgres.NewStore(dsn)
	if err != nil {
		return nil, err
	}
	*pg = store
	return store, nil
}
