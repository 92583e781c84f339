// Command seed generates a deterministic sample dataset: customers,
// 90 days of behavior events, and historical churned customers. The
// dataset is written as CSV files to the data directory and, when
// DATABASE_URL is set, loaded into PostgreSQL as well.
//
// Usage:
//
//	go run ./cmd/seed [-seed 42] [-customers 100] [-churned 20] [-dir data] [-preprocess]
package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/decaylab/churnwatch/internal/customer"
	"github.com/decaylab/churnwatch/internal/logging"
	"github.com/decaylab/churnwatch/internal/sampledata"
)

func main() {
	var (
		seed         = flag.Int64("seed", 42, "random seed")
		numCustomers = flag.Int("customers", 100, "number of customers to generate")
		numChurned   = flag.Int("churned", 20, "number of churned customers to generate")
		dataDir      = flag.String("dir", "data", "output directory for CSV files")
		preprocess   = flag.Bool("preprocess", false, "also write an offline risk analysis (no scoring service calls)")
	)
	flag.Parse()

	logger := logging.New("info", "text")

	gen := sampledata.NewGenerator(*seed, time.Now())
	ds := gen.Generate(*numCustomers, *numChurned)

	logger.Info("generated sample dataset",
		"seed", *seed,
		"customers", len(ds.Customers),
		"events", len(ds.Events),
		"churned", len(ds.Churned),
	)

	if err := ds.WriteCSV(*dataDir); err != nil {
		logger.Error("failed to write CSV files", "error", err)
		os.Exit(1)
	}
	logger.Info("CSV files written", "dir", *dataDir)

	if *preprocess {
		analyses := gen.PreprocessedAnalyses(ds)
		if err := sampledata.WritePreprocessed(*dataDir, analyses); err != nil {
			logger.Error("failed to write preprocessed analysis", "error", err)
			os.Exit(1)
		}
		logger.Info("preprocessed analysis written", "customers", len(analyses))
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	store := customer.NewPostgresStore(db)
	if err := store.Migrate(ctx); err != nil {
		logger.Error("failed to migrate", "error", err)
		os.Exit(1)
	}

	for _, c := range ds.Customers {
		if err := store.UpsertCustomer(ctx, c); err != nil {
			logger.Error("failed to upsert customer", "customer_id", c.ID, "error", err)
			os.Exit(1)
		}
	}
	if err := store.AddEvents(ctx, ds.Events); err != nil {
		logger.Error("failed to insert events", "error", err)
		os.Exit(1)
	}
	for _, c := range ds.Churned {
		if err := store.UpsertChurned(ctx, c); err != nil {
			logger.Error("failed to upsert churned customer", "customer_id", c.ID, "error", err)
			os.Exit(1)
		}
	}

	logger.Info("database seeded",
		"customers", len(ds.Customers),
		"events", len(ds.Events),
		"churned", len(ds.Churned),
	)
}
