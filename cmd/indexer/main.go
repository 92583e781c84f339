// Command indexer loads churned-customer history and upserts behavior
// vectors into the similarity index so assessments can match against
// historical churn patterns.
//
// Reads churned customers from PostgreSQL when DATABASE_URL is set,
// otherwise from churned_customers.csv in the data directory.
package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/decaylab/churnwatch/internal/config"
	"github.com/decaylab/churnwatch/internal/customer"
	"github.com/decaylab/churnwatch/internal/logging"
	"github.com/decaylab/churnwatch/internal/vectorstore"
)

func main() {
	logger := logging.New("info", "text")

	cfg, err := config.LoadOffline()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.VectorAPIKey == "" || cfg.VectorHost == "" {
		logger.Error("VECTOR_API_KEY and VECTOR_HOST are required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var store customer.Store
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = customer.NewPostgresStore(db)
	} else {
		mem := customer.NewMemoryStore()
		if err := customer.ImportDir(ctx, mem, cfg.DataDir); err != nil {
			logger.Error("failed to import data directory", "dir", cfg.DataDir, "error", err)
			os.Exit(1)
		}
		store = mem
	}

	churned, err := store.ListChurned(ctx)
	if err != nil {
		logger.Error("failed to load churned customers", "error", err)
		os.Exit(1)
	}
	if len(churned) == 0 {
		logger.Error("no churned customers to index; run cmd/seed first")
		os.Exit(1)
	}

	client, err := vectorstore.New(vectorstore.Config{
		APIKey: cfg.VectorAPIKey,
		Host:   cfg.VectorHost,
	})
	if err != nil {
		logger.Error("failed to create vector store client", "error", err)
		os.Exit(1)
	}

	matcher := vectorstore.NewMatcher(client, logger, cfg.VectorNamespace, cfg.VectorDimension, cfg.VectorTopK)
	seeder := vectorstore.NewSeeder(client, matcher, cfg.VectorNamespace)

	count, err := seeder.SeedChurned(ctx, churned)
	if err != nil {
		logger.Error("failed to seed similarity index", "error", err)
		os.Exit(1)
	}

	logger.Info("similarity index seeded",
		"vectors", count,
		"namespace", cfg.VectorNamespace,
	)
}
