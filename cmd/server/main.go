// Churnwatch - customer churn risk assessment service
package main

import (
	"context"
	"os"

	"github.com/decaylab/churnwatch/internal/config"
	"github.com/decaylab/churnwatch/internal/logging"
	"github.com/decaylab/churnwatch/internal/server"
)

// Build info - set by ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	logger := logging.New("info", "text")

	logger.Info("starting churnwatch",
		"version", Version,
		"commit", Commit,
		"build_time", BuildTime,
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"env", cfg.Env,
		"llm_model", cfg.LLMModel,
		"llm_disabled", cfg.LLMDisabled,
		"vector_disabled", cfg.VectorDisabled,
	)

	srv, err := server.New(cfg, server.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
