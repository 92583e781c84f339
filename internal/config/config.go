// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Data directory for CSV imports and batch report exports
	DataDir string

	// Completion service (AI scorer)
	LLMAPIKey     string
	LLMBaseURL    string
	LLMModel      string
	LLMMaxRetries int
	LLMDisabled   bool // force heuristic-only scoring (demo / offline mode)

	// Similarity index
	VectorAPIKey    string
	VectorHost      string // data-plane host of the index
	VectorNamespace string
	VectorDimension int
	VectorTopK      int
	VectorDisabled  bool

	// Tracing
	OTLPEndpoint string
}

// Defaults
const (
	DefaultPort       = "8080"
	DefaultEnv        = "development"
	DefaultLogLevel   = "info"
	DefaultDataDir    = "data"
	DefaultLLMBaseURL = "https://api.openai.com"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMRetries = 3
	DefaultDimension  = 768
	DefaultTopK       = 5
	DefaultNamespace  = "customer_behaviors"
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	cfg := read()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOffline reads configuration for offline tooling such as
// cmd/indexer. The scorer credential is not required because these
// tools never call the completion service.
func LoadOffline() (*Config, error) {
	cfg := read()
	if err := cfg.validateVector(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func read() *Config {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	return &Config{
		Port:            getEnv("PORT", DefaultPort),
		Env:             getEnv("ENV", DefaultEnv),
		LogLevel:        getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:     os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		DataDir:         getEnv("DATA_DIR", DefaultDataDir),
		LLMAPIKey:       os.Getenv("LLM_API_KEY"),
		LLMBaseURL:      getEnv("LLM_BASE_URL", DefaultLLMBaseURL),
		LLMModel:        getEnv("LLM_MODEL", DefaultLLMModel),
		LLMMaxRetries:   getEnvInt("LLM_MAX_RETRIES", DefaultLLMRetries),
		LLMDisabled:     getEnvBool("LLM_DISABLED", false),
		VectorAPIKey:    os.Getenv("VECTOR_API_KEY"),
		VectorHost:      os.Getenv("VECTOR_HOST"),
		VectorNamespace: getEnv("VECTOR_NAMESPACE", DefaultNamespace),
		VectorDimension: getEnvInt("VECTOR_DIMENSION", DefaultDimension),
		VectorTopK:      getEnvInt("VECTOR_TOP_K", DefaultTopK),
		VectorDisabled:  getEnvBool("VECTOR_DISABLED", false),
		OTLPEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}

// Validate checks that all required configuration is present.
// A missing scorer credential is fatal unless scoring is explicitly
// disabled; the similarity index is always best-effort.
func (c *Config) Validate() error {
	if !c.LLMDisabled && c.LLMAPIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required (set LLM_DISABLED=true to run heuristic-only)")
	}

	if c.LLMMaxRetries < 1 {
		return fmt.Errorf("LLM_MAX_RETRIES must be at least 1")
	}

	return c.validateVector()
}

func (c *Config) validateVector() error {
	if c.VectorDimension < 16 {
		return fmt.Errorf("VECTOR_DIMENSION must be at least 16")
	}

	if c.VectorTopK < 1 {
		return fmt.Errorf("VECTOR_TOP_K must be at least 1")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
