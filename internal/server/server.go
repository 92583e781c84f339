// Package server sets up the HTTP server with all routes
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/decaylab/churnwatch/internal/analytics"
	"github.com/decaylab/churnwatch/internal/assessment"
	"github.com/decaylab/churnwatch/internal/config"
	"github.com/decaylab/churnwatch/internal/customer"
	"github.com/decaylab/churnwatch/internal/health"
	"github.com/decaylab/churnwatch/internal/idgen"
	"github.com/decaylab/churnwatch/internal/llm"
	"github.com/decaylab/churnwatch/internal/logging"
	"github.com/decaylab/churnwatch/internal/metrics"
	"github.com/decaylab/churnwatch/internal/ratelimit"
	"github.com/decaylab/churnwatch/internal/security"
	"github.com/decaylab/churnwatch/internal/traces"
	"github.com/decaylab/churnwatch/internal/validation"
	"github.com/decaylab/churnwatch/internal/vectorstore"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg         *config.Config
	customers   customer.Store
	reports     assessment.ReportStore
	assessor    *assessment.Assessor
	scorer      assessment.Scorer
	matcher     assessment.Matcher
	healthReg   *health.Registry
	rateLimiter *ratelimit.Limiter
	db          *sql.DB // nil if using in-memory
	router      *gin.Engine
	httpSrv     *http.Server
	logger      *slog.Logger
	stopTraces  func(context.Context) error
	stopDBStats context.CancelFunc

	ready atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithScorer sets a custom scorer (for testing)
func WithScorer(scorer assessment.Scorer) Option {
	return func(s *Server) {
		s.scorer = scorer
	}
}

// WithMatcher sets a custom matcher (for testing)
func WithMatcher(matcher assessment.Matcher) Option {
	return func(s *Server) {
		s.matcher = matcher
	}
}

// WithStore sets a custom customer store (for testing)
func WithStore(store customer.Store) Option {
	return func(s *Server) {
		s.customers = store
	}
}

// New creates a new server instance
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logging.New(cfg.LogLevel, "json"),
	}

	for _, opt := range opts {
		opt(s)
	}

	ctx := context.Background()

	if err := s.initStorage(ctx); err != nil {
		return nil, err
	}

	// Load sample CSVs from the data directory when present
	if cfg.DataDir != "" {
		if err := customer.ImportDir(ctx, s.customers, cfg.DataDir); err != nil {
			s.logger.Warn("failed to import data directory", "dir", cfg.DataDir, "error", err)
		}
	}

	// AI scorer (optional)
	if s.scorer == nil && !cfg.LLMDisabled {
		completions, err := llm.NewClient(s.logger, llm.Config{
			APIKey:  cfg.LLMAPIKey,
			BaseURL: cfg.LLMBaseURL,
			Model:   cfg.LLMModel,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create completion client: %w", err)
		}
		s.scorer = llm.NewScorer(completions, s.logger, cfg.LLMMaxRetries)
		s.logger.Info("AI scorer enabled", "model", cfg.LLMModel)
	}
	if s.scorer == nil {
		s.logger.Info("AI scorer disabled, using rule-based scoring")
	}

	// Similarity matcher (optional)
	if s.matcher == nil && !cfg.VectorDisabled && cfg.VectorAPIKey != "" && cfg.VectorHost != "" {
		hostURL := cfg.VectorHost
		if !strings.Contains(hostURL, "://") {
			hostURL = "https://" + hostURL
		}
		if err := security.ValidateEndpointURL(hostURL); err != nil {
			return nil, fmt.Errorf("invalid vector host: %w", err)
		}

		vecClient, err := vectorstore.New(vectorstore.Config{
			APIKey: cfg.VectorAPIKey,
			Host:   cfg.VectorHost,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create vector store client: %w", err)
		}
		s.matcher = vectorstore.NewMatcher(vecClient, s.logger, cfg.VectorNamespace, cfg.VectorDimension, cfg.VectorTopK)
		s.logger.Info("similarity matching enabled", "namespace", cfg.VectorNamespace)
	}
	if s.matcher == nil {
		s.logger.Info("similarity matching disabled")
	}

	s.assessor = assessment.NewAssessor(s.customers, s.scorer, s.matcher, s.logger)

	// Health checks
	s.healthReg = health.NewRegistry()
	if s.db != nil {
		s.healthReg.Register("database", health.DatabaseChecker("database", s.db))
	} else {
		s.healthReg.Register("storage", health.StaticChecker("storage", true, "in-memory"))
	}
	s.healthReg.Register("scorer", health.StaticChecker("scorer", true, scorerMode(s.scorer)))

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	// The stats collector loops until its context is cancelled, so it
	// must run on its own goroutine.
	if s.db != nil {
		statsCtx, cancel := context.WithCancel(context.Background())
		s.stopDBStats = cancel
		go metrics.StartDBStatsCollector(statsCtx, s.db, 15*time.Second)
	}

	return s, nil
}

// initStorage selects Postgres when DATABASE_URL is set, otherwise the
// in-memory stores. A store injected via WithStore wins either way.
func (s *Server) initStorage(ctx context.Context) error {
	if s.customers == nil {
		if s.cfg.DatabaseURL != "" {
			db, err := sql.Open("postgres", s.cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}

			db.SetMaxOpenConns(25)
			db.SetMaxIdleConns(5)
			db.SetConnMaxLifetime(5 * time.Minute)

			if err := db.Ping(); err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}

			s.db = db
			s.logger.Info("using PostgreSQL storage", "url", maskDSN(s.cfg.DatabaseURL))

			customerStore := customer.NewPostgresStore(db)
			if err := customerStore.Migrate(ctx); err != nil {
				s.logger.Warn("failed to migrate customer store", "error", err)
			}
			s.customers = customerStore

			reportStore := assessment.NewPostgresReportStore(db)
			if err := reportStore.Migrate(ctx); err != nil {
				s.logger.Warn("failed to migrate report store", "error", err)
			}
			s.reports = reportStore
		} else {
			s.customers = customer.NewMemoryStore()
			s.reports = assessment.NewMemoryReportStore()
			s.logger.Info("using in-memory storage (data will not persist)")
		}
	}
	if s.reports == nil {
		s.reports = assessment.NewMemoryReportStore()
	}
	return nil
}

func scorerMode(scorer assessment.Scorer) string {
	if scorer == nil {
		return "heuristic"
	}
	return "ai"
}

func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (s *Server) setupMiddleware() {
	// Recovery with logging
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	// Security headers
	s.router.Use(security.HeadersMiddleware())

	// CORS (allow all origins for demo - restrict in production)
	s.router.Use(security.CORSMiddleware([]string{"*"}))

	// Request size limit (1MB)
	s.router.Use(validation.RequestSizeMiddleware(validation.MaxRequestSize))

	// Rate limiting
	s.rateLimiter = ratelimit.New(ratelimit.DefaultConfig())
	s.router.Use(s.rateLimiter.Middleware())

	// Prometheus metrics
	s.router.Use(metrics.Middleware())

	// Request ID
	s.router.Use(s.requestIDMiddleware())

	// Logging
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Honor an upstream request ID (load balancer, gateway)
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = idgen.Hex(8)
		}

		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		ctx := c.Request.Context()
		logging.L(ctx).Log(ctx, level, "request completed",
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}

// -----------------------------------------------------------------------------
// Routes
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	// Health and observability
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/health/live", s.livenessHandler)
	s.router.GET("/health/ready", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	v1 := s.router.Group("/v1")

	customerHandler := customer.NewHandler(customer.NewService(s.customers))
	customerHandler.RegisterRoutes(v1)

	assessmentHandler := assessment.NewHandler(s.assessor, s.reports, s.cfg.DataDir)
	assessmentHandler.RegisterRoutes(v1)

	analyticsHandler := analytics.NewHandler(analytics.NewService(s.customers, s.reports))
	analyticsHandler.RegisterRoutes(v1)
}

func (s *Server) healthHandler(c *gin.Context) {
	healthy, statuses := s.healthReg.CheckAll(c.Request.Context())

	code := http.StatusOK
	status := "healthy"
	if !healthy {
		code = http.StatusServiceUnavailable
		status = "unhealthy"
	}

	c.JSON(code, gin.H{
		"status": status,
		"checks": statuses,
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Run starts the HTTP server with graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.OTLPEndpoint != "" {
		stop, err := traces.Init(ctx, s.cfg.OTLPEndpoint, s.logger)
		if err != nil {
			s.logger.Warn("failed to initialize tracing", "error", err)
		} else {
			s.stopTraces = stop
		}
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      120 * time.Second, // batch assessment can be slow
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "port", s.cfg.Port, "env", s.cfg.Env)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Mark as ready after brief delay for startup
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown requested")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Error("shutdown error", "error", err)
		return err
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
		s.logger.Info("rate limiter stopped")
	}

	if s.stopDBStats != nil {
		s.stopDBStats()
	}

	if s.stopTraces != nil {
		if err := s.stopTraces(ctx); err != nil {
			s.logger.Error("trace shutdown error", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		} else {
			s.logger.Info("database connection closed")
		}
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the gin router for testing
func (s *Server) Router() *gin.Engine {
	return s.router
}
