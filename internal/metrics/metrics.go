// Package metrics provides Prometheus instrumentation for the churn engine.
package metrics

import (
	"context"
	"database/sql"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "churnwatch",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "churnwatch",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// AssessmentsTotal counts completed risk assessments by scoring method.
	AssessmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "churnwatch",
			Name:      "assessments_total",
			Help:      "Total risk assessments by scoring method (ai, heuristic).",
		},
		[]string{"method"},
	)

	// AssessmentDuration observes end-to-end single-customer assessment latency.
	AssessmentDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "churnwatch",
		Name:      "assessment_duration_seconds",
		Help:      "Time to produce one customer risk assessment in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	// AssessmentsByRiskLevel counts assessments by resulting risk band.
	AssessmentsByRiskLevel = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "churnwatch",
			Name:      "assessments_by_risk_level_total",
			Help:      "Total assessments by resulting risk level.",
		},
		[]string{"level"},
	)

	// ScorerFallbacksTotal counts AI scorer failures that fell back to the heuristic.
	ScorerFallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "churnwatch",
		Name:      "scorer_fallbacks_total",
		Help:      "Total AI scoring failures handled by the heuristic fallback.",
	})

	// ScorerRequestsTotal counts completion API calls by result.
	ScorerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "churnwatch",
			Name:      "scorer_requests_total",
			Help:      "Total completion API calls by result (ok, error).",
		},
		[]string{"result"},
	)

	// VectorQueriesTotal counts similarity index queries by result.
	VectorQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "churnwatch",
			Name:      "vector_queries_total",
			Help:      "Total similarity index queries by result (ok, empty, error).",
		},
		[]string{"result"},
	)

	// BatchRunsTotal counts analyze-all batch runs.
	BatchRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "churnwatch",
		Name:      "batch_runs_total",
		Help:      "Total analyze-all batch runs started.",
	})

	// BatchCustomersAssessed tracks customers assessed in the last batch run.
	BatchCustomersAssessed = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "churnwatch",
		Name:      "batch_customers_assessed",
		Help:      "Number of customers assessed in the most recent batch run.",
	})

	// Connection pool and runtime gauges, sampled by StartDBStatsCollector.
	DBOpenConnections  = gauge("db_open_connections", "Number of open database connections.")
	DBIdleConnections  = gauge("db_idle_connections", "Number of idle database connections.")
	DBInUseConnections = gauge("db_in_use_connections", "Number of in-use database connections.")
	DBWaitCount        = gauge("db_wait_count_total", "Total number of connections waited for.")
	DBWaitDuration     = gauge("db_wait_duration_seconds_total", "Total time waited for connections in seconds.")
	GoroutineCount     = gauge("goroutines", "Current number of goroutines.")
)

func gauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "churnwatch",
		Name:      name,
		Help:      help,
	})
}

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AssessmentsTotal,
		AssessmentDuration,
		AssessmentsByRiskLevel,
		ScorerFallbacksTotal,
		ScorerRequestsTotal,
		VectorQueriesTotal,
		BatchRunsTotal,
		BatchCustomersAssessed,
		DBOpenConnections,
		DBIdleConnections,
		DBInUseConnections,
		DBWaitCount,
		DBWaitDuration,
		GoroutineCount,
	)
}

// StartDBStatsCollector periodically samples sql.DBStats and runtime goroutine
// count into Prometheus gauges. Call in a goroutine; exits when ctx is done.
func StartDBStatsCollector(ctx context.Context, db *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := db.Stats()
			DBOpenConnections.Set(float64(stats.OpenConnections))
			DBIdleConnections.Set(float64(stats.Idle))
			DBInUseConnections.Set(float64(stats.InUse))
			DBWaitCount.Set(float64(stats.WaitCount))
			DBWaitDuration.Set(stats.WaitDuration.Seconds())
			GoroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
