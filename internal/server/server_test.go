package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decaylab/churnwatch/internal/config"
	"github.com/decaylab/churnwatch/internal/customer"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:        "8080",
		Env:         "test",
		LogLevel:    "error",
		LLMDisabled: true,
	}
}

func seededStore(t *testing.T) customer.Store {
	t.Helper()
	store := customer.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.UpsertCustomer(ctx, &customer.CustomerProfile{
		ID:           "CUST001",
		Name:         "TechFlow Solutions",
		Tier:         customer.TierPro,
		MonthlyValue: 1500,
		SignupDate:   time.Now().AddDate(-1, 0, 0),
	}))
	require.NoError(t, store.AddEvents(ctx, []*customer.BehaviorEvent{
		{CustomerID: "CUST001", Timestamp: time.Now().AddDate(0, 0, -2), Kind: customer.EventLogin, MetricValue: 1},
		{CustomerID: "CUST001", Timestamp: time.Now().AddDate(0, 0, -35), Kind: customer.EventLogin, MetricValue: 1},
	}))
	return store
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(testConfig(), WithStore(seededStore(t)))
	require.NoError(t, err)
	return s
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestLivenessEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadinessBeforeStart(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListCustomersRoute(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/customers", nil)
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Count     int                         `json:"count"`
		Customers []*customer.CustomerProfile `json:"customers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "CUST001", body.Customers[0].ID)
}

func TestAnalysisRoute(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/customers/CUST001/analysis", nil)
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "churn_risk_score")
}

func TestAnalysisRoute_UnknownCustomer(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/customers/CUST404/analysis", nil)
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyzeAllThenStats(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/customers/analyze-all", nil)
	s.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/analytics/stats", nil)
	s.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var stats struct {
		TotalCustomers int  `json:"total_customers"`
		AtRiskCount    *int `json:"at_risk_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalCustomers)
	require.NotNil(t, stats.AtRiskCount)
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.Router().ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	// Upstream-provided IDs pass through.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "upstream-123")
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, "upstream-123", w.Header().Get("X-Request-ID"))
}

func TestNew_ReturnsPromptlyWithDatabase(t *testing.T) {
	dsn := os.Getenv("POSTGRES_URL")
	if dsn == "" {
		t.Skip("POSTGRES_URL not set, skipping integration test")
	}

	cfg := testConfig()
	cfg.DatabaseURL = dsn

	type result struct {
		s   *Server
		err error
	}
	done := make(chan result, 1)
	go func() {
		s, err := New(cfg)
		done <- result{s, err}
	}()

	// Construction must finish on its own; background samplers belong
	// on their own goroutines.
	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.NotNil(t, res.s.Router())
		if res.s.stopDBStats != nil {
			res.s.stopDBStats()
		}
		if res.s.db != nil {
			require.NoError(t, res.s.db.Close())
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server construction blocked with a database configured")
	}
}
