package assessment

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decaylab/churnwatch/internal/customer"
	"github.com/decaylab/churnwatch/internal/llm"
)

type fakeScorer struct {
	payload *llm.ScorePayload
	err     error
	calls   int
}

func (f *fakeScorer) Score(ctx context.Context, prompt string) (*llm.ScorePayload, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

type fakeMatcher struct {
	matches []SimilarChurnedCustomer
	err     error
}

func (f *fakeMatcher) FindSimilar(ctx context.Context, m *MetricsSnapshot) ([]SimilarChurnedCustomer, error) {
	return f.matches, f.err
}

func seedStore(t *testing.T, profiles ...*customer.CustomerProfile) customer.Store {
	t.Helper()
	store := customer.NewMemoryStore()
	ctx := context.Background()

	for _, p := range profiles {
		require.NoError(t, store.UpsertCustomer(ctx, p))
		require.NoError(t, store.AddEvents(ctx, []*customer.BehaviorEvent{
			{CustomerID: p.ID, Timestamp: time.Now().AddDate(0, 0, -3), Kind: customer.EventLogin, MetricValue: 1},
			{CustomerID: p.ID, Timestamp: time.Now().AddDate(0, 0, -40), Kind: customer.EventLogin, MetricValue: 1},
		}))
	}
	return store
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func aiPayload(score int) *llm.ScorePayload {
	return &llm.ScorePayload{
		ChurnRiskScore:          score,
		DecaySignals:            []string{string(SignalLoginDeclineModerate)},
		PrimaryConcern:          "Engagement is slipping",
		RecommendedIntervention: "Schedule an executive business review",
		Urgency:                 "high",
	}
}

func TestAssessCustomer_AIScorePath(t *testing.T) {
	profile := testProfile()
	store := seedStore(t, profile)
	scorer := &fakeScorer{payload: aiPayload(70)}
	matcher := &fakeMatcher{matches: []SimilarChurnedCustomer{
		{ID: "912345678901", SimilarityScore: 0.9, DaysUntilChurned: 45},
		{ID: "912345678902", SimilarityScore: 0.8, DaysUntilChurned: 50},
		{ID: "912345678903", SimilarityScore: 0.7, DaysUntilChurned: 120},
	}}

	a := NewAssessor(store, scorer, matcher, testLogger())

	result, err := a.AssessCustomer(context.Background(), profile.ID)
	require.NoError(t, err)

	assert.Equal(t, profile.ID, result.CustomerID)
	assert.Equal(t, profile.Name, result.CustomerName)
	assert.InDelta(t, 85.33, result.ChurnRiskScore, 0.01)
	assert.Equal(t, RiskCritical, result.RiskLevel)
	assert.Equal(t, RiskLevel("high"), result.Urgency)
	assert.Equal(t, ConfidenceHigh, result.Confidence)
	assert.Equal(t, RevenueAtRisk(profile.MonthlyValue), result.RevenueAtRisk)
	assert.Len(t, result.SimilarCustomers, 3)
	assert.False(t, result.PredictedChurnDate.Before(result.AssessedAt))
	assert.GreaterOrEqual(t, result.InterventionPriority, 1)
	assert.LessOrEqual(t, result.InterventionPriority, 10)
	assert.Equal(t, 1, scorer.calls)
}

func TestAssessCustomer_FallsBackOnScoringError(t *testing.T) {
	profile := testProfile()
	store := seedStore(t, profile)
	scorer := &fakeScorer{err: &llm.ScoringError{Attempts: 3, Err: errors.New("invalid json")}}

	a := NewAssessor(store, scorer, &fakeMatcher{}, testLogger())

	result, err := a.AssessCustomer(context.Background(), profile.ID)
	require.NoError(t, err)

	assert.Equal(t, "Rule-based assessment (AI scorer unavailable)", result.PrimaryConcern)
	assert.Equal(t, ConfidenceLow, result.Confidence)
}

func TestAssessCustomer_PropagatesOtherScorerErrors(t *testing.T) {
	profile := testProfile()
	store := seedStore(t, profile)
	scorer := &fakeScorer{err: context.DeadlineExceeded}

	a := NewAssessor(store, scorer, &fakeMatcher{}, testLogger())

	_, err := a.AssessCustomer(context.Background(), profile.ID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAssessCustomer_NilScorerUsesHeuristic(t *testing.T) {
	profile := testProfile()
	store := seedStore(t, profile)

	a := NewAssessor(store, nil, nil, testLogger())

	result, err := a.AssessCustomer(context.Background(), profile.ID)
	require.NoError(t, err)

	assert.Equal(t, "Rule-based assessment (AI scorer unavailable)", result.PrimaryConcern)
	assert.Empty(t, result.SimilarCustomers)
}

func TestAssessCustomer_UnknownCustomer(t *testing.T) {
	store := customer.NewMemoryStore()
	a := NewAssessor(store, nil, nil, testLogger())

	_, err := a.AssessCustomer(context.Background(), "CUST999")
	assert.ErrorIs(t, err, customer.ErrCustomerNotFound)
}

func TestAssessCustomer_NoBehaviorData(t *testing.T) {
	store := customer.NewMemoryStore()
	profile := testProfile()
	require.NoError(t, store.UpsertCustomer(context.Background(), profile))

	a := NewAssessor(store, nil, nil, testLogger())

	_, err := a.AssessCustomer(context.Background(), profile.ID)
	assert.ErrorIs(t, err, customer.ErrNoBehaviorData)
}

func TestAssessAll_SortsByScoreAndSkipsFailures(t *testing.T) {
	ctx := context.Background()
	store := customer.NewMemoryStore()

	low := &customer.CustomerProfile{ID: "CUST001", Name: "Steady Corp", Tier: customer.TierBasic, MonthlyValue: 200}
	high := &customer.CustomerProfile{ID: "CUST002", Name: "Fading Inc", Tier: customer.TierEnterprise, MonthlyValue: 5000}
	// No events at all: should be skipped, not fail the batch.
	bare := &customer.CustomerProfile{ID: "CUST003", Name: "Ghost LLC", Tier: customer.TierBasic, MonthlyValue: 100}

	for _, p := range []*customer.CustomerProfile{low, high, bare} {
		require.NoError(t, store.UpsertCustomer(ctx, p))
	}

	require.NoError(t, store.AddEvents(ctx, []*customer.BehaviorEvent{
		// Healthy activity for CUST001.
		{CustomerID: low.ID, Timestamp: time.Now().AddDate(0, 0, -2), Kind: customer.EventLogin, MetricValue: 1},
		{CustomerID: low.ID, Timestamp: time.Now().AddDate(0, 0, -35), Kind: customer.EventLogin, MetricValue: 1},
		// Declining activity plus payment trouble for CUST002.
		{CustomerID: high.ID, Timestamp: time.Now().AddDate(0, 0, -35), Kind: customer.EventLogin, MetricValue: 1},
		{CustomerID: high.ID, Timestamp: time.Now().AddDate(0, 0, -38), Kind: customer.EventLogin, MetricValue: 1},
		{CustomerID: high.ID, Timestamp: time.Now().AddDate(0, 0, -5), Kind: customer.EventPaymentDelay, MetricValue: 15},
	}))

	a := NewAssessor(store, nil, nil, testLogger())

	results, err := a.AssessAll(ctx)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, high.ID, results[0].CustomerID)
	assert.Equal(t, low.ID, results[1].CustomerID)
	assert.GreaterOrEqual(t, results[0].ChurnRiskScore, results[1].ChurnRiskScore)
}

func TestAssessAll_CancelledContext(t *testing.T) {
	profile := testProfile()
	store := seedStore(t, profile)
	a := NewAssessor(store, nil, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.AssessAll(ctx)
	assert.Error(t, err)
}
