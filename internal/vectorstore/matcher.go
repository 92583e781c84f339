package vectorstore

import (
	"context"
	"log/slog"

	"github.com/decaylab/churnwatch/internal/assessment"
	"github.com/decaylab/churnwatch/internal/metrics"
)

// Dimension is the index's fixed vector length
const Dimension = 768

// Vector layout: only the first 10 dimensions carry signal today; the rest
// are zero-filled to reserve room without changing the index contract.
const (
	dimLogins = iota
	dimFeatureUsage
	dimTickets
	dimResponseTime
	dimPaymentDelay
	dimSessionDuration
	dimSentiment
	dimTenure
	dimLoginTrend
	dimEngagement
)

// Session duration is not tracked yet; a constant placeholder keeps the
// dimension stable until it is.
const sessionDurationMinutes = 30.0

// Matcher queries the similarity index for churned customers whose behavior
// resembles a metrics snapshot. Implements assessment.Matcher.
type Matcher struct {
	client    Client
	log       *slog.Logger
	namespace string
	dimension int
	topK      int
}

// Compile-time interface check
var _ assessment.Matcher = (*Matcher)(nil)

// NewMatcher creates a similarity matcher over the given index client
func NewMatcher(client Client, log *slog.Logger, namespace string, dimension, topK int) *Matcher {
	if dimension <= 0 {
		dimension = Dimension
	}
	if topK <= 0 {
		topK = 5
	}
	if log == nil {
		log = slog.Default()
	}
	return &Matcher{
		client:    client,
		log:       log.With("component", "matcher"),
		namespace: namespace,
		dimension: dimension,
		topK:      topK,
	}
}

// FindSimilar queries the index restricted to churned customers. Index
// failure degrades to an empty match list; the caller's confidence level
// drops to low as a consequence, but the assessment proceeds.
func (m *Matcher) FindSimilar(ctx context.Context, snap *assessment.MetricsSnapshot) ([]assessment.SimilarChurnedCustomer, error) {
	vec := m.BuildVector(snap)

	resp, err := m.client.Query(ctx, QueryRequest{
		Namespace:       m.namespace,
		Vector:          vec,
		TopK:            m.topK,
		Filter:          map[string]any{"churned": map[string]any{"$eq": true}},
		IncludeMetadata: true,
	})
	if err != nil {
		m.log.Warn("similarity query failed, continuing without matches", "error", err)
		metrics.VectorQueriesTotal.WithLabelValues("error").Inc()
		return nil, nil
	}

	if len(resp.Matches) == 0 {
		metrics.VectorQueriesTotal.WithLabelValues("empty").Inc()
		return nil, nil
	}
	metrics.VectorQueriesTotal.WithLabelValues("ok").Inc()

	matches := make([]assessment.SimilarChurnedCustomer, 0, len(resp.Matches))
	for _, hit := range resp.Matches {
		matches = append(matches, matchFromMetadata(hit))
	}
	return matches, nil
}

// BuildVector converts a snapshot into the fixed-length feature vector
func (m *Matcher) BuildVector(snap *assessment.MetricsSnapshot) []float32 {
	vec := make([]float32, m.dimension)

	vec[dimLogins] = normalize(float64(snap.LoginsLast30), 0, 30)
	vec[dimFeatureUsage] = normalize(snap.FeatureUsageLast30, 0, 20)
	vec[dimTickets] = normalize(float64(snap.TicketCount), 0, 15)
	vec[dimResponseTime] = normalize(snap.ResponseTimeLast30, 0, 100)
	vec[dimPaymentDelay] = normalize(snap.PaymentDelayDays, 0, 30)
	vec[dimSessionDuration] = normalize(sessionDurationMinutes, 0, 120)
	vec[dimSentiment] = float32((sentimentValue(snap.TicketSentiment) + 1) / 2)
	vec[dimTenure] = normalize(snap.MonthsAsCustomer, 0, 36)
	vec[dimLoginTrend] = float32((trendSign(snap.LoginTrend) + 1) / 2)
	vec[dimEngagement] = float32(engagementScore(snap.EngagementTrend))

	return vec
}

func matchFromMetadata(hit QueryMatch) assessment.SimilarChurnedCustomer {
	match := assessment.SimilarChurnedCustomer{
		ID:              hit.ID,
		SimilarityScore: hit.Score,
	}

	md := hit.Metadata
	if md == nil {
		return match
	}
	if v, ok := md["customer_id"].(string); ok {
		match.ID = v
	}
	if v, ok := md["name"].(string); ok {
		match.Name = v
	}
	if v, ok := md["churn_reason"].(string); ok {
		match.ChurnReason = v
	}
	if v, ok := md["decay_pattern"].(string); ok {
		match.DecayPattern = v
	}
	if v, ok := md["days_until_churned"].(float64); ok {
		match.DaysUntilChurned = int(v)
	}
	if v, ok := md["tier"].(string); ok {
		match.Tier = v
	}
	if v, ok := md["monthly_value"].(float64); ok {
		match.MonthlyValue = v
	}
	return match
}

// normalize linearly rescales value into [0,1], clamping at the bounds
func normalize(value, min, max float64) float32 {
	if max <= min {
		return 0
	}
	scaled := (value - min) / (max - min)
	if scaled < 0 {
		return 0
	}
	if scaled > 1 {
		return 1
	}
	return float32(scaled)
}

func sentimentValue(s assessment.Sentiment) float64 {
	switch s {
	case assessment.SentimentNegative:
		return -1
	case assessment.SentimentPositive:
		return 1
	default:
		return 0
	}
}

func trendSign(t assessment.Trend) float64 {
	switch t {
	case assessment.TrendDeclining:
		return -1
	case assessment.TrendIncreasing:
		return 1
	default:
		return 0
	}
}

func engagementScore(t assessment.Trend) float64 {
	switch t {
	case assessment.TrendDeclining:
		return 0.2
	case assessment.TrendIncreasing:
		return 0.8
	default:
		return 0.5
	}
}
