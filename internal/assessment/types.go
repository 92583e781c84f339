// Package assessment implements the churn risk assessment engine: metric
// aggregation, AI-assisted scoring with a deterministic fallback, historical
// similarity evidence, score combination, churn-date prediction, and
// intervention priority.
package assessment

import (
	"context"
	"time"

	"github.com/decaylab/churnwatch/internal/customer"
	"github.com/decaylab/churnwatch/internal/llm"
)

// Trend classifies how a metric moved between the two 30-day windows
type Trend string

const (
	TrendDeclining  Trend = "declining"
	TrendStable     Trend = "stable"
	TrendIncreasing Trend = "increasing"
)

// Sentiment classifies support-ticket tone
type Sentiment string

const (
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentPositive Sentiment = "positive"
)

// RiskLevel bands the combined score. Urgency uses the same values.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskLevelFor maps a score to its band: <30 low, <=60 medium, <=80 high,
// else critical
func RiskLevelFor(score float64) RiskLevel {
	switch {
	case score < 30:
		return RiskLow
	case score <= 60:
		return RiskMedium
	case score <= 80:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// Confidence grades how much similarity evidence supports an assessment
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ConfidenceFor maps similarity-match count to a confidence level
func ConfidenceFor(matches int) Confidence {
	switch {
	case matches >= 3:
		return ConfidenceHigh
	case matches >= 1:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// DeclineTrend classifies overall decline speed for churn-date prediction
type DeclineTrend string

const (
	DeclineSlow     DeclineTrend = "slow"
	DeclineModerate DeclineTrend = "moderate"
	DeclineRapid    DeclineTrend = "rapid"
)

// DecaySignal names one behavioral indicator of disengagement
type DecaySignal string

// Signal catalog. The first group is emitted by metric analysis; the second
// by the heuristic fallback scorer (kept distinct for parity with the AI
// scorer's vocabulary).
const (
	SignalLoginDeclineModerate     DecaySignal = "login_frequency_decline_moderate"
	SignalLoginDeclineSevere       DecaySignal = "login_frequency_decline_severe"
	SignalFeatureUsageDecrease     DecaySignal = "feature_usage_decrease"
	SignalFeatureUsageSevere       DecaySignal = "feature_usage_severe_decrease"
	SignalResponseTimeIncrease     DecaySignal = "email_response_time_increase"
	SignalResponseTimeSevere       DecaySignal = "email_response_time_severe_increase"
	SignalPaymentDelays            DecaySignal = "payment_delays"
	SignalPaymentDelaysSevere      DecaySignal = "payment_delays_severe"
	SignalNegativeSupportSentiment DecaySignal = "negative_support_sentiment"
	SignalIncreasedSupportTickets  DecaySignal = "increased_support_tickets"
	SignalEngagementDecline        DecaySignal = "overall_engagement_decline"
	SignalCriticalInactivity       DecaySignal = "critical_inactivity_detected"

	SignalDecreasedLogins      DecaySignal = "decreased_logins"
	SignalReducedFeatureUsage  DecaySignal = "reduced_feature_usage"
	SignalSlowerEmailResponses DecaySignal = "slower_email_responses"
	SignalHighSupportTickets   DecaySignal = "high_support_tickets"
	SignalNegativeSentiment    DecaySignal = "negative_sentiment"
	SignalInsufficientSignals  DecaySignal = "insufficient_signals"
)

// MetricsSnapshot is the per-customer, per-run aggregate of the two 30-day
// behavior windows. Computed fresh per invocation, never cached.
type MetricsSnapshot struct {
	LoginsLast30       int       `json:"logins_last_30"`
	LoginsPrev30       int       `json:"logins_prev_30"`
	LoginTrend         Trend     `json:"login_trend"`
	TicketCount        int       `json:"ticket_count"`
	TicketSentiment    Sentiment `json:"ticket_sentiment"`
	FeatureUsageLast30 float64   `json:"feature_usage_last_30"` // weekly-normalized
	FeatureUsagePrev30 float64   `json:"feature_usage_prev_30"`
	ResponseTimeLast30 float64   `json:"response_time_last_30"` // hours
	ResponseTimePrev30 float64   `json:"response_time_prev_30"`
	PaymentDelayDays   float64   `json:"payment_delay_days"` // max observed
	MonthsAsCustomer   float64   `json:"months_as_customer"`
	EngagementTrend    Trend     `json:"engagement_trend"`
}

// SimilarChurnedCustomer is one similarity-index hit: a historical churned
// customer whose behavior pattern resembled the one under assessment.
// Read-only reference data; never created by the engine.
type SimilarChurnedCustomer struct {
	ID               string  `json:"customer_id"`
	SimilarityScore  float64 `json:"similarity_score"`
	Name             string  `json:"name"`
	ChurnReason      string  `json:"churn_reason"`
	DecayPattern     string  `json:"decay_pattern"`
	DaysUntilChurned int     `json:"days_until_churned"`
	Tier             string  `json:"tier"`
	MonthlyValue     float64 `json:"monthly_value"`
}

// RiskAssessment is the engine's output for one customer. Immutable once
// returned; a failed assessment for one customer never corrupts others in
// a batch.
type RiskAssessment struct {
	CustomerID              string                   `json:"customer_id"`
	CustomerName            string                   `json:"customer_name"`
	Tier                    customer.Tier            `json:"tier"`
	MonthlyValue            float64                  `json:"monthly_value"`
	ChurnRiskScore          float64                  `json:"churn_risk_score"`
	RiskLevel               RiskLevel                `json:"risk_level"`
	DecaySignals            []DecaySignal            `json:"decay_signals"`
	PrimaryConcern          string                   `json:"primary_concern"`
	RecommendedIntervention string                   `json:"recommended_intervention"`
	Urgency                 RiskLevel                `json:"urgency"`
	SimilarCustomers        []SimilarChurnedCustomer `json:"similar_customers"`
	PredictedChurnDate      time.Time                `json:"predicted_churn_date"`
	InterventionPriority    int                      `json:"intervention_priority"`
	RevenueAtRisk           float64                  `json:"revenue_at_risk"`
	Confidence              Confidence               `json:"confidence"`
	AssessedAt              time.Time                `json:"assessed_at"`
}

// Scorer produces a contract-satisfying score payload from a prompt.
// *llm.Scorer implements this; tests substitute fakes.
type Scorer interface {
	Score(ctx context.Context, prompt string) (*llm.ScorePayload, error)
}

// Matcher finds historically churned customers with similar behavior.
// Implementations degrade to an empty match list on index failure.
type Matcher interface {
	FindSimilar(ctx context.Context, m *MetricsSnapshot) ([]SimilarChurnedCustomer, error)
}
