package assessment

import (
	"github.com/decaylab/churnwatch/internal/llm"
)

// HeuristicScore is the deterministic rule-based scorer used whenever the
// AI scorer cannot produce a valid result. It returns the exact payload
// shape of the AI path so the rest of the pipeline is agnostic to which
// scorer ran. Pure: identical snapshots always yield identical output.
func HeuristicScore(snap *MetricsSnapshot) *llm.ScorePayload {
	score := 20
	var signals []string

	if snap.LoginTrend == TrendDeclining {
		score += 20
		signals = append(signals, string(SignalDecreasedLogins))
	}

	if snap.FeatureUsagePrev30 > 0 && snap.FeatureUsageLast30 < 0.75*snap.FeatureUsagePrev30 {
		score += 15
		signals = append(signals, string(SignalReducedFeatureUsage))
	}

	if snap.ResponseTimePrev30 > 0 && snap.ResponseTimeLast30 > 2*snap.ResponseTimePrev30 {
		score += 15
		signals = append(signals, string(SignalSlowerEmailResponses))
	}

	if snap.PaymentDelayDays > 0 {
		score += 10
		signals = append(signals, string(SignalPaymentDelays))
	}
	if snap.PaymentDelayDays >= 10 {
		score += 15
	}

	if snap.TicketCount >= 5 {
		score += 10
		signals = append(signals, string(SignalHighSupportTickets))
	}
	if snap.TicketSentiment == SentimentNegative {
		score += 10
		signals = append(signals, string(SignalNegativeSentiment))
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	if len(signals) == 0 {
		signals = []string{string(SignalInsufficientSignals)}
	}

	return &llm.ScorePayload{
		ChurnRiskScore:          score,
		DecaySignals:            signals,
		PrimaryConcern:          "Rule-based assessment (AI scorer unavailable)",
		RecommendedIntervention: "CSM should review recent activity and schedule a check-in",
		Urgency:                 string(urgencyFor(score)),
	}
}

// urgencyFor maps a score to its urgency band: <=30 low, <=60 medium,
// <=80 high, else critical
func urgencyFor(score int) RiskLevel {
	switch {
	case score <= 30:
		return RiskLow
	case score <= 60:
		return RiskMedium
	case score <= 80:
		return RiskHigh
	default:
		return RiskCritical
	}
}
