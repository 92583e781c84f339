package assessment

import (
	"math"
	"sort"
	"time"
)

// Score combination weights. The AI (or heuristic) score carries more
// weight than historical similarity because it reflects the customer's
// actual recent behavior rather than pattern proximity.
const (
	modelScoreWeight = 0.6
	similarityWeight = 0.4

	// Customers that churned quickly resemble more urgent situations.
	quickChurnDays       = 60
	quickChurnMultiplier = 1.5

	defaultChurnHorizonDays = 90
)

// CombineScores blends the model's risk score with the similarity of the
// customer to historically churned accounts. With no matches the model
// score passes through unchanged.
func CombineScores(modelScore float64, matches []SimilarChurnedCustomer) float64 {
	if len(matches) == 0 {
		return modelScore
	}

	var total float64
	for _, m := range matches {
		mult := 1.0
		// Zero days means the churn window is unknown, not instant.
		if m.DaysUntilChurned > 0 && m.DaysUntilChurned < quickChurnDays {
			mult = quickChurnMultiplier
		}
		total += m.SimilarityScore * mult * 100
	}
	avgSimilarity := total / float64(len(matches))

	combined := modelScore*modelScoreWeight + avgSimilarity*similarityWeight
	combined = math.Max(0, math.Min(100, combined))
	return math.Round(combined*100) / 100
}

// DeclineTrendFor classifies how fast a customer's engagement is
// deteriorating based on the computed behavioral trends.
func DeclineTrendFor(snap *MetricsSnapshot) DeclineTrend {
	engagementDeclining := snap.EngagementTrend == TrendDeclining
	loginDeclining := snap.LoginTrend == TrendDeclining

	switch {
	case engagementDeclining && loginDeclining:
		return DeclineRapid
	case engagementDeclining || loginDeclining:
		return DeclineModerate
	default:
		return DeclineSlow
	}
}

// PredictChurnDate estimates when the customer is likely to churn, using
// the median time-to-churn of similar historical customers adjusted by
// the current decline trend. Without matches the horizon defaults to
// 90 days. The prediction is never earlier than now.
func PredictChurnDate(now time.Time, matches []SimilarChurnedCustomer, trend DeclineTrend) time.Time {
	days := float64(defaultChurnHorizonDays)
	if len(matches) > 0 {
		days = medianDaysUntilChurned(matches)
	}

	switch trend {
	case DeclineRapid:
		days *= 0.5
	case DeclineSlow:
		days *= 1.5
	}

	predicted := now.AddDate(0, 0, int(days))
	if predicted.Before(now) {
		return now
	}
	return predicted
}

func medianDaysUntilChurned(matches []SimilarChurnedCustomer) float64 {
	days := make([]int, 0, len(matches))
	for _, m := range matches {
		if m.DaysUntilChurned > 0 {
			days = append(days, m.DaysUntilChurned)
		}
	}
	if len(days) == 0 {
		return defaultChurnHorizonDays
	}
	sort.Ints(days)
	mid := len(days) / 2
	if len(days)%2 == 1 {
		return float64(days[mid])
	}
	return float64(days[mid-1]+days[mid]) / 2
}

// InterventionPriority ranks how urgently a CSM should act, from 1 to 10.
// Risk score sets the baseline and account value scales it, capped at a
// doubling for accounts worth $5000/month or more. The fractional part
// is truncated, so a customer only earns the next rank outright.
func InterventionPriority(score, monthlyValue float64) int {
	valueBoost := 1 + math.Min(monthlyValue/5000, 1)
	p := int((score / 100) * 10 * valueBoost)
	if p > 10 {
		p = 10
	}
	if p < 1 {
		p = 1
	}
	return p
}

// RevenueAtRisk estimates annual revenue exposure assuming a twelve
// month remaining lifetime.
func RevenueAtRisk(monthlyValue float64) float64 {
	return math.Round(monthlyValue*12*100) / 100
}
