package assessment

import "math"

// Summary aggregates a set of assessments for dashboard-style views.
type Summary struct {
	TotalCustomers               int               `json:"total_customers"`
	RiskBreakdown                map[RiskLevel]int `json:"risk_breakdown"`
	AverageRiskScore             float64           `json:"average_risk_score"`
	TotalRevenueAtRisk           float64           `json:"total_revenue_at_risk"`
	CustomersNeedingIntervention int               `json:"customers_needing_intervention"`
}

// Summarize computes aggregate statistics over a batch of assessments.
// High and critical customers count as needing intervention.
func Summarize(assessments []*RiskAssessment) *Summary {
	sum := &Summary{
		RiskBreakdown: map[RiskLevel]int{
			RiskCritical: 0,
			RiskHigh:     0,
			RiskMedium:   0,
			RiskLow:      0,
		},
	}
	if len(assessments) == 0 {
		return sum
	}

	var totalScore float64
	for _, a := range assessments {
		sum.RiskBreakdown[a.RiskLevel]++
		totalScore += a.ChurnRiskScore
		sum.TotalRevenueAtRisk += a.RevenueAtRisk
		if a.RiskLevel == RiskHigh || a.RiskLevel == RiskCritical {
			sum.CustomersNeedingIntervention++
		}
	}

	sum.TotalCustomers = len(assessments)
	sum.AverageRiskScore = math.Round(totalScore/float64(len(assessments))*100) / 100
	sum.TotalRevenueAtRisk = math.Round(sum.TotalRevenueAtRisk*100) / 100
	return sum
}
