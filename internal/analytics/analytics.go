// Package analytics serves dashboard statistics derived from the most
// recent cached batch assessment run.
package analytics

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/decaylab/churnwatch/internal/assessment"
	"github.com/decaylab/churnwatch/internal/customer"
)

// criticalThreshold marks the score above which a customer counts as
// critical regardless of the caller's at-risk threshold.
const criticalThreshold = 81

// Stats is the dashboard summary. The risk fields are nil until an
// analyze-all run has been cached.
type Stats struct {
	TotalCustomers  int                              `json:"total_customers"`
	ActiveCustomers int                              `json:"active_customers"`
	AtRiskCount     *int                             `json:"at_risk_count"`
	CriticalCount   *int                             `json:"critical_count"`
	AvgRiskScore    *float64                         `json:"avg_risk_score"`
	RevenueAtRisk   map[assessment.RiskLevel]float64 `json:"revenue_at_risk,omitempty"`
	LastAnalyzedAt  *time.Time                       `json:"last_analyzed_at,omitempty"`
}

// Service computes dashboard statistics
type Service struct {
	customers customer.Store
	reports   assessment.ReportStore
}

// NewService creates an analytics service
func NewService(customers customer.Store, reports assessment.ReportStore) *Service {
	return &Service{customers: customers, reports: reports}
}

// Stats builds the dashboard summary. At-risk counts customers at or
// above the threshold in the latest cached batch report.
func (s *Service) Stats(ctx context.Context, threshold float64) (*Stats, error) {
	profiles, err := s.customers.ListCustomers(ctx, customer.ListOptions{})
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalCustomers:  len(profiles),
		ActiveCustomers: len(profiles),
	}

	report, err := s.reports.LatestBatch(ctx)
	if errors.Is(err, assessment.ErrNoBatchReport) {
		return stats, nil
	}
	if err != nil {
		return nil, err
	}

	atRisk, critical := 0, 0
	var totalScore float64
	revenue := map[assessment.RiskLevel]float64{
		assessment.RiskCritical: 0,
		assessment.RiskHigh:     0,
		assessment.RiskMedium:   0,
		assessment.RiskLow:      0,
	}

	for _, a := range report.Assessments {
		if a.ChurnRiskScore >= threshold {
			atRisk++
		}
		if a.ChurnRiskScore >= criticalThreshold {
			critical++
		}
		totalScore += a.ChurnRiskScore
		revenue[a.RiskLevel] += a.RevenueAtRisk
	}

	avg := 0.0
	if len(report.Assessments) > 0 {
		avg = math.Round(totalScore/float64(len(report.Assessments))*100) / 100
	}

	stats.AtRiskCount = &atRisk
	stats.CriticalCount = &critical
	stats.AvgRiskScore = &avg
	stats.RevenueAtRisk = revenue
	runAt := report.RunAt
	stats.LastAnalyzedAt = &runAt

	if stats.TotalCustomers == 0 {
		stats.TotalCustomers = len(report.Assessments)
		stats.ActiveCustomers = len(report.Assessments)
	}

	return stats, nil
}
