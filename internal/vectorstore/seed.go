package vectorstore

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/decaylab/churnwatch/internal/assessment"
	"github.com/decaylab/churnwatch/internal/customer"
)

// StableID derives a deterministic integer-style vector ID from a customer
// identifier: the first 12 hex chars of its SHA-1, decimal-encoded. Re-seeding
// the index therefore overwrites rather than duplicates.
func StableID(customerID string) string {
	sum := sha1.Sum([]byte(customerID))
	prefix := hex.EncodeToString(sum[:])[:12]
	n, _ := strconv.ParseUint(prefix, 16, 64)
	return strconv.FormatUint(n, 10)
}

// EstimateSnapshot reconstructs an approximate metrics snapshot for a
// churned customer from their churn record. Historical event logs are not
// retained for churned customers, so the index is seeded from these
// estimates: the decay pattern sets how collapsed the activity was, and the
// churn reason shapes which dimension carried the strongest signal.
func EstimateSnapshot(c *customer.ChurnedCustomer) *assessment.MetricsSnapshot {
	snap := &assessment.MetricsSnapshot{
		LoginTrend:         assessment.TrendDeclining,
		EngagementTrend:    assessment.TrendDeclining,
		TicketSentiment:    assessment.SentimentNeutral,
		ResponseTimeLast30: 48,
		ResponseTimePrev30: 24,
		MonthsAsCustomer:   float64(c.DaysUntilChurned) / 30.44,
	}

	switch c.DecayPattern {
	case customer.PatternRapid:
		snap.LoginsLast30 = 1
		snap.LoginsPrev30 = 20
		snap.FeatureUsageLast30 = 1
		snap.FeatureUsagePrev30 = 10
	default: // gradual
		snap.LoginsLast30 = 5
		snap.LoginsPrev30 = 12
		snap.FeatureUsageLast30 = 4
		snap.FeatureUsagePrev30 = 8
	}

	switch c.ChurnReason {
	case customer.ReasonPoorSupport:
		snap.TicketCount = 8
		snap.TicketSentiment = assessment.SentimentNegative
		snap.ResponseTimeLast30 = 72
	case customer.ReasonPricing:
		snap.PaymentDelayDays = 12
	case customer.ReasonMissingFeatures:
		snap.FeatureUsageLast30 = snap.FeatureUsageLast30 / 2
		snap.TicketCount = 4
	case customer.ReasonCompetitor:
		snap.FeatureUsageLast30 = 1
	case customer.ReasonBusinessShutdown:
		snap.LoginsLast30 = 0
		snap.FeatureUsageLast30 = 0
		snap.PaymentDelayDays = 20
	}

	return snap
}

// Seeder populates the similarity index with churned-customer vectors
type Seeder struct {
	client    Client
	matcher   *Matcher
	namespace string
}

// NewSeeder creates a seeder sharing the matcher's vector layout
func NewSeeder(client Client, matcher *Matcher, namespace string) *Seeder {
	return &Seeder{client: client, matcher: matcher, namespace: namespace}
}

// SeedChurned upserts one vector per churned customer and returns the count
func (s *Seeder) SeedChurned(ctx context.Context, churned []*customer.ChurnedCustomer) (int, error) {
	if len(churned) == 0 {
		return 0, nil
	}

	vectors := make([]Vector, 0, len(churned))
	for _, c := range churned {
		snap := EstimateSnapshot(c)
		vectors = append(vectors, Vector{
			ID:     StableID(c.ID),
			Values: s.matcher.BuildVector(snap),
			Metadata: map[string]any{
				"customer_id":        c.ID,
				"name":               c.Name,
				"churned":            true,
				"churn_reason":       string(c.ChurnReason),
				"decay_pattern":      string(c.DecayPattern),
				"days_until_churned": c.DaysUntilChurned,
				"tier":               string(c.Tier),
				"monthly_value":      c.MonthlyValue,
			},
		})
	}

	resp, err := s.client.Upsert(ctx, UpsertRequest{
		Vectors:   vectors,
		Namespace: s.namespace,
	})
	if err != nil {
		return 0, fmt.Errorf("seed churned vectors: %w", err)
	}
	return int(resp.UpsertedCount), nil
}
