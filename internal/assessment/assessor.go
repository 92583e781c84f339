package assessment

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/decaylab/churnwatch/internal/customer"
	"github.com/decaylab/churnwatch/internal/llm"
	"github.com/decaylab/churnwatch/internal/logging"
	"github.com/decaylab/churnwatch/internal/metrics"
	"github.com/decaylab/churnwatch/internal/traces"
)

// lookbackDays covers both comparison windows when loading events.
const lookbackDays = 2 * windowDays

// Assessor runs the full risk assessment pipeline: metric aggregation,
// scoring, similarity lookup, score combination, and prediction. A nil
// scorer forces heuristic scoring; a nil matcher skips similarity
// evidence entirely.
type Assessor struct {
	store   customer.Store
	calc    *MetricsCalculator
	scorer  Scorer
	matcher Matcher
	log     *slog.Logger
	now     func() time.Time
}

func NewAssessor(store customer.Store, scorer Scorer, matcher Matcher, log *slog.Logger) *Assessor {
	return &Assessor{
		store:   store,
		calc:    NewMetricsCalculator(),
		scorer:  scorer,
		matcher: matcher,
		log:     log,
		now:     time.Now,
	}
}

// AssessCustomer produces a complete risk assessment for one customer.
// Returns customer.ErrCustomerNotFound for unknown IDs and
// customer.ErrNoBehaviorData when the customer has no recorded events.
func (a *Assessor) AssessCustomer(ctx context.Context, customerID string) (*RiskAssessment, error) {
	ctx, span := traces.StartSpan(ctx, "assessment.AssessCustomer", traces.CustomerID(customerID))
	defer span.End()

	started := a.now()
	log := logging.WithCustomer(ctx, customerID)

	profile, err := a.store.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	since := started.AddDate(0, 0, -lookbackDays)
	events, err := a.store.ListEvents(ctx, customerID, since)
	if err != nil {
		return nil, err
	}

	snap := a.calc.Compute(profile, events, started)

	payload, method, err := a.scoreSnapshot(ctx, log, profile, snap)
	if err != nil {
		return nil, err
	}

	matches, err := a.findSimilar(ctx, snap)
	if err != nil {
		return nil, err
	}

	combined := CombineScores(float64(payload.ChurnRiskScore), matches)
	level := RiskLevelFor(combined)
	trend := DeclineTrendFor(snap)

	signals := make([]DecaySignal, 0, len(payload.DecaySignals))
	for _, s := range payload.DecaySignals {
		signals = append(signals, DecaySignal(s))
	}

	result := &RiskAssessment{
		CustomerID:              profile.ID,
		CustomerName:            profile.Name,
		Tier:                    profile.Tier,
		MonthlyValue:            profile.MonthlyValue,
		ChurnRiskScore:          combined,
		RiskLevel:               level,
		DecaySignals:            signals,
		PrimaryConcern:          payload.PrimaryConcern,
		RecommendedIntervention: payload.RecommendedIntervention,
		Urgency:                 RiskLevel(payload.Urgency),
		SimilarCustomers:        matches,
		PredictedChurnDate:      PredictChurnDate(started, matches, trend),
		InterventionPriority:    InterventionPriority(combined, profile.MonthlyValue),
		RevenueAtRisk:           RevenueAtRisk(profile.MonthlyValue),
		Confidence:              ConfidenceFor(len(matches)),
		AssessedAt:              started,
	}

	metrics.AssessmentsTotal.WithLabelValues(method).Inc()
	metrics.AssessmentsByRiskLevel.WithLabelValues(string(level)).Inc()
	metrics.AssessmentDuration.Observe(time.Since(started).Seconds())

	span.SetAttributes(
		traces.RiskScore(combined),
		traces.RiskLevel(string(level)),
		traces.ScoringMethod(method),
		traces.MatchCount(len(matches)),
	)

	log.Info("assessment complete",
		"risk_score", combined,
		"risk_level", level,
		"method", method,
		"similar_matches", len(matches),
		"priority", result.InterventionPriority,
	)

	return result, nil
}

// scoreSnapshot obtains a score payload, falling back to rule-based
// scoring when the AI scorer is disabled or exhausts its retries.
func (a *Assessor) scoreSnapshot(ctx context.Context, log *slog.Logger, profile *customer.CustomerProfile, snap *MetricsSnapshot) (*llm.ScorePayload, string, error) {
	if a.scorer == nil {
		return HeuristicScore(snap), "heuristic", nil
	}

	payload, err := a.scorer.Score(ctx, BuildPrompt(profile, snap))
	if err == nil {
		return payload, "ai", nil
	}

	var scoreErr *llm.ScoringError
	if errors.As(err, &scoreErr) {
		log.Warn("scorer exhausted retries, using rule-based fallback",
			"attempts", scoreErr.Attempts, "error", scoreErr.Err)
		metrics.ScorerFallbacksTotal.Inc()
		return HeuristicScore(snap), "heuristic", nil
	}

	return nil, "", err
}

func (a *Assessor) findSimilar(ctx context.Context, snap *MetricsSnapshot) ([]SimilarChurnedCustomer, error) {
	if a.matcher == nil {
		return nil, nil
	}
	return a.matcher.FindSimilar(ctx, snap)
}

// AssessAll assesses every customer and returns the results sorted by
// risk score, highest first. Individual failures are logged and skipped
// so that one bad customer never aborts the batch.
func (a *Assessor) AssessAll(ctx context.Context) ([]*RiskAssessment, error) {
	ctx, span := traces.StartSpan(ctx, "assessment.AssessAll")
	defer span.End()

	profiles, err := a.store.ListCustomers(ctx, customer.ListOptions{})
	if err != nil {
		return nil, err
	}

	results := make([]*RiskAssessment, 0, len(profiles))
	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := a.AssessCustomer(ctx, p.ID)
		if err != nil {
			a.log.Warn("skipping customer in batch assessment",
				"customer_id", p.ID, "error", err)
			continue
		}
		results = append(results, res)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].ChurnRiskScore > results[j].ChurnRiskScore
	})

	metrics.BatchRunsTotal.Inc()
	metrics.BatchCustomersAssessed.Set(float64(len(results)))

	a.log.Info("batch assessment complete",
		"customers", len(profiles), "assessed", len(results))

	return results, nil
}
