package sampledata

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decaylab/churnwatch/internal/assessment"
)

func TestPreprocessedAnalyses_Deterministic(t *testing.T) {
	genA := NewGenerator(42, genNow)
	genB := NewGenerator(42, genNow)

	a := genA.PreprocessedAnalyses(genA.Generate(30, 10))
	b := genB.PreprocessedAnalyses(genB.Generate(30, 10))

	assert.Equal(t, a, b)
}

func TestPreprocessedAnalyses_Invariants(t *testing.T) {
	gen := NewGenerator(42, genNow)
	ds := gen.Generate(50, 10)
	analyses := gen.PreprocessedAnalyses(ds)

	require.Len(t, analyses, 50)
	for _, a := range analyses {
		assert.GreaterOrEqual(t, a.ChurnRiskScore, 0.0)
		assert.LessOrEqual(t, a.ChurnRiskScore, 100.0)
		assert.GreaterOrEqual(t, a.InterventionPriority, 1)
		assert.LessOrEqual(t, a.InterventionPriority, 10)
		assert.False(t, a.PredictedChurnDate.Before(genNow))
		assert.NotEmpty(t, a.PrimaryConcern)
		assert.NotEmpty(t, a.RecommendedIntervention)
		assert.Equal(t, a.RiskLevel, a.Urgency)
		assert.GreaterOrEqual(t, a.RevenueAtRisk, 0.0)
		assert.Len(t, a.SimilarCustomers, 3)
		for _, s := range a.SimilarCustomers {
			assert.GreaterOrEqual(t, s.SimilarityScore, 0.6)
			assert.LessOrEqual(t, s.SimilarityScore, 0.95)
		}
		assert.True(t, a.AssessedAt.Equal(genNow))
	}
}

func TestPreprocessedAnalyses_CohortsSeparate(t *testing.T) {
	gen := NewGenerator(42, genNow)
	ds := gen.Generate(100, 20)
	analyses := gen.PreprocessedAnalyses(ds)
	require.Len(t, analyses, 100)

	// Healthy base tops out at 35 and adjustments can add at most 20;
	// critical base bottoms out at 80 and adjustments can subtract at most
	// 9. The bands cannot cross.
	healthy := analyses[0]
	critical := analyses[99]
	assert.Less(t, healthy.ChurnRiskScore, critical.ChurnRiskScore)
	assert.GreaterOrEqual(t, critical.ChurnRiskScore, 71.0)
	assert.LessOrEqual(t, healthy.ChurnRiskScore, 55.0)
}

func TestOfflineRiskLevel(t *testing.T) {
	tests := []struct {
		score int
		want  assessment.RiskLevel
	}{
		{0, assessment.RiskLow},
		{34, assessment.RiskLow},
		{35, assessment.RiskMedium},
		{59, assessment.RiskMedium},
		{60, assessment.RiskHigh},
		{79, assessment.RiskHigh},
		{80, assessment.RiskCritical},
		{100, assessment.RiskCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, offlineRiskLevel(tt.score), "score %d", tt.score)
	}
}

func TestOfflinePriority(t *testing.T) {
	// Low risk, low value cannot fall below 1.
	assert.Equal(t, 1, offlinePriority(0, 100))
	// High risk, high value saturates at 10.
	assert.Equal(t, 10, offlinePriority(100, 8000))
	// 0.6*7 + 0.4*((1680-100)/790) = 4.2 + 0.8 = 5.
	assert.Equal(t, 5, offlinePriority(70, 1680))
}

func TestConcernAndInterventionSelection(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	low := ConcernFor(rng, assessment.RiskLow, nil)
	assert.Contains(t, concernPools["low"], low)

	med := ConcernFor(rng, assessment.RiskMedium, []assessment.DecaySignal{assessment.SignalFeatureUsageDecrease})
	assert.Contains(t, concernPools["medium_feature"], med)

	multi := ConcernFor(rng, assessment.RiskHigh, []assessment.DecaySignal{
		assessment.SignalLoginDeclineSevere,
		assessment.SignalPaymentDelays,
		assessment.SignalNegativeSupportSentiment,
	})
	assert.Contains(t, concernPools["high_multiple"], multi)

	crit := InterventionFor(rng, assessment.RiskCritical, nil)
	pool := append(append([]string{}, interventionPools["critical_emergency"]...), interventionPools["critical_executive"]...)
	assert.Contains(t, pool, crit)
}

func TestWritePreprocessed(t *testing.T) {
	gen := NewGenerator(42, genNow)
	ds := gen.Generate(10, 5)
	analyses := gen.PreprocessedAnalyses(ds)

	dir := t.TempDir()
	require.NoError(t, WritePreprocessed(dir, analyses))

	data, err := os.ReadFile(filepath.Join(dir, "preprocessed_analysis.json"))
	require.NoError(t, err)

	var decoded []*assessment.RiskAssessment
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 10)
	assert.Equal(t, analyses[0].CustomerID, decoded[0].CustomerID)
}
