package assessment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCombineScores_NoMatchesPassesThrough(t *testing.T) {
	assert.Equal(t, 72.0, CombineScores(72, nil))
	assert.Equal(t, 0.0, CombineScores(0, []SimilarChurnedCustomer{}))
}

func TestCombineScores_WeightsSimilarity(t *testing.T) {
	matches := []SimilarChurnedCustomer{
		{SimilarityScore: 0.90, DaysUntilChurned: 45},  // boosted: 135
		{SimilarityScore: 0.80, DaysUntilChurned: 50},  // boosted: 120
		{SimilarityScore: 0.70, DaysUntilChurned: 120}, // plain: 70
	}

	// avg similarity component = (135 + 120 + 70) / 3 = 108.33...
	// combined = 70*0.6 + 108.33*0.4 = 85.33
	got := CombineScores(70, matches)
	assert.InDelta(t, 85.33, got, 0.01)
}

func TestCombineScores_UnknownChurnWindowGetsNoBoost(t *testing.T) {
	matches := []SimilarChurnedCustomer{
		{SimilarityScore: 0.8, DaysUntilChurned: 0},
	}
	// 50*0.6 + 80*0.4 = 62; a missing churn window must not read as "<60 days"
	assert.Equal(t, 62.0, CombineScores(50, matches))
}

func TestCombineScores_ClampsTo100(t *testing.T) {
	matches := []SimilarChurnedCustomer{
		{SimilarityScore: 1.0, DaysUntilChurned: 30},
	}
	assert.Equal(t, 100.0, CombineScores(100, matches))
}

func TestCombineScores_RoundsToTwoDecimals(t *testing.T) {
	matches := []SimilarChurnedCustomer{
		{SimilarityScore: 0.333, DaysUntilChurned: 90},
	}
	// 50*0.6 + 33.3*0.4 = 43.32
	assert.Equal(t, 43.32, CombineScores(50, matches))
}

func TestDeclineTrendFor(t *testing.T) {
	tests := []struct {
		name       string
		engagement Trend
		login      Trend
		want       DeclineTrend
	}{
		{"both declining", TrendDeclining, TrendDeclining, DeclineRapid},
		{"engagement only", TrendDeclining, TrendStable, DeclineModerate},
		{"login only", TrendStable, TrendDeclining, DeclineModerate},
		{"neither", TrendStable, TrendStable, DeclineSlow},
		{"increasing", TrendIncreasing, TrendIncreasing, DeclineSlow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &MetricsSnapshot{EngagementTrend: tt.engagement, LoginTrend: tt.login}
			assert.Equal(t, tt.want, DeclineTrendFor(snap))
		})
	}
}

func TestPredictChurnDate_DefaultHorizon(t *testing.T) {
	got := PredictChurnDate(testNow, nil, DeclineSlow)
	// 90 * 1.5 = 135 days out
	assert.Equal(t, testNow.AddDate(0, 0, 135), got)

	got = PredictChurnDate(testNow, nil, DeclineModerate)
	assert.Equal(t, testNow.AddDate(0, 0, 90), got)
}

func TestPredictChurnDate_MedianAdjustedByTrend(t *testing.T) {
	matches := []SimilarChurnedCustomer{
		{DaysUntilChurned: 40},
		{DaysUntilChurned: 60},
		{DaysUntilChurned: 150},
	}

	// median 60, rapid halves it
	assert.Equal(t, testNow.AddDate(0, 0, 30), PredictChurnDate(testNow, matches, DeclineRapid))
	// slow multiplies by 1.5
	assert.Equal(t, testNow.AddDate(0, 0, 90), PredictChurnDate(testNow, matches, DeclineSlow))
	assert.Equal(t, testNow.AddDate(0, 0, 60), PredictChurnDate(testNow, matches, DeclineModerate))
}

func TestPredictChurnDate_EvenCountUsesMiddleMean(t *testing.T) {
	matches := []SimilarChurnedCustomer{
		{DaysUntilChurned: 40},
		{DaysUntilChurned: 80},
	}
	assert.Equal(t, testNow.AddDate(0, 0, 60), PredictChurnDate(testNow, matches, DeclineModerate))
}

func TestPredictChurnDate_NeverBeforeNow(t *testing.T) {
	matches := []SimilarChurnedCustomer{{DaysUntilChurned: 1}}
	got := PredictChurnDate(testNow, matches, DeclineRapid)
	assert.False(t, got.Before(testNow))
}

func TestPredictChurnDate_IgnoresZeroDays(t *testing.T) {
	matches := []SimilarChurnedCustomer{
		{DaysUntilChurned: 0},
		{DaysUntilChurned: 0},
	}
	// All-zero matches fall back to the default horizon.
	assert.Equal(t, testNow.AddDate(0, 0, 90), PredictChurnDate(testNow, matches, DeclineModerate))
}

func TestInterventionPriority(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		value float64
		want  int
	}{
		{"low risk low value floors at 1", 5, 100, 1},
		{"high risk high value caps at 10", 95, 10000, 10},
		{"value boost capped at doubling", 50, 50000, 10},
		{"mid risk mid value", 60, 2500, 9},
		{"fractional result truncates", 59, 0, 5},
		{"zero score floors at 1", 0, 8000, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InterventionPriority(tt.score, tt.value)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 1)
			assert.LessOrEqual(t, got, 10)
		})
	}
}

func TestRevenueAtRisk(t *testing.T) {
	assert.Equal(t, 18000.0, RevenueAtRisk(1500))
	assert.Equal(t, 0.0, RevenueAtRisk(0))
}

func TestPredictChurnDate_UsesProvidedClock(t *testing.T) {
	other := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	got := PredictChurnDate(other, nil, DeclineModerate)
	assert.Equal(t, other.AddDate(0, 0, 90), got)
}
