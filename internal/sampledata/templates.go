package sampledata

import (
	"math/rand"
	"strings"

	"github.com/decaylab/churnwatch/internal/assessment"
)

// Concern and intervention template pools, keyed by scenario. The offline
// analysis generator picks from these instead of calling the scoring
// service, so demo datasets carry readable messages without API traffic.

var concernPools = map[string][]string{
	"low": {
		"Customer is healthy and engaged with no significant concerns",
		"All metrics are stable with positive engagement trends",
		"Strong usage patterns indicate high satisfaction",
		"Consistent activity levels show continued product value",
	},
	"medium_feature": {
		"Feature usage has decreased noticeably, potentially indicating reduced value perception",
		"Declining feature adoption suggests unmet needs or workflow changes",
		"Customer is using fewer platform capabilities compared to previous months",
	},
	"medium_response": {
		"Email response time has increased significantly, indicating potential disengagement",
		"Slower responses may signal reduced priority or satisfaction issues",
		"Response time trending upward - may indicate competing priorities",
	},
	"medium_login": {
		"Login frequency has decreased moderately over the past 60 days",
		"Platform access is declining which may indicate reduced dependency",
		"Reduced login activity suggests possible workflow changes",
	},
	"high_login": {
		"Significant drop in login frequency indicates serious disengagement",
		"Sharp decrease in user activity over the past 30-60 days",
		"Login metrics show concerning downward trend requiring immediate attention",
	},
	"high_multiple": {
		"Multiple decay signals suggest compounding dissatisfaction issues",
		"Combination of declining metrics indicates high churn risk",
		"Customer showing multiple warning signs across different metrics",
	},
	"high_payment": {
		"Payment delays combined with usage decline indicate financial or value concerns",
		"Late payments suggest budget pressures or questioning of ROI",
	},
	"critical": {
		"Severe disengagement across all metrics requires immediate intervention",
		"Customer showing strong indicators of imminent churn within 30 days",
		"Multiple critical signals suggest urgent retention action needed",
		"Extreme decline in all engagement metrics - emergency escalation required",
	},
}

var interventionPools = map[string][]string{
	"low": {
		"Continue regular quarterly business reviews and success metrics monitoring",
		"Share relevant case studies and new feature announcements proactively",
		"Maintain current cadence of check-ins and value demonstrations",
	},
	"medium_feature": {
		"Schedule product training session to maximize feature utilization",
		"Offer targeted training on underutilized premium features",
		"Share use cases from similar customers achieving better outcomes",
	},
	"medium_engagement": {
		"Schedule proactive check-in within 2 weeks to understand changing needs",
		"Conduct product feedback session to identify gaps or friction points",
		"Book 30-minute success review to realign on goals and value metrics",
	},
	"high_immediate": {
		"Immediate CSM outreach (within 48 hours) to identify pain points",
		"Executive sponsor engagement to rebuild relationship at leadership level",
		"Fast-track any pending support issues or feature requests",
	},
	"high_retention": {
		"Offer limited-time discount or additional services to demonstrate commitment",
		"Create custom success plan addressing specific concerns and goals",
		"Provide dedicated onboarding specialist for 30-day re-engagement program",
	},
	"critical_emergency": {
		"URGENT: Executive escalation to C-level within 24 hours",
		"Emergency response: Fast-track all outstanding issues and requests",
		"Critical: Offer significant account credit and dedicated support team",
	},
	"critical_executive": {
		"Schedule emergency executive meeting within 48 hours",
		"Deploy senior leadership for relationship recovery effort",
		"Offer executive sponsor program with monthly C-level touchpoints",
	},
}

// ConcernFor picks a concern message matching the risk level and the most
// prominent signal family. Selection uses the generator's seeded source so
// repeated runs produce identical output.
func ConcernFor(rng *rand.Rand, level assessment.RiskLevel, signals []assessment.DecaySignal) string {
	switch level {
	case assessment.RiskLow:
		return pick(rng, concernPools["low"])
	case assessment.RiskMedium:
		switch {
		case anySignal(signals, "feature"):
			return pick(rng, concernPools["medium_feature"])
		case anySignal(signals, "response"):
			return pick(rng, concernPools["medium_response"])
		case anySignal(signals, "login"):
			return pick(rng, concernPools["medium_login"])
		default:
			return pick(rng, concernPools["medium_feature"])
		}
	case assessment.RiskHigh:
		switch {
		case len(signals) >= 3:
			return pick(rng, concernPools["high_multiple"])
		case anySignal(signals, "login"):
			return pick(rng, concernPools["high_login"])
		case anySignal(signals, "payment"):
			return pick(rng, concernPools["high_payment"])
		default:
			return pick(rng, concernPools["high_multiple"])
		}
	case assessment.RiskCritical:
		return pick(rng, concernPools["critical"])
	}
	return "Customer requires attention"
}

// InterventionFor picks a recommended action for the risk level
func InterventionFor(rng *rand.Rand, level assessment.RiskLevel, signals []assessment.DecaySignal) string {
	switch level {
	case assessment.RiskLow:
		return pick(rng, interventionPools["low"])
	case assessment.RiskMedium:
		if anySignal(signals, "feature") {
			return pick(rng, interventionPools["medium_feature"])
		}
		return pick(rng, interventionPools["medium_engagement"])
	case assessment.RiskHigh:
		if rng.Float64() < 0.5 {
			return pick(rng, interventionPools["high_immediate"])
		}
		return pick(rng, interventionPools["high_retention"])
	case assessment.RiskCritical:
		if rng.Float64() < 0.5 {
			return pick(rng, interventionPools["critical_emergency"])
		}
		return pick(rng, interventionPools["critical_executive"])
	}
	return "Schedule check-in to assess customer health"
}

func pick(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}

func anySignal(signals []assessment.DecaySignal, substr string) bool {
	for _, s := range signals {
		if strings.Contains(string(s), substr) {
			return true
		}
	}
	return false
}
