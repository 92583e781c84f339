package assessment

import (
	"strings"
	"time"

	"github.com/decaylab/churnwatch/internal/customer"
)

const (
	// trendThreshold is the relative change beyond which a metric counts
	// as increasing or declining rather than stable.
	trendThreshold = 0.2

	// daysPerMonth is the average month length used for tenure.
	daysPerMonth = 30.44

	// neutralResponseTimeHours substitutes for a window with no email
	// response events.
	neutralResponseTimeHours = 24.0

	windowDays = 30
)

// Sentiment keyword sets scanned against support-ticket notes.
var (
	positiveTokens = []string{"thanks", "quick", "helpful", "resolved", "great", "excellent"}
	negativeTokens = []string{"frustrated", "disappointed", "urgent", "not working", "downtime", "escalation", "critical", "angry"}
)

// MetricsCalculator reduces a customer's event log into a MetricsSnapshot
// over two non-overlapping 30-day windows. Pure and deterministic: no I/O,
// no randomness, "now" is an explicit input.
type MetricsCalculator struct{}

// NewMetricsCalculator creates a metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// Compute aggregates events into the recent [now-30d, now] and previous
// [now-60d, now-30d) windows and classifies trends.
func (mc *MetricsCalculator) Compute(profile *customer.CustomerProfile, events []*customer.BehaviorEvent, now time.Time) *MetricsSnapshot {
	recentStart := now.AddDate(0, 0, -windowDays)
	prevStart := now.AddDate(0, 0, -2*windowDays)

	var recent, previous []*customer.BehaviorEvent
	for _, e := range events {
		switch {
		case !e.Timestamp.Before(recentStart) && !e.Timestamp.After(now):
			recent = append(recent, e)
		case !e.Timestamp.Before(prevStart) && e.Timestamp.Before(recentStart):
			previous = append(previous, e)
		}
	}

	snap := &MetricsSnapshot{
		LoginsLast30:       countKind(recent, customer.EventLogin),
		LoginsPrev30:       countKind(previous, customer.EventLogin),
		TicketCount:        countKind(recent, customer.EventSupportTicket),
		TicketSentiment:    classifySentiment(recent),
		FeatureUsageLast30: weeklyUsage(recent),
		FeatureUsagePrev30: weeklyUsage(previous),
		ResponseTimeLast30: meanResponseTime(recent),
		ResponseTimePrev30: meanResponseTime(previous),
		PaymentDelayDays:   maxDelay(recent),
		MonthsAsCustomer:   monthsSince(profile.SignupDate, now),
	}

	snap.LoginTrend = classifyTrend(float64(snap.LoginsLast30), float64(snap.LoginsPrev30), trendThreshold)
	snap.EngagementTrend = engagementTrend(snap)

	return snap
}

// classifyTrend is the shared trend rule: both zero is stable; growth from
// zero is increasing; otherwise the relative change decides against the
// threshold.
func classifyTrend(current, previous, threshold float64) Trend {
	if current == 0 && previous == 0 {
		return TrendStable
	}
	if previous == 0 {
		return TrendIncreasing
	}
	change := (current - previous) / previous
	switch {
	case change > threshold:
		return TrendIncreasing
	case change < -threshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// engagementTrend combines the login and usage trends with response-time
// growth into one overall direction.
func engagementTrend(snap *MetricsSnapshot) Trend {
	usageTrend := classifyTrend(snap.FeatureUsageLast30, snap.FeatureUsagePrev30, trendThreshold)

	responseGrew := snap.ResponseTimePrev30 > 0 &&
		snap.ResponseTimeLast30/snap.ResponseTimePrev30 > 1.2

	if snap.LoginTrend == TrendDeclining && (usageTrend == TrendDeclining || responseGrew) {
		return TrendDeclining
	}
	if snap.LoginTrend == TrendIncreasing && usageTrend == TrendIncreasing {
		return TrendIncreasing
	}
	return TrendStable
}

func countKind(events []*customer.BehaviorEvent, kind customer.EventKind) int {
	n := 0
	for _, e := range events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// weeklyUsage normalizes a 30-day window's usage sum to a per-week figure
func weeklyUsage(events []*customer.BehaviorEvent) float64 {
	sum := 0.0
	for _, e := range events {
		if e.Kind == customer.EventFeatureUsage {
			sum += e.MetricValue
		}
	}
	return sum / 4.0
}

func meanResponseTime(events []*customer.BehaviorEvent) float64 {
	sum, n := 0.0, 0
	for _, e := range events {
		if e.Kind == customer.EventEmailResponseTime {
			sum += e.MetricValue
			n++
		}
	}
	if n == 0 {
		return neutralResponseTimeHours
	}
	return sum / float64(n)
}

func maxDelay(events []*customer.BehaviorEvent) float64 {
	max := 0.0
	for _, e := range events {
		if e.Kind == customer.EventPaymentDelay && e.MetricValue > max {
			max = e.MetricValue
		}
	}
	return max
}

// classifySentiment scans recent ticket notes against the keyword sets.
// A hit is a token appearing anywhere in the combined notes; negative wins
// only when negative hits strictly exceed positive ones.
func classifySentiment(events []*customer.BehaviorEvent) Sentiment {
	var notes []string
	for _, e := range events {
		if e.Kind == customer.EventSupportTicket && e.Note != "" {
			notes = append(notes, e.Note)
		}
	}
	text := strings.ToLower(strings.Join(notes, " "))

	pos, neg := 0, 0
	for _, token := range positiveTokens {
		if strings.Contains(text, token) {
			pos++
		}
	}
	for _, token := range negativeTokens {
		if strings.Contains(text, token) {
			neg++
		}
	}
	switch {
	case neg > pos && neg > 0:
		return SentimentNegative
	case pos > neg && pos > 0:
		return SentimentPositive
	default:
		return SentimentNeutral
	}
}

// monthsSince computes tenure in average-length months. A zero signup date
// (unparseable in the source data) contributes zero elapsed time.
func monthsSince(signup, now time.Time) float64 {
	if signup.IsZero() || signup.After(now) {
		return 0
	}
	return now.Sub(signup).Hours() / 24 / daysPerMonth
}
