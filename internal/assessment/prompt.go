package assessment

import (
	"fmt"
	"strings"

	"github.com/decaylab/churnwatch/internal/customer"
)

// BuildPrompt renders the profile and metrics into the scoring instruction.
// Pure function: same inputs always produce the same string.
func BuildPrompt(profile *customer.CustomerProfile, snap *MetricsSnapshot) string {
	var b strings.Builder

	b.WriteString("You are a customer success analyst estimating churn risk for a subscription business.\n\n")

	fmt.Fprintf(&b, "Customer profile:\n")
	fmt.Fprintf(&b, "- Name: %s\n", profile.Name)
	fmt.Fprintf(&b, "- Subscription tier: %s\n", profile.Tier)
	fmt.Fprintf(&b, "- Monthly contract value: $%.2f\n", profile.MonthlyValue)
	fmt.Fprintf(&b, "- Months as customer: %.1f\n\n", snap.MonthsAsCustomer)

	fmt.Fprintf(&b, "Behavior over the last 30 days vs the prior 30 days:\n")
	fmt.Fprintf(&b, "- Logins: %d (was %d), trend %s\n", snap.LoginsLast30, snap.LoginsPrev30, snap.LoginTrend)
	fmt.Fprintf(&b, "- Weekly feature usage: %.1f (was %.1f)\n", snap.FeatureUsageLast30, snap.FeatureUsagePrev30)
	fmt.Fprintf(&b, "- Average email response time: %.1f hours (was %.1f)\n", snap.ResponseTimeLast30, snap.ResponseTimePrev30)
	fmt.Fprintf(&b, "- Maximum payment delay: %.0f days\n", snap.PaymentDelayDays)
	fmt.Fprintf(&b, "- Support tickets: %d, sentiment %s\n", snap.TicketCount, snap.TicketSentiment)
	fmt.Fprintf(&b, "- Overall engagement trend: %s\n\n", snap.EngagementTrend)

	b.WriteString("Known churn warning patterns:\n")
	b.WriteString("- Login frequency dropping more than 20% month over month\n")
	b.WriteString("- Feature usage falling below 75% of its prior level\n")
	b.WriteString("- Email response times doubling\n")
	b.WriteString("- Payment delays, especially 10+ days\n")
	b.WriteString("- Five or more support tickets in a month, or negative ticket sentiment\n\n")

	b.WriteString("Respond with a single JSON object and nothing else - no markdown, no explanation. ")
	b.WriteString("It must contain exactly these fields:\n")
	b.WriteString(`{"churn_risk_score": <integer 0-100>, "decay_signals": [<signal strings>], ` +
		`"primary_concern": "<one sentence>", "recommended_intervention": "<one action>", ` +
		`"urgency": "<low|medium|high|critical>"}`)
	b.WriteString("\n")

	return b.String()
}
