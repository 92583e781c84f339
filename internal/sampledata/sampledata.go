// Package sampledata generates a realistic demo dataset: a customer base
// split into healthy, declining, and critical cohorts, 90 days of behavior
// events, and a set of historical churned customers. All randomness flows
// through an injected seed so runs are reproducible.
package sampledata

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/decaylab/churnwatch/internal/customer"
)

const (
	// Cohort boundaries by customer index, out of 100.
	healthyShare   = 0.40
	decliningShare = 0.40

	eventHistoryDays = 90
	periodDays       = 30
)

// Generator produces deterministic sample datasets for a given seed
type Generator struct {
	rng *rand.Rand
	now time.Time
}

// NewGenerator creates a generator. The same seed and reference time
// always produce the same dataset.
func NewGenerator(seed int64, now time.Time) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed)), now: now}
}

// Cohort classifies a generated customer's behavior trajectory
type Cohort int

const (
	CohortHealthy Cohort = iota
	CohortDeclining
	CohortCritical
)

// CohortFor returns the cohort of the idx-th customer (zero-based) in a
// population of total.
func CohortFor(idx, total int) Cohort {
	switch {
	case idx < int(float64(total)*healthyShare):
		return CohortHealthy
	case idx < int(float64(total)*(healthyShare+decliningShare)):
		return CohortDeclining
	default:
		return CohortCritical
	}
}

var (
	companyAdjectives = []string{
		"TechFlow", "DataSync", "CloudBridge", "PixelForge", "ByteWise",
		"NexGen", "StreamLine", "CodeCraft", "QuantumEdge", "Skyline",
		"BluePeak", "ApexLogic", "NovaCore", "BrightWave", "EchoGrid",
		"VectorWorks", "FusionByte", "CobaltCloud", "AuroraSoft", "DataVault",
		"CloudScale", "ByteStream", "SkyBridge", "CodeWave", "PixelStream",
	}
	companyNouns = []string{
		"Solutions", "Systems", "Analytics", "Software", "Labs",
		"Networks", "Dynamics", "Technologies", "Partners", "Digital",
	}

	churnedAdjectives = []string{
		"Silverline", "Vertex", "Orbit", "Cinder", "Helix",
		"Nimbus", "Polar", "Radial", "Summit", "NorthStar",
		"Photon", "Crux", "Astra", "Signal", "Cortex",
		"Monarch", "Ion", "Spectrum", "Stratus", "Vantage",
	}
	churnedNouns = []string{
		"Industries", "Enterprises", "Holdings", "Ventures", "Collective",
		"Works", "Group", "Dynamics", "Networks", "Media",
	}

	healthyTicketNotes = []string{
		"Quick question about API",
		"Minor UI clarification",
		"Feature request, thanks for the great product",
	}
	decliningTicketNotes = []string{
		"Billing concern",
		"Integration issue",
		"Confusion about permissions",
		"Need help with setup",
	}
	criticalTicketNotes = []string{
		"Very frustrated with downtime",
		"Urgent: System not working",
		"Disappointed with support response time",
		"Escalation requested",
	}
)

// Customers generates n customer profiles with unique company names,
// tiered pricing, and signup dates spread over the preceding two years.
func (g *Generator) Customers(n int) []*customer.CustomerProfile {
	profiles := make([]*customer.CustomerProfile, 0, n)
	for i := 0; i < n; i++ {
		adj := companyAdjectives[i%len(companyAdjectives)]
		noun := companyNouns[(i/len(companyAdjectives))%len(companyNouns)]
		name := adj + " " + noun

		tier := g.pickTier(0.30, 0.50)
		signup := g.now.AddDate(0, 0, -g.rng.Intn(700)-90)

		profiles = append(profiles, &customer.CustomerProfile{
			ID:           fmt.Sprintf("CUST%03d", i+1),
			Name:         name,
			Email:        "contact@" + strings.ToLower(strings.ReplaceAll(name, " ", "")) + ".com",
			Tier:         tier,
			MonthlyValue: g.monthlyValueFor(tier),
			SignupDate:   signup,
		})
	}
	return profiles
}

func (g *Generator) pickTier(enterpriseP, proP float64) customer.Tier {
	r := g.rng.Float64()
	switch {
	case r < enterpriseP:
		return customer.TierEnterprise
	case r < enterpriseP+proP:
		return customer.TierPro
	default:
		return customer.TierBasic
	}
}

func (g *Generator) monthlyValueFor(tier customer.Tier) float64 {
	switch tier {
	case customer.TierEnterprise:
		return float64(3000 + g.rng.Intn(5001))
	case customer.TierPro:
		return float64(800 + g.rng.Intn(1201))
	default:
		return float64(100 + g.rng.Intn(401))
	}
}

// BehaviorEvents generates 90 days of events for each profile. The
// cohort decides the trajectory: healthy customers stay engaged,
// declining customers deteriorate over three 30-day periods, and
// critical customers collapse.
func (g *Generator) BehaviorEvents(profiles []*customer.CustomerProfile) []*customer.BehaviorEvent {
	start := g.now.AddDate(0, 0, -(eventHistoryDays - 1))
	var events []*customer.BehaviorEvent

	for idx, p := range profiles {
		cohort := CohortFor(idx, len(profiles))

		events = append(events, g.loginEvents(p.ID, cohort, start)...)
		events = append(events, g.ticketEvents(p.ID, cohort, start)...)
		events = append(events, g.responseTimeEvents(p.ID, cohort, start)...)
		events = append(events, g.usageEvents(p.ID, cohort, start)...)
		events = append(events, g.paymentEvents(p.ID, cohort, start)...)
	}
	return events
}

func (g *Generator) loginEvents(id string, cohort Cohort, start time.Time) []*customer.BehaviorEvent {
	// Daily login probability per 30-day period.
	var probs [3]float64
	switch cohort {
	case CohortHealthy:
		probs = [3]float64{0.75, 0.75, 0.70}
	case CohortDeclining:
		probs = [3]float64{0.65, 0.45, 0.25}
	default:
		probs = [3]float64{0.40, 0.15, 0.07}
	}

	var events []*customer.BehaviorEvent
	for i := 0; i < eventHistoryDays; i++ {
		period := i / periodDays
		if period > 2 {
			period = 2
		}
		if g.rng.Float64() < probs[period] {
			events = append(events, &customer.BehaviorEvent{
				CustomerID:  id,
				Timestamp:   start.AddDate(0, 0, i),
				Kind:        customer.EventLogin,
				MetricValue: 1,
			})
		}
	}
	return events
}

func (g *Generator) ticketEvents(id string, cohort Cohort, start time.Time) []*customer.BehaviorEvent {
	var counts [3]int
	var notes []string
	switch cohort {
	case CohortHealthy:
		counts = [3]int{g.rng.Intn(3), g.rng.Intn(3), g.rng.Intn(3)}
		notes = healthyTicketNotes
	case CohortDeclining:
		counts = [3]int{3 + g.rng.Intn(3), 3 + g.rng.Intn(3), 3 + g.rng.Intn(3)}
		notes = decliningTicketNotes
	default:
		counts = [3]int{5 + g.rng.Intn(4), 5 + g.rng.Intn(4), 5 + g.rng.Intn(4)}
		notes = criticalTicketNotes
	}

	var events []*customer.BehaviorEvent
	for period, count := range counts {
		for j := 0; j < count; j++ {
			day := period*periodDays + g.rng.Intn(periodDays)
			events = append(events, &customer.BehaviorEvent{
				CustomerID:  id,
				Timestamp:   start.AddDate(0, 0, day),
				Kind:        customer.EventSupportTicket,
				MetricValue: 1,
				Note:        notes[g.rng.Intn(len(notes))],
			})
		}
	}
	return events
}

func (g *Generator) responseTimeEvents(id string, cohort Cohort, start time.Time) []*customer.BehaviorEvent {
	hours := func(period int) float64 {
		switch cohort {
		case CohortHealthy:
			return float64(2 + g.rng.Intn(7))
		case CohortDeclining:
			switch period {
			case 0:
				return float64(4 + g.rng.Intn(5))
			case 1:
				return float64(12 + g.rng.Intn(13))
			default:
				return float64(24 + g.rng.Intn(25))
			}
		default:
			switch period {
			case 0:
				return float64(8 + g.rng.Intn(5))
			case 1:
				return float64(24 + g.rng.Intn(25))
			default:
				return float64(48 + g.rng.Intn(49))
			}
		}
	}

	return g.weeklyEvents(id, customer.EventEmailResponseTime, start, hours)
}

func (g *Generator) usageEvents(id string, cohort Cohort, start time.Time) []*customer.BehaviorEvent {
	features := func(period int) float64 {
		switch cohort {
		case CohortHealthy:
			return float64(8 + g.rng.Intn(8))
		case CohortDeclining:
			switch period {
			case 0:
				return float64(8 + g.rng.Intn(5))
			case 1:
				return float64(5 + g.rng.Intn(4))
			default:
				return float64(3 + g.rng.Intn(3))
			}
		default:
			switch period {
			case 0:
				return float64(6 + g.rng.Intn(5))
			case 1:
				return float64(2 + g.rng.Intn(3))
			default:
				return float64(1 + g.rng.Intn(2))
			}
		}
	}

	return g.weeklyEvents(id, customer.EventFeatureUsage, start, features)
}

// weeklyEvents emits four events per 30-day period with period-dependent values
func (g *Generator) weeklyEvents(id string, kind customer.EventKind, start time.Time, value func(period int) float64) []*customer.BehaviorEvent {
	var events []*customer.BehaviorEvent
	for period := 0; period < 3; period++ {
		for week := 0; week < 4; week++ {
			day := period*periodDays + week*7 + g.rng.Intn(7)
			events = append(events, &customer.BehaviorEvent{
				CustomerID:  id,
				Timestamp:   start.AddDate(0, 0, day),
				Kind:        kind,
				MetricValue: value(period),
			})
		}
	}
	return events
}

func (g *Generator) paymentEvents(id string, cohort Cohort, start time.Time) []*customer.BehaviorEvent {
	var delays [3]float64
	switch cohort {
	case CohortHealthy:
		delays = [3]float64{0, 0, 0}
	case CohortDeclining:
		delays = [3]float64{0, g.maybeDelay(2, 7), g.maybeDelay(2, 7)}
	default:
		delays = [3]float64{0, float64(10 + g.rng.Intn(21)), float64(10 + g.rng.Intn(21))}
	}

	var events []*customer.BehaviorEvent
	for period, delay := range delays {
		day := period*periodDays + 20 + g.rng.Intn(10)
		note := "On time"
		if delay > 0 {
			note = fmt.Sprintf("Late by %.0f days", delay)
		}
		events = append(events, &customer.BehaviorEvent{
			CustomerID:  id,
			Timestamp:   start.AddDate(0, 0, day),
			Kind:        customer.EventPaymentDelay,
			MetricValue: delay,
			Note:        note,
		})
	}
	return events
}

func (g *Generator) maybeDelay(min, max int) float64 {
	if g.rng.Float64() < 0.5 {
		return 0
	}
	return float64(min + g.rng.Intn(max-min+1))
}

var churnReasons = []customer.ChurnReason{
	customer.ReasonPoorSupport,
	customer.ReasonPricing,
	customer.ReasonMissingFeatures,
	customer.ReasonCompetitor,
	customer.ReasonBusinessShutdown,
}

// ChurnedCustomers generates n historical churned customers with churn
// reasons and decay patterns for similarity seeding.
func (g *Generator) ChurnedCustomers(n int) []*customer.ChurnedCustomer {
	churned := make([]*customer.ChurnedCustomer, 0, n)
	for i := 0; i < n; i++ {
		name := churnedAdjectives[i%len(churnedAdjectives)] + " " + churnedNouns[i%len(churnedNouns)]

		tier := g.pickTier(0.25, 0.50)
		daysUntil := 30 + g.rng.Intn(151)
		signup := g.now.AddDate(0, 0, -g.rng.Intn(400)-daysUntil-30)

		pattern := customer.PatternGradual
		if daysUntil < 90 {
			pattern = customer.PatternRapid
		}

		churned = append(churned, &customer.ChurnedCustomer{
			ID:               fmt.Sprintf("CHURN%03d", i+1),
			Name:             name,
			Tier:             tier,
			MonthlyValue:     g.monthlyValueFor(tier),
			ChurnDate:        signup.AddDate(0, 0, daysUntil),
			ChurnReason:      churnReasons[g.rng.Intn(len(churnReasons))],
			DecayPattern:     pattern,
			DaysUntilChurned: daysUntil,
		})
	}
	return churned
}
