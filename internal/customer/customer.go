// Package customer holds the customer data model: profiles, the append-only
// behavior event log, and historical churned-customer records used as
// similarity reference data.
package customer

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrNoBehaviorData   = errors.New("no behavior data for customer")
)

// Tier is the subscription tier of a customer
type Tier string

const (
	TierBasic      Tier = "basic"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// EventKind categorizes behavior events
type EventKind string

const (
	EventLogin             EventKind = "login"
	EventFeatureUsage      EventKind = "feature_usage"
	EventSupportTicket     EventKind = "support_ticket"
	EventEmailResponseTime EventKind = "email_response_time"
	EventPaymentDelay      EventKind = "payment_delay"
)

// ChurnReason categorizes why a historical customer left
type ChurnReason string

const (
	ReasonPoorSupport      ChurnReason = "poor_support"
	ReasonPricing          ChurnReason = "pricing"
	ReasonMissingFeatures  ChurnReason = "missing_features"
	ReasonCompetitor       ChurnReason = "competitor"
	ReasonBusinessShutdown ChurnReason = "business_shutdown"
)

// DecayPattern describes how quickly a churned customer disengaged
type DecayPattern string

const (
	PatternRapid   DecayPattern = "rapid"
	PatternGradual DecayPattern = "gradual"
)

// CustomerProfile is an active subscription customer.
// Immutable once loaded for an assessment run.
type CustomerProfile struct {
	ID           string    `json:"customer_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Tier         Tier      `json:"tier"`
	MonthlyValue float64   `json:"monthly_value"`
	SignupDate   time.Time `json:"signup_date"`
}

// BehaviorEvent is one entry in the append-only per-customer event log.
// MetricValue semantics depend on Kind: logins carry 1, feature_usage carries
// a usage count, email_response_time carries hours, payment_delay carries
// days late, support_ticket carries 1 with the ticket text in Note.
type BehaviorEvent struct {
	CustomerID  string    `json:"customer_id"`
	Timestamp   time.Time `json:"timestamp"`
	Kind        EventKind `json:"event_type"`
	MetricValue float64   `json:"metric_value"`
	Note        string    `json:"notes,omitempty"`
}

// ChurnedCustomer is a historical record of a customer who left.
// Read-only reference data; seeds the similarity index.
type ChurnedCustomer struct {
	ID               string       `json:"customer_id"`
	Name             string       `json:"name"`
	Tier             Tier         `json:"tier"`
	MonthlyValue     float64      `json:"monthly_value"`
	ChurnDate        time.Time    `json:"churn_date"`
	ChurnReason      ChurnReason  `json:"churn_reason"`
	DecayPattern     DecayPattern `json:"decay_pattern"`
	DaysUntilChurned int          `json:"days_until_churned"`
}

// ListOptions filters customer listings
type ListOptions struct {
	Tier  Tier
	Limit int
}

// Store persists customers, behavior events, and churned-customer history
type Store interface {
	UpsertCustomer(ctx context.Context, c *CustomerProfile) error
	GetCustomer(ctx context.Context, id string) (*CustomerProfile, error)
	ListCustomers(ctx context.Context, opts ListOptions) ([]*CustomerProfile, error)

	// AddEvents appends to the behavior log. Events are never mutated.
	AddEvents(ctx context.Context, events []*BehaviorEvent) error
	// ListEvents returns a customer's events with timestamp >= since,
	// ordered by timestamp ascending. ErrNoBehaviorData if none exist at all.
	ListEvents(ctx context.Context, customerID string, since time.Time) ([]*BehaviorEvent, error)

	UpsertChurned(ctx context.Context, c *ChurnedCustomer) error
	ListChurned(ctx context.Context) ([]*ChurnedCustomer, error)
}

// Service wraps the store with import and query logic
type Service struct {
	store Store
}

// NewService creates a customer service
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Store returns the underlying store
func (s *Service) Store() Store {
	return s.store
}

// Get returns a single customer profile
func (s *Service) Get(ctx context.Context, id string) (*CustomerProfile, error) {
	return s.store.GetCustomer(ctx, id)
}

// List returns customers with optional tier filter
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*CustomerProfile, error) {
	return s.store.ListCustomers(ctx, opts)
}

// History returns a customer's behavior events inside the assessment window.
// The engine computes two 30-day windows, so callers pass now-60d as since.
func (s *Service) History(ctx context.Context, customerID string, since time.Time) ([]*BehaviorEvent, error) {
	if _, err := s.store.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	return s.store.ListEvents(ctx, customerID, since)
}
