package customer

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store, used when no
// DATABASE_URL is configured and in tests.
type MemoryStore struct {
	mu        sync.RWMutex
	customers map[string]*CustomerProfile
	events    map[string][]*BehaviorEvent // customerID -> ordered events
	churned   map[string]*ChurnedCustomer
}

// NewMemoryStore creates a new in-memory customer store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		customers: make(map[string]*CustomerProfile),
		events:    make(map[string][]*BehaviorEvent),
		churned:   make(map[string]*ChurnedCustomer),
	}
}

// Compile-time interface check
var _ Store = (*MemoryStore)(nil)

// UpsertCustomer stores or replaces a customer profile
func (m *MemoryStore) UpsertCustomer(ctx context.Context, c *CustomerProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copy := *c
	m.customers[c.ID] = &copy
	return nil
}

// GetCustomer retrieves a customer by ID
func (m *MemoryStore) GetCustomer(ctx context.Context, id string) (*CustomerProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.customers[id]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	copy := *c
	return &copy, nil
}

// ListCustomers returns customers with filters, ordered by ID
func (m *MemoryStore) ListCustomers(ctx context.Context, opts ListOptions) ([]*CustomerProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var customers []*CustomerProfile
	for _, c := range m.customers {
		if opts.Tier != "" && c.Tier != opts.Tier {
			continue
		}
		copy := *c
		customers = append(customers, &copy)
	}

	sort.Slice(customers, func(i, j int) bool {
		return customers[i].ID < customers[j].ID
	})

	if opts.Limit > 0 && len(customers) > opts.Limit {
		customers = customers[:opts.Limit]
	}

	return customers, nil
}

// AddEvents appends behavior events to the log
func (m *MemoryStore) AddEvents(ctx context.Context, events []*BehaviorEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range events {
		copy := *e
		m.events[e.CustomerID] = append(m.events[e.CustomerID], &copy)
	}

	// Keep per-customer logs ordered by timestamp
	seen := make(map[string]bool)
	for _, e := range events {
		if seen[e.CustomerID] {
			continue
		}
		seen[e.CustomerID] = true
		log := m.events[e.CustomerID]
		sort.Slice(log, func(i, j int) bool {
			return log[i].Timestamp.Before(log[j].Timestamp)
		})
	}

	return nil
}

// ListEvents returns a customer's events with timestamp >= since
func (m *MemoryStore) ListEvents(ctx context.Context, customerID string, since time.Time) ([]*BehaviorEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	log, ok := m.events[customerID]
	if !ok || len(log) == 0 {
		return nil, ErrNoBehaviorData
	}

	var events []*BehaviorEvent
	for _, e := range log {
		if e.Timestamp.Before(since) {
			continue
		}
		copy := *e
		events = append(events, &copy)
	}

	return events, nil
}

// UpsertChurned stores or replaces a churned-customer record
func (m *MemoryStore) UpsertChurned(ctx context.Context, c *ChurnedCustomer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copy := *c
	m.churned[c.ID] = &copy
	return nil
}

// ListChurned returns all churned-customer records, ordered by ID
func (m *MemoryStore) ListChurned(ctx context.Context) ([]*ChurnedCustomer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var churned []*ChurnedCustomer
	for _, c := range m.churned {
		copy := *c
		churned = append(churned, &copy)
	}

	sort.Slice(churned, func(i, j int) bool {
		return churned[i].ID < churned[j].ID
	})

	return churned, nil
}
