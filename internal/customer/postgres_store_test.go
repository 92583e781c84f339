package customer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decaylab/churnwatch/internal/testutil"
)

func TestPostgresStore_CustomerRoundTrip(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	signup := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.UpsertCustomer(ctx, &CustomerProfile{
		ID:           "CUST001",
		Name:         "Acme Logistics",
		Email:        "ops@acme.example",
		Tier:         TierPro,
		MonthlyValue: 1500,
		SignupDate:   signup,
	}))

	got, err := store.GetCustomer(ctx, "CUST001")
	require.NoError(t, err)
	assert.Equal(t, "Acme Logistics", got.Name)
	assert.Equal(t, TierPro, got.Tier)
	assert.InDelta(t, 1500, got.MonthlyValue, 0.001)
	assert.True(t, got.SignupDate.Equal(signup))

	// Upsert overwrites in place.
	require.NoError(t, store.UpsertCustomer(ctx, &CustomerProfile{
		ID:           "CUST001",
		Name:         "Acme Logistics",
		Email:        "ops@acme.example",
		Tier:         TierEnterprise,
		MonthlyValue: 4200,
		SignupDate:   signup,
	}))
	got, err = store.GetCustomer(ctx, "CUST001")
	require.NoError(t, err)
	assert.Equal(t, TierEnterprise, got.Tier)

	_, err = store.GetCustomer(ctx, "CUST999")
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestPostgresStore_ListCustomersFilters(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	seed := []*CustomerProfile{
		{ID: "CUST001", Name: "One", Email: "one@example.com", Tier: TierBasic, MonthlyValue: 200, SignupDate: time.Now().UTC()},
		{ID: "CUST002", Name: "Two", Email: "two@example.com", Tier: TierPro, MonthlyValue: 900, SignupDate: time.Now().UTC()},
		{ID: "CUST003", Name: "Three", Email: "three@example.com", Tier: TierPro, MonthlyValue: 1100, SignupDate: time.Now().UTC()},
	}
	for _, c := range seed {
		require.NoError(t, store.UpsertCustomer(ctx, c))
	}

	all, err := store.ListCustomers(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pro, err := store.ListCustomers(ctx, ListOptions{Tier: TierPro})
	require.NoError(t, err)
	assert.Len(t, pro, 2)

	limited, err := store.ListCustomers(ctx, ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestPostgresStore_Events(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	require.NoError(t, store.UpsertCustomer(ctx, &CustomerProfile{
		ID: "CUST010", Name: "Evented", Email: "e@example.com",
		Tier: TierBasic, MonthlyValue: 150, SignupDate: time.Now().UTC(),
	}))

	now := time.Now().UTC().Truncate(time.Microsecond)
	events := []*BehaviorEvent{
		{CustomerID: "CUST010", Timestamp: now.AddDate(0, 0, -70), Kind: EventLogin, MetricValue: 1},
		{CustomerID: "CUST010", Timestamp: now.AddDate(0, 0, -10), Kind: EventLogin, MetricValue: 1},
		{CustomerID: "CUST010", Timestamp: now.AddDate(0, 0, -5), Kind: EventSupportTicket, MetricValue: 1, Note: "billing question"},
	}
	require.NoError(t, store.AddEvents(ctx, events))

	recent, err := store.ListEvents(ctx, "CUST010", now.AddDate(0, 0, -30))
	require.NoError(t, err)
	require.Len(t, recent, 2)
	// Oldest first.
	assert.Equal(t, EventLogin, recent[0].Kind)
	assert.Equal(t, EventSupportTicket, recent[1].Kind)
	assert.Equal(t, "billing question", recent[1].Note)

	all, err := store.ListEvents(ctx, "CUST010", time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPostgresStore_Churned(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	churned := &ChurnedCustomer{
		ID:               "CHURN001",
		Name:             "Vanished Ventures",
		Tier:             TierPro,
		MonthlyValue:     800,
		ChurnDate:        time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC),
		ChurnReason:      ReasonPoorSupport,
		DecayPattern:     PatternRapid,
		DaysUntilChurned: 45,
	}
	require.NoError(t, store.UpsertChurned(ctx, churned))

	list, err := store.ListChurned(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, PatternRapid, list[0].DecayPattern)
	assert.Equal(t, 45, list[0].DaysUntilChurned)
}
