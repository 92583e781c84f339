package customer

import (
	"context"
	"database/sql"
	"strconv"
	"time"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed customer store
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Compile-time interface check
var _ Store = (*PostgresStore)(nil)

// Migrate creates the customer tables
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS customers (
			id              VARCHAR(36) PRIMARY KEY,
			name            VARCHAR(255) NOT NULL,
			email           VARCHAR(255),
			tier            VARCHAR(20) NOT NULL,
			monthly_value   DECIMAL(12,2) NOT NULL DEFAULT 0,
			signup_date     TIMESTAMPTZ
		);

		CREATE TABLE IF NOT EXISTS behavior_events (
			id              BIGSERIAL PRIMARY KEY,
			customer_id     VARCHAR(36) NOT NULL,
			event_time      TIMESTAMPTZ NOT NULL,
			event_type      VARCHAR(30) NOT NULL,
			metric_value    DECIMAL(12,4) NOT NULL DEFAULT 0,
			notes           TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_behavior_events_customer ON behavior_events(customer_id, event_time);

		CREATE TABLE IF NOT EXISTS churned_customers (
			id                  VARCHAR(36) PRIMARY KEY,
			name                VARCHAR(255) NOT NULL,
			tier                VARCHAR(20) NOT NULL,
			monthly_value       DECIMAL(12,2) NOT NULL DEFAULT 0,
			churn_date          TIMESTAMPTZ,
			churn_reason        VARCHAR(30),
			decay_pattern       VARCHAR(20),
			days_until_churned  INTEGER NOT NULL DEFAULT 0
		);
	`)
	return err
}

// UpsertCustomer stores or replaces a customer profile
func (p *PostgresStore) UpsertCustomer(ctx context.Context, c *CustomerProfile) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, email, tier, monthly_value, signup_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			tier = EXCLUDED.tier,
			monthly_value = EXCLUDED.monthly_value,
			signup_date = EXCLUDED.signup_date
	`, c.ID, c.Name, c.Email, c.Tier, c.MonthlyValue, c.SignupDate)
	return err
}

// GetCustomer retrieves a customer by ID
func (p *PostgresStore) GetCustomer(ctx context.Context, id string) (*CustomerProfile, error) {
	c := &CustomerProfile{}
	err := p.db.QueryRowContext(ctx, `
		SELECT id, name, email, tier, monthly_value, signup_date
		FROM customers WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Email, &c.Tier, &c.MonthlyValue, &c.SignupDate)
	if err == sql.ErrNoRows {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListCustomers returns customers with filters
func (p *PostgresStore) ListCustomers(ctx context.Context, opts ListOptions) ([]*CustomerProfile, error) {
	query := `SELECT id, name, email, tier, monthly_value, signup_date
	          FROM customers WHERE 1=1`
	args := []interface{}{}
	n := 1

	if opts.Tier != "" {
		query += " AND tier = $" + strconv.Itoa(n)
		args = append(args, opts.Tier)
		n++
	}

	query += " ORDER BY id"
	if opts.Limit > 0 {
		query += " LIMIT $" + strconv.Itoa(n)
		args = append(args, opts.Limit)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []*CustomerProfile
	for rows.Next() {
		c := &CustomerProfile{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Tier, &c.MonthlyValue, &c.SignupDate); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// AddEvents appends behavior events to the log
func (p *PostgresStore) AddEvents(ctx context.Context, events []*BehaviorEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO behavior_events (customer_id, event_time, event_type, metric_value, notes)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, e.CustomerID, e.Timestamp, e.Kind, e.MetricValue, e.Note); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListEvents returns a customer's events with timestamp >= since
func (p *PostgresStore) ListEvents(ctx context.Context, customerID string, since time.Time) ([]*BehaviorEvent, error) {
	var total int
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM behavior_events WHERE customer_id = $1
	`, customerID).Scan(&total)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, ErrNoBehaviorData
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT customer_id, event_time, event_type, metric_value, notes
		FROM behavior_events
		WHERE customer_id = $1 AND event_time >= $2
		ORDER BY event_time ASC
	`, customerID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*BehaviorEvent
	for rows.Next() {
		e := &BehaviorEvent{}
		if err := rows.Scan(&e.CustomerID, &e.Timestamp, &e.Kind, &e.MetricValue, &e.Note); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// UpsertChurned stores or replaces a churned-customer record
func (p *PostgresStore) UpsertChurned(ctx context.Context, c *ChurnedCustomer) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO churned_customers (
			id, name, tier, monthly_value, churn_date,
			churn_reason, decay_pattern, days_until_churned
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			tier = EXCLUDED.tier,
			monthly_value = EXCLUDED.monthly_value,
			churn_date = EXCLUDED.churn_date,
			churn_reason = EXCLUDED.churn_reason,
			decay_pattern = EXCLUDED.decay_pattern,
			days_until_churned = EXCLUDED.days_until_churned
	`, c.ID, c.Name, c.Tier, c.MonthlyValue, c.ChurnDate, c.ChurnReason, c.DecayPattern, c.DaysUntilChurned)
	return err
}

// ListChurned returns all churned-customer records
func (p *PostgresStore) ListChurned(ctx context.Context) ([]*ChurnedCustomer, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, tier, monthly_value, churn_date,
		       churn_reason, decay_pattern, days_until_churned
		FROM churned_customers
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var churned []*ChurnedCustomer
	for rows.Next() {
		c := &ChurnedCustomer{}
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Tier, &c.MonthlyValue, &c.ChurnDate,
			&c.ChurnReason, &c.DecayPattern, &c.DaysUntilChurned,
		); err != nil {
			return nil, err
		}
		churned = append(churned, c)
	}
	return churned, rows.Err()
}
