package sampledata

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/decaylab/churnwatch/internal/customer"
)

const dateLayout = "2006-01-02"

// Dataset is one complete generated sample set
type Dataset struct {
	Customers []*customer.CustomerProfile
	Events    []*customer.BehaviorEvent
	Churned   []*customer.ChurnedCustomer
}

// Generate produces a full dataset: numCustomers profiles with 90 days
// of events plus numChurned historical churn records.
func (g *Generator) Generate(numCustomers, numChurned int) *Dataset {
	profiles := g.Customers(numCustomers)
	return &Dataset{
		Customers: profiles,
		Events:    g.BehaviorEvents(profiles),
		Churned:   g.ChurnedCustomers(numChurned),
	}
}

// WriteCSV writes the dataset to dir in the layout the importer reads:
// customers.csv, behavior_events.csv, and churned_customers.csv.
func (ds *Dataset) WriteCSV(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, customer.CustomersFile))
	if err != nil {
		return err
	}
	if err := customer.WriteCustomersCSV(f, ds.Customers); err != nil {
		f.Close()
		return fmt.Errorf("write customers: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := ds.writeEvents(filepath.Join(dir, customer.EventsFile)); err != nil {
		return fmt.Errorf("write events: %w", err)
	}
	if err := ds.writeChurned(filepath.Join(dir, customer.ChurnedFile)); err != nil {
		return fmt.Errorf("write churned: %w", err)
	}
	return nil
}

func (ds *Dataset) writeEvents(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"customer_id", "event_date", "event_type", "metric_value", "notes"}); err != nil {
		return err
	}
	for _, e := range ds.Events {
		record := []string{
			e.CustomerID,
			e.Timestamp.Format(dateLayout),
			string(e.Kind),
			strconv.FormatFloat(e.MetricValue, 'f', -1, 64),
			e.Note,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (ds *Dataset) writeChurned(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"customer_id", "name", "tier", "monthly_value",
		"churn_date", "churn_reason", "decay_pattern", "days_until_churned",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, c := range ds.Churned {
		record := []string{
			c.ID,
			c.Name,
			string(c.Tier),
			strconv.FormatFloat(c.MonthlyValue, 'f', 2, 64),
			c.ChurnDate.Format(dateLayout),
			string(c.ChurnReason),
			string(c.DecayPattern),
			strconv.Itoa(c.DaysUntilChurned),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
