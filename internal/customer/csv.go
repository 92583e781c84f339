package customer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// CSV file names inside the data directory
const (
	CustomersFile = "customers.csv"
	EventsFile    = "behavior_events.csv"
	ChurnedFile   = "churned_customers.csv"
)

const dateLayout = "2006-01-02"

// ImportDir loads customers, behavior events, and churned-customer history
// from CSV files in dir into the store. Missing files are skipped so a
// partial data directory still loads. Malformed numeric fields parse to
// zero and malformed dates to the zero time rather than aborting the import.
func ImportDir(ctx context.Context, store Store, dir string) error {
	if err := importCustomers(ctx, store, filepath.Join(dir, CustomersFile)); err != nil {
		return fmt.Errorf("import customers: %w", err)
	}
	if err := importEvents(ctx, store, filepath.Join(dir, EventsFile)); err != nil {
		return fmt.Errorf("import events: %w", err)
	}
	if err := importChurned(ctx, store, filepath.Join(dir, ChurnedFile)); err != nil {
		return fmt.Errorf("import churned: %w", err)
	}
	return nil
}

func importCustomers(ctx context.Context, store Store, path string) error {
	rows, err := readCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		c := &CustomerProfile{
			ID:           row[0],
			Name:         row[1],
			Email:        row[2],
			Tier:         Tier(row[3]),
			MonthlyValue: parseFloat(row[4]),
			SignupDate:   parseDate(row[5]),
		}
		if err := store.UpsertCustomer(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func importEvents(ctx context.Context, store Store, path string) error {
	rows, err := readCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	events := make([]*BehaviorEvent, 0, len(rows))
	for _, row := range rows {
		if len(row) < 4 {
			continue
		}
		e := &BehaviorEvent{
			CustomerID:  row[0],
			Timestamp:   parseDate(row[1]),
			Kind:        EventKind(row[2]),
			MetricValue: parseFloat(row[3]),
		}
		if len(row) > 4 {
			e.Note = row[4]
		}
		events = append(events, e)
	}
	return store.AddEvents(ctx, events)
}

func importChurned(ctx context.Context, store Store, path string) error {
	rows, err := readCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, row := range rows {
		if len(row) < 8 {
			continue
		}
		c := &ChurnedCustomer{
			ID:               row[0],
			Name:             row[1],
			Tier:             Tier(row[2]),
			MonthlyValue:     parseFloat(row[3]),
			ChurnDate:        parseDate(row[4]),
			ChurnReason:      ChurnReason(row[5]),
			DecayPattern:     DecayPattern(row[6]),
			DaysUntilChurned: int(parseFloat(row[7])),
		}
		if err := store.UpsertChurned(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// readCSV reads all data rows of a CSV file, skipping the header
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // trailing optional columns

	// Header row
	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteCustomersCSV writes customer profiles to w in the import format
func WriteCustomersCSV(w io.Writer, customers []*CustomerProfile) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"customer_id", "name", "email", "tier", "monthly_value", "signup_date"}); err != nil {
		return err
	}
	for _, c := range customers {
		record := []string{
			c.ID,
			c.Name,
			c.Email,
			string(c.Tier),
			strconv.FormatFloat(c.MonthlyValue, 'f', 2, 64),
			c.SignupDate.Format(dateLayout),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// parseFloat parses a numeric field, returning zero on failure
func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// parseDate parses a date field (date-only or RFC3339), returning the
// zero time on failure
func parseDate(s string) time.Time {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
