package customer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestImportDir(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, CustomersFile,
		"customer_id,name,email,tier,monthly_value,signup_date\n"+
			"cust_001,Acme Inc,ops@acme.test,pro,499.00,2024-03-01\n"+
			"cust_002,Globex,it@globex.test,enterprise,2500.00,2023-11-15\n")
	writeFile(t, dir, EventsFile,
		"customer_id,timestamp,event_type,metric_value,notes\n"+
			"cust_001,2026-08-01,login,1,\n"+
			"cust_001,2026-08-02,support_ticket,1,printer not working\n")
	writeFile(t, dir, ChurnedFile,
		"customer_id,name,tier,monthly_value,churn_date,churn_reason,decay_pattern,days_until_churned\n"+
			"churned_001,Gone Corp,basic,99.00,2026-01-15,pricing,gradual,120\n")

	store := NewMemoryStore()
	require.NoError(t, ImportDir(context.Background(), store, dir))

	customers, err := store.ListCustomers(context.Background(), ListOptions{})
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, TierEnterprise, customers[1].Tier)
	assert.Equal(t, 2500.0, customers[1].MonthlyValue)

	events, err := store.ListEvents(context.Background(), "cust_001", time.Time{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "printer not working", events[1].Note)

	churned, err := store.ListChurned(context.Background())
	require.NoError(t, err)
	require.Len(t, churned, 1)
	assert.Equal(t, 120, churned[0].DaysUntilChurned)
}

func TestImportDir_MissingFilesSkipped(t *testing.T) {
	store := NewMemoryStore()
	// Empty directory: nothing to load, but no error either
	require.NoError(t, ImportDir(context.Background(), store, t.TempDir()))
}

func TestImportDir_MalformedFieldsUseDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, CustomersFile,
		"customer_id,name,email,tier,monthly_value,signup_date\n"+
			"cust_001,Acme Inc,ops@acme.test,pro,not-a-number,never\n")

	store := NewMemoryStore()
	require.NoError(t, ImportDir(context.Background(), store, dir))

	got, err := store.GetCustomer(context.Background(), "cust_001")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.MonthlyValue)
	assert.True(t, got.SignupDate.IsZero())
}

func TestWriteCustomersCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCustomersCSV(&buf, []*CustomerProfile{
		testCustomer("cust_001", TierBasic),
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "customer_id,name,email,tier,monthly_value,signup_date", lines[0])
	assert.Contains(t, lines[1], "cust_001")
	assert.Contains(t, lines[1], "499.00")
	assert.Contains(t, lines[1], "2024-03-01")
}

func TestParseDate_Formats(t *testing.T) {
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), parseDate("2026-08-01"))
	assert.False(t, parseDate("2026-08-01T12:30:00Z").IsZero())
	assert.True(t, parseDate("garbage").IsZero())
}
