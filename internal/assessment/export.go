package assessment

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	reportJSONFile = "analysis_all.json"
	reportCSVFile  = "analysis_all.csv"
)

// ExportReport writes a batch report to the data directory as a full
// JSON document plus a flattened CSV, one row per customer.
func ExportReport(dataDir string, report *BatchReport) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	doc, err := json.MarshalIndent(report.Assessments, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	jsonPath := filepath.Join(dataDir, reportJSONFile)
	if err := os.WriteFile(jsonPath, doc, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", jsonPath, err)
	}

	csvPath := filepath.Join(dataDir, reportCSVFile)
	f, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", csvPath, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"customer_id", "customer_name", "tier", "monthly_value",
		"churn_risk_score", "risk_level", "intervention_priority",
		"predicted_churn_date", "revenue_at_risk", "confidence",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, a := range report.Assessments {
		row := []string{
			a.CustomerID,
			a.CustomerName,
			string(a.Tier),
			strconv.FormatFloat(a.MonthlyValue, 'f', 2, 64),
			strconv.FormatFloat(a.ChurnRiskScore, 'f', 2, 64),
			string(a.RiskLevel),
			strconv.Itoa(a.InterventionPriority),
			a.PredictedChurnDate.Format(time.DateOnly),
			strconv.FormatFloat(a.RevenueAtRisk, 'f', 2, 64),
			string(a.Confidence),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}
