package assessment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PostgresReportStore implements ReportStore using PostgreSQL. Reports
// are stored as JSONB documents, one row per batch run.
type PostgresReportStore struct {
	db *sql.DB
}

func NewPostgresReportStore(db *sql.DB) *PostgresReportStore {
	return &PostgresReportStore{db: db}
}

// Compile-time interface check
var _ ReportStore = (*PostgresReportStore)(nil)

// Migrate creates the batch report table
func (p *PostgresReportStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS assessment_batches (
			id          BIGSERIAL PRIMARY KEY,
			run_at      TIMESTAMPTZ NOT NULL,
			report      JSONB NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_assessment_batches_run_at ON assessment_batches(run_at DESC);
	`)
	return err
}

func (p *PostgresReportStore) SaveBatch(ctx context.Context, report *BatchReport) error {
	doc, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal batch report: %w", err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO assessment_batches (run_at, report) VALUES ($1, $2)
	`, report.RunAt, doc)
	if err != nil {
		return fmt.Errorf("save batch report: %w", err)
	}
	return nil
}

func (p *PostgresReportStore) LatestBatch(ctx context.Context) (*BatchReport, error) {
	var doc []byte
	err := p.db.QueryRowContext(ctx, `
		SELECT report FROM assessment_batches ORDER BY run_at DESC, id DESC LIMIT 1
	`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoBatchReport
	}
	if err != nil {
		return nil, fmt.Errorf("load batch report: %w", err)
	}

	var report BatchReport
	if err := json.Unmarshal(doc, &report); err != nil {
		return nil, fmt.Errorf("unmarshal batch report: %w", err)
	}
	return &report, nil
}
