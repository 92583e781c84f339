package assessment

import (
	"context"
	"errors"
	"time"
)

// ErrNoBatchReport is returned when no analyze-all run has been cached yet.
var ErrNoBatchReport = errors.New("no batch report available")

// BatchReport is the cached output of an analyze-all run. Analytics
// endpoints read from the latest report rather than re-assessing.
type BatchReport struct {
	RunAt       time.Time         `json:"run_at"`
	Assessments []*RiskAssessment `json:"assessments"`
}

// ReportStore persists batch assessment reports.
type ReportStore interface {
	SaveBatch(ctx context.Context, report *BatchReport) error
	LatestBatch(ctx context.Context) (*BatchReport, error)
}
