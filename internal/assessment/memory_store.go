package assessment

import (
	"context"
	"sync"
)

// MemoryReportStore is an in-memory ReportStore for testing and
// deployments without a database.
type MemoryReportStore struct {
	mu     sync.RWMutex
	latest *BatchReport
}

func NewMemoryReportStore() *MemoryReportStore {
	return &MemoryReportStore{}
}

// Compile-time interface check
var _ ReportStore = (*MemoryReportStore)(nil)

func (m *MemoryReportStore) SaveBatch(ctx context.Context, report *BatchReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest = report
	return nil
}

func (m *MemoryReportStore) LatestBatch(ctx context.Context) (*BatchReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.latest == nil {
		return nil, ErrNoBatchReport
	}
	return m.latest, nil
}
