package ports

import (
	"context"
	"time"
)

// CycleSummary is one finished validation cycle for one account.
type CycleSummary struct {
	Account      string
	Records      int
	Successes    int
	Failures     int
	DeltaValid   int64
	DeltaInvalid int64
	StartedAt    time.Time
	FinishedAt   time.Time
}

// CycleHistory records finished cycles for later inspection.
type CycleHistory interface {
	RecordCycle(ctx context.Context, summary CycleSummary) error
	RecentCycles(ctx context.Context, limit int) ([]CycleSummary, error)
}
