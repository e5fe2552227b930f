package compliance

import (
	"context"
	"time"
)

// VerdictStore persists immutable verdicts. Save must be idempotent per
// verdict ID: replaying a deterministic evaluation may not duplicate history.
type VerdictStore interface {
	Save(ctx context.Context, v Verdict) error
	// ListByWindow returns the region's verdicts with EvaluatedAt in
	// [from, to], ordered by evaluation time. Empty region matches all.
	ListByWindow(ctx context.Context, region string, from, to time.Time) ([]Verdict, error)
}

// ReportStore persists audit-cycle reports. Reports supersede each other;
// Latest returns the most recently generated one for a region.
type ReportStore interface {
	Save(ctx context.Context, r Report) error
	Latest(ctx context.Context, region string) (Report, error)
}

// ReportCache publishes the latest report for dashboard reads. Write-through
// and best-effort: the ReportStore stays authoritative.
type ReportCache interface {
	SetLatest(ctx context.Context, r Report) error
	GetLatest(ctx context.Context, region string) (Report, error)
}
