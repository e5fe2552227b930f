package failover

import (
	"context"
	"errors"
	"log/slog"

	"replicare/internal/compliance"
	"replicare/internal/replication"
	"replicare/pkg/platform/sentinel"
)

// Coordinator feeds the orchestrator its inputs: every accepted replication
// snapshot is paired with the latest compliance report for the failover
// target before evaluation. The orchestrator itself never reaches out to
// stores; it only decides.
type Coordinator struct {
	orchestrator *Orchestrator
	reports      compliance.ReportStore
	cache        compliance.ReportCache
	targetRegion string
	logger       *slog.Logger
}

// NewCoordinator builds the coordinator. cache may be nil.
func NewCoordinator(orchestrator *Orchestrator, reports compliance.ReportStore, cache compliance.ReportCache, targetRegion string, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		orchestrator: orchestrator,
		reports:      reports,
		cache:        cache,
		targetRegion: targetRegion,
		logger:       logger,
	}
}

// React evaluates the orchestrator against the snapshot and the latest known
// report for the target region. A missing report is passed through as a zero
// report; the orchestrator treats it as a failed precondition.
func (c *Coordinator) React(ctx context.Context, snap replication.Snapshot) (State, error) {
	report, err := c.latestReport(ctx)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		c.logger.WarnContext(ctx, "latest report lookup failed, evaluating without it",
			"region", c.targetRegion,
			"error", err,
		)
	}
	return c.orchestrator.Evaluate(ctx, snap, report)
}

func (c *Coordinator) latestReport(ctx context.Context) (compliance.Report, error) {
	if c.cache != nil {
		report, err := c.cache.GetLatest(ctx, c.targetRegion)
		if err == nil {
			return report, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			c.logger.WarnContext(ctx, "report cache read failed", "error", err)
		}
	}
	return c.reports.Latest(ctx, c.targetRegion)
}
