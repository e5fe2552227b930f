package scheduler

import (
	"context"
	"log/slog"
	"time"

	"replicare/internal/audit"
	"replicare/internal/compliance"
	"replicare/internal/failover"
	"replicare/internal/replication"
)

// AuditCycleJob runs the compliance scorer for each monitored region.
func AuditCycleJob(scorer *compliance.Scorer, regions []string, logger *slog.Logger) func(ctx context.Context) {
	return func(ctx context.Context) {
		for _, region := range regions {
			if _, err := scorer.RunCycle(ctx, region); err != nil {
				logger.ErrorContext(ctx, "audit cycle failed",
					"region", region,
					"error", err,
				)
			}
		}
	}
}

// WatchdogJob records a sampling failure for every tracked pair whose feed has
// gone quiet past the deadline. A silent feed is indistinguishable from a
// broken one, so it degrades the pair the same way.
func WatchdogJob(monitor *replication.Monitor, deadline time.Duration, logger *slog.Logger) func(ctx context.Context) {
	return func(ctx context.Context) {
		now := time.Now()
		for _, snap := range monitor.Snapshots() {
			last, ok := monitor.LastSampleAt(snap.Pair)
			if !ok || last.IsZero() {
				continue
			}
			if now.Sub(last) <= deadline {
				continue
			}
			out := monitor.RecordFailure(ctx, snap.Pair, now)
			logger.WarnContext(ctx, "replication feed silent past deadline",
				"pair", snap.Pair.String(),
				"last_sample", last,
				"state", string(out.State),
			)
		}
	}
}

// CompactionJob runs the audit retention pass. Events past the retention
// cutoff are marked compactable unless pinned: subjects with a failing verdict
// in the scoring window stay, and the whole failover chain stays while the
// orchestrator is away from STABLE.
func CompactionJob(
	trail *audit.Trail,
	verdicts compliance.VerdictStore,
	orchestrator *failover.Orchestrator,
	retention time.Duration,
	window time.Duration,
	logger *slog.Logger,
) func(ctx context.Context) {
	return func(ctx context.Context) {
		now := time.Now()

		protection := audit.Protection{
			Subjects: make(map[string]struct{}),
			Actions:  make(map[string]struct{}),
		}
		vs, err := verdicts.ListByWindow(ctx, "", now.Add(-window), now)
		if err != nil {
			logger.ErrorContext(ctx, "retention pass skipped: verdict scan failed", "error", err)
			return
		}
		for _, v := range vs {
			if !v.Overall {
				protection.Subjects[v.RecordID] = struct{}{}
			}
		}
		if orchestrator.State() != failover.StateStable {
			protection.Actions[audit.ActionFailoverTransition] = struct{}{}
			protection.Actions[audit.ActionPreconditionFailed] = struct{}{}
			protection.Actions[audit.ActionReplicationStateChanged] = struct{}{}
		}

		if _, err := trail.MarkCompactable(ctx, now.Add(-retention), protection); err != nil {
			logger.ErrorContext(ctx, "retention pass failed", "error", err)
		}
	}
}
