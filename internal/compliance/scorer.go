package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"replicare/internal/alerting"
	"replicare/internal/audit"
	"replicare/internal/compliance/metrics"
)

// Scorer runs the scheduled audit cycle: it aggregates the window's verdicts
// into a population-level report and raises an alert when the score drops
// below the configured threshold. The default threshold of 100 means any
// violation alerts; operators may relax it.
type Scorer struct {
	verdicts  VerdictStore
	reports   ReportStore
	cache     ReportCache
	trail     *audit.Trail
	notifier  alerting.Notifier
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	threshold float64
	window    time.Duration
	now       func() time.Time
}

// NewScorer builds the scorer. cache may be nil when Redis is not configured.
func NewScorer(
	verdicts VerdictStore,
	reports ReportStore,
	cache ReportCache,
	trail *audit.Trail,
	notifier alerting.Notifier,
	logger *slog.Logger,
	m *metrics.Metrics,
	threshold float64,
	window time.Duration,
) *Scorer {
	return &Scorer{
		verdicts:  verdicts,
		reports:   reports,
		cache:     cache,
		trail:     trail,
		notifier:  notifier,
		logger:    logger,
		metrics:   m,
		tracer:    otel.Tracer("replicare/compliance"),
		threshold: threshold,
		window:    window,
		now:       time.Now,
	}
}

// WithClock overrides the cycle clock for deterministic tests.
func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	s.now = now
	return s
}

// RunCycle scores the region's verdicts for the trailing window, persists the
// report, and fans out alerting when the threshold is breached.
func (s *Scorer) RunCycle(ctx context.Context, region string) (Report, error) {
	ctx, span := s.tracer.Start(ctx, "compliance.score")
	defer span.End()

	end := s.now()
	start := end.Add(-s.window)
	verdicts, err := s.verdicts.ListByWindow(ctx, region, start, end)
	if err != nil {
		return Report{}, fmt.Errorf("list verdicts: %w", err)
	}

	report := Score(verdicts, s.threshold)
	report.ID = uuid.New()
	report.Region = region
	report.WindowStart = start
	report.WindowEnd = end
	report.GeneratedAt = end

	if err := s.reports.Save(ctx, report); err != nil {
		return Report{}, fmt.Errorf("save report: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.SetLatest(ctx, report); err != nil {
			s.logger.WarnContext(ctx, "report cache write failed",
				"region", region,
				"error", err,
			)
		}
	}

	if err := s.trail.Append(ctx, audit.Event{
		Actor:     "compliance-scorer",
		Action:    audit.ActionReportGenerated,
		Subject:   region,
		Outcome:   audit.OutcomeSuccess,
		Severity:  audit.SeverityInfo,
		Detail:    fmt.Sprintf("score=%.2f total=%d", report.Score, report.Total),
		Timestamp: report.GeneratedAt,
	}); err != nil {
		return Report{}, err
	}

	s.metrics.SetScore(region, report.Score)

	if report.AlertTriggered {
		s.metrics.IncAlert()
		if err := s.trail.Append(ctx, audit.Event{
			Actor:     "compliance-scorer",
			Action:    audit.ActionAlertRaised,
			Subject:   region,
			Outcome:   audit.OutcomeFailure,
			Severity:  audit.SeverityCritical,
			Detail:    fmt.Sprintf("score=%.2f threshold=%.2f", report.Score, s.threshold),
			Timestamp: report.GeneratedAt,
		}); err != nil {
			return Report{}, err
		}
		if err := s.notifier.Notify(ctx, alerting.Message{
			Actor:     "compliance-scorer",
			Action:    audit.ActionAlertRaised,
			Subject:   region,
			Timestamp: report.GeneratedAt,
			Severity:  string(audit.SeverityCritical),
			Detail:    fmt.Sprintf("compliance score %.2f below threshold %.2f", report.Score, s.threshold),
		}); err != nil {
			// The alert is already on the audit trail; notification delivery
			// is retried on the next cycle.
			s.logger.ErrorContext(ctx, "alert notification failed",
				"region", region,
				"error", err,
			)
		}
	}

	s.logger.InfoContext(ctx, "audit cycle complete",
		"region", region,
		"score", report.Score,
		"total", report.Total,
		"alert", report.AlertTriggered,
	)
	return report, nil
}
