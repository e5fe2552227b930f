package failover

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"replicare/internal/alerting"
	"replicare/internal/audit"
	"replicare/internal/compliance"
	"replicare/internal/failover/metrics"
	"replicare/internal/replication"
	pkgerrors "replicare/pkg/errors"
	"replicare/pkg/platform/sentinel"
)

// Config bounds the orchestrator's decisions.
type Config struct {
	// PrimaryRegion is the original primary. Recovery is confirmed by the
	// reverse pair, TargetRegion→PrimaryRegion.
	PrimaryRegion string
	// TargetRegion is the failover destination whose compliance report gates
	// FAILOVER_INITIATED.
	TargetRegion string
	// WarningLag gates the RECOVERING→STABLE confirmation window.
	WarningLag time.Duration
	// StableConfirms is the number of consecutive below-warning reverse-lag
	// samples required to leave RECOVERING.
	StableConfirms int
}

// Orchestrator owns the FailoverState singleton. A single-writer mutex
// serializes evaluations: concurrent evaluations of overlapping snapshots
// could otherwise race to inconsistent transitions. Inputs arrive as explicit
// latest-known snapshots and reports, never shared live references, so every
// decision is deterministic given its arguments.
type Orchestrator struct {
	mu           sync.Mutex
	state        State
	stableStreak int
	// pairHealth is the latest observed health per pair, so one pair's
	// recovery cannot clear a degradation caused by another.
	pairHealth map[replication.RegionPair]replication.HealthState

	cfg     Config
	reverse replication.RegionPair

	trail    *audit.Trail
	notifier alerting.Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// NewOrchestrator starts in STABLE.
func NewOrchestrator(cfg Config, trail *audit.Trail, notifier alerting.Notifier, logger *slog.Logger, m *metrics.Metrics) *Orchestrator {
	if cfg.StableConfirms <= 0 {
		cfg.StableConfirms = 3
	}
	return &Orchestrator{
		state:      StateStable,
		pairHealth: make(map[replication.RegionPair]replication.HealthState),
		cfg:        cfg,
		reverse:    replication.RegionPair{Source: cfg.TargetRegion, Target: cfg.PrimaryRegion},
		trail:      trail,
		notifier:   notifier,
		logger:     logger,
		metrics:    m,
		tracer:     otel.Tracer("replicare/failover"),
	}
}

// State returns the current failover state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Evaluate advances the state machine from the latest known replication
// snapshot and compliance report. Preconditions that fail are reported, not
// silently retried, and leave state unchanged.
//
// The core safety invariant lives here: a breach never initiates failover
// into a region whose compliance report has an alert raised.
func (o *Orchestrator) Evaluate(ctx context.Context, snap replication.Snapshot, report compliance.Report) (State, error) {
	ctx, span := o.tracer.Start(ctx, "failover.evaluate")
	defer span.End()

	o.mu.Lock()
	defer o.mu.Unlock()

	o.pairHealth[snap.Pair] = snap.State

	switch o.state {
	case StateStable:
		if snap.State == replication.HealthDegraded || snap.State == replication.HealthBreached {
			if err := o.transitionLocked(ctx, StateDegraded, "orchestrator", snap.Pair.String()); err != nil {
				return o.state, err
			}
		}
		if o.state != StateDegraded {
			return o.state, nil
		}
		fallthrough

	case StateDegraded:
		switch snap.State {
		case replication.HealthBreached:
			if report.Region != o.cfg.TargetRegion {
				return o.state, o.preconditionFailedLocked(ctx, snap.Pair.String(),
					fmt.Sprintf("no compliance report for target region %s", o.cfg.TargetRegion))
			}
			if report.AlertTriggered {
				return o.state, o.preconditionFailedLocked(ctx, snap.Pair.String(),
					fmt.Sprintf("target region %s non-compliant (score=%.2f)", report.Region, report.Score))
			}
			if err := o.transitionLocked(ctx, StateFailoverInitiated, "orchestrator", snap.Pair.String()); err != nil {
				return o.state, err
			}
		case replication.HealthHealthy:
			// Degradation cleared without a breach; settle back down once
			// every tracked pair reports healthy. A healthy sample from one
			// pair must not clear a degradation caused by another.
			if !o.allPairsHealthyLocked() {
				return o.state, nil
			}
			if err := o.transitionLocked(ctx, StateStable, "orchestrator", snap.Pair.String()); err != nil {
				return o.state, err
			}
		}

	case StateRecovering:
		// Only the reverse (new-primary → original) direction confirms
		// recovery; samples for any other pair neither count nor reset.
		if snap.Pair != o.reverse {
			return o.state, nil
		}
		if snap.Lag <= o.cfg.WarningLag && snap.State == replication.HealthHealthy {
			o.stableStreak++
		} else {
			o.stableStreak = 0
		}
		if o.stableStreak >= o.cfg.StableConfirms {
			o.stableStreak = 0
			if err := o.transitionLocked(ctx, StateStable, "orchestrator", snap.Pair.String()); err != nil {
				return o.state, err
			}
			// Fresh epoch: health observed before the chain closed no longer
			// binds the settled deployment.
			o.pairHealth = make(map[replication.RegionPair]replication.HealthState)
		}

	case StateFailoverInitiated, StateFailoverActive:
		// Waiting on an explicit external acknowledgment; snapshots and
		// reports cannot move these states.
	}

	return o.state, nil
}

// ConfirmPromotion records the storage collaborator's acknowledgment that the
// secondary region is serving as primary. An explicit signal, never a
// timeout-based assumption.
func (o *Orchestrator) ConfirmPromotion(ctx context.Context, actor string) (State, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateFailoverInitiated {
		return o.state, o.preconditionFailedLocked(ctx, o.cfg.TargetRegion,
			fmt.Sprintf("promotion confirmed while state is %s", o.state))
	}
	if err := o.transitionLocked(ctx, StateFailoverActive, actor, o.cfg.TargetRegion); err != nil {
		return o.state, err
	}
	return o.state, nil
}

// SignalPrimaryRecovered records the operator/automation signal that the
// original primary is HEALTHY again and recovery replication may be watched.
func (o *Orchestrator) SignalPrimaryRecovered(ctx context.Context, actor string) (State, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateFailoverActive {
		return o.state, o.preconditionFailedLocked(ctx, o.cfg.TargetRegion,
			fmt.Sprintf("primary recovery signalled while state is %s", o.state))
	}
	o.stableStreak = 0
	if err := o.transitionLocked(ctx, StateRecovering, actor, o.cfg.TargetRegion); err != nil {
		return o.state, err
	}
	return o.state, nil
}

// transitionLocked commits a state change. The audit append is fail-closed:
// an unauditable transition does not happen.
func (o *Orchestrator) transitionLocked(ctx context.Context, to State, actor, subject string) error {
	from := o.state
	if err := o.trail.Append(ctx, audit.Event{
		Actor:    actor,
		Action:   audit.ActionFailoverTransition,
		Subject:  subject,
		Outcome:  audit.OutcomeSuccess,
		Severity: transitionSeverity(to),
		Detail:   fmt.Sprintf("from=%s to=%s", from, to),
	}); err != nil {
		return err
	}
	o.state = to
	o.metrics.IncTransition(string(from), string(to))
	o.metrics.SetState(gaugeValue(to))

	if err := o.notifier.Notify(ctx, alerting.Message{
		Actor:     actor,
		Action:    audit.ActionFailoverTransition,
		Subject:   subject,
		Timestamp: time.Now(),
		Severity:  string(transitionSeverity(to)),
		Detail:    fmt.Sprintf("failover state %s -> %s", from, to),
	}); err != nil {
		o.logger.ErrorContext(ctx, "failover notification failed",
			"from", string(from),
			"to", string(to),
			"error", err,
		)
	}

	o.logger.InfoContext(ctx, "failover state transition",
		"from", string(from),
		"to", string(to),
		"subject", subject,
	)
	return nil
}

func (o *Orchestrator) allPairsHealthyLocked() bool {
	for _, st := range o.pairHealth {
		if st != replication.HealthHealthy {
			return false
		}
	}
	return true
}

// preconditionFailedLocked reports a blocked transition without mutating
// state.
func (o *Orchestrator) preconditionFailedLocked(ctx context.Context, subject, reason string) error {
	o.metrics.IncPreconditionFailure()

	if err := o.trail.Append(ctx, audit.Event{
		Actor:    "orchestrator",
		Action:   audit.ActionPreconditionFailed,
		Subject:  subject,
		Outcome:  audit.OutcomeBlocked,
		Severity: audit.SeverityCritical,
		Detail:   reason,
	}); err != nil {
		return err
	}
	if err := o.notifier.Notify(ctx, alerting.Message{
		Actor:     "orchestrator",
		Action:    audit.ActionPreconditionFailed,
		Subject:   subject,
		Timestamp: time.Now(),
		Severity:  string(audit.SeverityCritical),
		Detail:    reason,
	}); err != nil {
		o.logger.ErrorContext(ctx, "precondition notification failed", "error", err)
	}

	return pkgerrors.Wrap(pkgerrors.CodePreconditionFailed, reason, sentinel.ErrInvalidState)
}

func transitionSeverity(to State) audit.Severity {
	switch to {
	case StateFailoverInitiated, StateFailoverActive:
		return audit.SeverityCritical
	case StateDegraded, StateRecovering:
		return audit.SeverityWarning
	default:
		return audit.SeverityInfo
	}
}
