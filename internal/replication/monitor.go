package replication

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"replicare/internal/audit"
	"replicare/internal/replication/metrics"
	pkgerrors "replicare/pkg/errors"
	"replicare/pkg/platform/sentinel"
)

// AuditSink receives transition events without blocking the sampling path.
// The audit worker satisfies it in production.
type AuditSink interface {
	Enqueue(event audit.Event) bool
}

// Thresholds bound the health state machine. All values come from
// configuration; the 15-minute breach lag is the contractual RTO.
type Thresholds struct {
	WarningLag          time.Duration
	BreachLag           time.Duration
	MaxConsecutiveFails int
	// RecoveryConfirms is the number of consecutive below-warning samples
	// required for DEGRADED→HEALTHY. Two-sample confirmation prevents
	// single-sample flapping.
	RecoveryConfirms int
}

type pairState struct {
	state         HealthState
	lag           time.Duration
	lastSample    time.Time
	failures      int
	healthyStreak int
}

// Monitor ingests per-pair replication lag samples and derives health
// snapshots with hysteresis. BREACHED never clears automatically: an RTO
// breach stays visible until explicitly acknowledged.
type Monitor struct {
	mu         sync.Mutex
	pairs      map[RegionPair]*pairState
	thresholds Thresholds
	sink       AuditSink
	cache      SnapshotCache
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewMonitor builds a monitor. cache may be nil when Redis is not configured.
func NewMonitor(thresholds Thresholds, sink AuditSink, cache SnapshotCache, logger *slog.Logger, m *metrics.Metrics) *Monitor {
	if thresholds.RecoveryConfirms <= 0 {
		thresholds.RecoveryConfirms = 2
	}
	if thresholds.MaxConsecutiveFails <= 0 {
		thresholds.MaxConsecutiveFails = 3
	}
	return &Monitor{
		pairs:      make(map[RegionPair]*pairState),
		thresholds: thresholds,
		sink:       sink,
		cache:      cache,
		logger:     logger,
		metrics:    m,
	}
}

// Sample ingests one observed lag measurement. Samples older than the last
// accepted one are rejected and never mutate state: out-of-order delivery
// must not regress health.
func (m *Monitor) Sample(ctx context.Context, pair RegionPair, lag time.Duration, sampledAt time.Time) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.pair(pair)
	if !st.lastSample.IsZero() && !sampledAt.After(st.lastSample) {
		m.metrics.IncStaleSample(pair.String())
		return m.snapshotLocked(pair, st), pkgerrors.Wrap(pkgerrors.CodeStaleSample,
			fmt.Sprintf("sample at %s not after last accepted %s", sampledAt.Format(time.RFC3339), st.lastSample.Format(time.RFC3339)),
			sentinel.ErrStale)
	}

	st.lag = lag
	st.lastSample = sampledAt

	if lag > m.thresholds.WarningLag {
		st.failures++
		st.healthyStreak = 0
	} else {
		st.failures = 0
		st.healthyStreak++
	}

	before := st.state
	m.advanceLocked(ctx, pair, st)

	snap := m.snapshotLocked(pair, st)
	m.publishLocked(ctx, pair, snap)
	m.metrics.ObserveLag(pair.String(), lag)

	if before != st.state {
		m.logger.InfoContext(ctx, "replication health transition",
			"pair", pair.String(),
			"from", string(before),
			"to", string(st.state),
			"lag", lag.String(),
		)
	}
	return snap, nil
}

// advanceLocked applies the transition policy stepwise so a single extreme
// sample (e.g. 16m from HEALTHY) logs every intermediate transition.
func (m *Monitor) advanceLocked(ctx context.Context, pair RegionPair, st *pairState) {
	if st.state == HealthHealthy && st.lag > m.thresholds.WarningLag {
		m.transitionLocked(ctx, pair, st, HealthDegraded)
	}
	if st.state == HealthDegraded {
		switch {
		case st.lag > m.thresholds.BreachLag || st.failures >= m.thresholds.MaxConsecutiveFails:
			m.transitionLocked(ctx, pair, st, HealthBreached)
		case st.healthyStreak >= m.thresholds.RecoveryConfirms:
			m.transitionLocked(ctx, pair, st, HealthHealthy)
		}
	}
	// BREACHED holds until an explicit acknowledgment.
}

// RecordFailure counts a failed sampling attempt (feed outage). Repeated
// failures escalate a DEGRADED pair to BREACHED.
func (m *Monitor) RecordFailure(ctx context.Context, pair RegionPair, at time.Time) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.pair(pair)
	st.failures++
	st.healthyStreak = 0
	m.metrics.IncSampleFailure(pair.String())

	if st.state == HealthHealthy {
		m.transitionLocked(ctx, pair, st, HealthDegraded)
	}
	if st.state == HealthDegraded && st.failures >= m.thresholds.MaxConsecutiveFails {
		m.transitionLocked(ctx, pair, st, HealthBreached)
	}
	snap := m.snapshotLocked(pair, st)
	m.publishLocked(ctx, pair, snap)
	return snap
}

// Acknowledge clears an RTO breach back to DEGRADED. This is the only exit
// from BREACHED, forcing operator (or automation) visibility of the breach.
func (m *Monitor) Acknowledge(ctx context.Context, pair RegionPair, actor string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.pair(pair)
	if st.state != HealthBreached {
		return m.snapshotLocked(pair, st), pkgerrors.Wrap(pkgerrors.CodeConflict,
			fmt.Sprintf("pair %s is %s, not BREACHED", pair, st.state), sentinel.ErrInvalidState)
	}

	st.failures = 0
	st.healthyStreak = 0
	m.transitionLocked(ctx, pair, st, HealthDegraded)

	m.sink.Enqueue(audit.Event{
		Actor:    actor,
		Action:   audit.ActionRecoveryAcknowledged,
		Subject:  pair.String(),
		Outcome:  audit.OutcomeSuccess,
		Severity: audit.SeverityWarning,
	})

	snap := m.snapshotLocked(pair, st)
	m.publishLocked(ctx, pair, snap)
	return snap, nil
}

// Snapshot returns the latest known snapshot for the pair.
func (m *Monitor) Snapshot(pair RegionPair) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.pairs[pair]
	if !ok {
		return Snapshot{}, false
	}
	return m.snapshotLocked(pair, st), true
}

// Snapshots returns the latest known snapshot for every tracked pair.
func (m *Monitor) Snapshots() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Snapshot, 0, len(m.pairs))
	for pair, st := range m.pairs {
		out = append(out, m.snapshotLocked(pair, st))
	}
	return out
}

// LastSampleAt reports when the pair last accepted a sample.
func (m *Monitor) LastSampleAt(pair RegionPair) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.pairs[pair]
	if !ok {
		return time.Time{}, false
	}
	return st.lastSample, true
}

func (m *Monitor) pair(pair RegionPair) *pairState {
	st, ok := m.pairs[pair]
	if !ok {
		st = &pairState{state: HealthHealthy}
		m.pairs[pair] = st
	}
	return st
}

func (m *Monitor) transitionLocked(_ context.Context, pair RegionPair, st *pairState, to HealthState) {
	from := st.state
	st.state = to
	snap := m.snapshotLocked(pair, st)
	m.sink.Enqueue(audit.Event{
		Actor:    "replication-monitor",
		Action:   audit.ActionReplicationStateChanged,
		Subject:  pair.String(),
		Outcome:  audit.OutcomeSuccess,
		Severity: severityFor(to),
		Detail: fmt.Sprintf("from=%s to=%s lag=%s failures=%d sampled_at=%s",
			from, to, snap.Lag, snap.ConsecutiveFailures, snap.SampledAt.Format(time.RFC3339)),
	})
	m.metrics.IncTransition(string(from), string(to))
}

func (m *Monitor) snapshotLocked(pair RegionPair, st *pairState) Snapshot {
	return Snapshot{
		Pair:                pair,
		Lag:                 st.lag,
		SampledAt:           st.lastSample,
		ConsecutiveFailures: st.failures,
		State:               st.state,
	}
}

func (m *Monitor) publishLocked(ctx context.Context, pair RegionPair, snap Snapshot) {
	if m.cache == nil {
		return
	}
	if err := m.cache.SetLatest(ctx, snap); err != nil {
		m.logger.WarnContext(ctx, "snapshot cache write failed",
			"pair", pair.String(),
			"error", err,
		)
	}
}

func severityFor(state HealthState) audit.Severity {
	switch state {
	case HealthBreached:
		return audit.SeverityCritical
	case HealthDegraded:
		return audit.SeverityWarning
	default:
		return audit.SeverityInfo
	}
}
