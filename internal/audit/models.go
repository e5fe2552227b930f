package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event is the append-only unit of the audit trail. Events are immutable once
// appended; amendments to the entities they describe produce new events.
type Event struct {
	ID        uuid.UUID
	Timestamp time.Time
	Actor     string
	Action    string
	Subject   string
	Outcome   Outcome
	Severity  Severity
	Detail    string

	// CompactionEligible is the only mutable bit: the retention scan sets it
	// once the event ages out and nothing pins it. Events are never deleted.
	CompactionEligible bool
}

// Outcome records how the audited action concluded.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeBlocked Outcome = "blocked"
)

// Severity levels for routing to the alerting collaborator.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Actions emitted by the core components. Each component writes through the
// same trail; the action name identifies the source.
const (
	ActionRecordIngested          = "record_ingested"
	ActionConsentAmended          = "consent_amended"
	ActionDisposalRecorded        = "disposal_recorded"
	ActionComplianceValidated     = "compliance_validated"
	ActionReportGenerated         = "report_generated"
	ActionAlertRaised             = "alert_raised"
	ActionReplicationStateChanged = "replication_state_changed"
	ActionRecoveryAcknowledged    = "recovery_acknowledged"
	ActionFailoverTransition      = "failover_transition"
	ActionPreconditionFailed      = "precondition_failed"
)

// Filter narrows a trail query. Zero values mean "any".
type Filter struct {
	Subject string
	Action  string
	Actor   string
	From    time.Time
	To      time.Time
}

// Matches reports whether the event satisfies every set filter field.
func (f Filter) Matches(e Event) bool {
	if f.Subject != "" && e.Subject != f.Subject {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Actor != "" && e.Actor != f.Actor {
		return false
	}
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Timestamp.After(f.To) {
		return false
	}
	return true
}

// Token is the resume position of a cursor: the (timestamp, id) ordering key
// of the last event returned.
type Token struct {
	Timestamp time.Time
	ID        uuid.UUID
}

// IsZero reports whether the token marks the start of the trail.
func (t Token) IsZero() bool {
	return t.Timestamp.IsZero() && t.ID == uuid.Nil
}

// Less orders events by (timestamp, id) so pagination is total and stable.
func Less(a, b Event) bool {
	if a.Timestamp.Equal(b.Timestamp) {
		return a.ID.String() < b.ID.String()
	}
	return a.Timestamp.Before(b.Timestamp)
}

// Protection pins events against compaction. Events documenting an unresolved
// compliance violation or an active failover transition chain must survive
// retention, whatever their age.
type Protection struct {
	// Subjects with an unresolved compliance violation.
	Subjects map[string]struct{}
	// Actions pinned wholesale, e.g. failover_transition while a chain is open.
	Actions map[string]struct{}
}

// Covers reports whether the protection pins the given event.
func (p Protection) Covers(e Event) bool {
	if _, ok := p.Subjects[e.Subject]; ok {
		return true
	}
	if _, ok := p.Actions[e.Action]; ok {
		return true
	}
	return false
}
