package compliance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"replicare/internal/audit"
	"replicare/internal/compliance/metrics"
	"replicare/internal/record"
)

// Evaluate judges one record against the rule set at the given time. This is
// pure domain logic - no I/O, no side effects: identical inputs always yield
// the identical Verdict, enabling replay-based testing.
func Evaluate(rec record.Record, rs *RuleSet, at time.Time) Verdict {
	verdict := Verdict{
		ID:             VerdictID(rec.ID, rs.Version, at),
		RecordID:       rec.ID,
		Region:         rec.Region,
		RuleSetVersion: rs.Version,
		EvaluatedAt:    at,
		Categories:     make(map[Category]CategoryResult, len(rs.order)+1),
		Overall:        true,
	}

	if rec.Compliance == nil {
		verdict.Categories[CategoryMissingField] = CategoryResult{Reason: "compliance info missing"}
		verdict.Overall = false
	}

	for _, rule := range rs.Rules() {
		result := rule.Evaluate(rec, at)
		verdict.Categories[rule.Category()] = result
		if !result.Passed {
			verdict.Overall = false
		}
	}
	return verdict
}

// Validator wraps the pure evaluation with persistence and auditing. It runs
// per-record on ingestion, potentially many invocations concurrently; all
// shared state lives in the stores.
type Validator struct {
	rules    *RuleSet
	verdicts VerdictStore
	trail    *audit.Trail
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	now      func() time.Time
}

// NewValidator builds a validator over the given rule set.
func NewValidator(rules *RuleSet, verdicts VerdictStore, trail *audit.Trail, logger *slog.Logger, m *metrics.Metrics) *Validator {
	return &Validator{
		rules:    rules,
		verdicts: verdicts,
		trail:    trail,
		logger:   logger,
		metrics:  m,
		tracer:   otel.Tracer("replicare/compliance"),
		now:      time.Now,
	}
}

// WithClock overrides the evaluation clock for deterministic tests.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// Validate evaluates the record, persists the verdict, and emits exactly one
// compliance_validated audit event. The audit write is fail-closed: if the
// trail cannot record the evaluation, the verdict is not returned as valid.
func (v *Validator) Validate(ctx context.Context, rec record.Record) (Verdict, error) {
	ctx, span := v.tracer.Start(ctx, "compliance.validate")
	defer span.End()

	start := v.now()
	verdict := Evaluate(rec, v.rules, start)

	if err := v.verdicts.Save(ctx, verdict); err != nil {
		return Verdict{}, fmt.Errorf("save verdict: %w", err)
	}

	outcome := audit.OutcomeSuccess
	severity := audit.SeverityInfo
	if !verdict.Overall {
		outcome = audit.OutcomeFailure
		severity = audit.SeverityWarning
	}
	detail, _ := json.Marshal(verdict.FailingCategories())
	if err := v.trail.Append(ctx, audit.Event{
		Actor:     "compliance-validator",
		Action:    audit.ActionComplianceValidated,
		Subject:   rec.ID,
		Outcome:   outcome,
		Severity:  severity,
		Detail:    string(detail),
		Timestamp: verdict.EvaluatedAt,
	}); err != nil {
		return Verdict{}, err
	}

	for _, c := range verdict.FailingCategories() {
		v.metrics.IncVerdict(string(c), "fail")
	}
	if verdict.Overall {
		v.metrics.IncVerdict("overall", "pass")
	} else {
		v.metrics.IncVerdict("overall", "fail")
	}
	v.metrics.ObserveValidateLatency(time.Since(start))

	v.logger.DebugContext(ctx, "record validated",
		"record_id", rec.ID,
		"rule_set", v.rules.Version,
		"overall", verdict.Overall,
	)
	return verdict, nil
}
