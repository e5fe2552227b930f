// Package service orchestrates record ingestion: validate, enrich, persist,
// audit. It keeps orchestration out of handlers and domain logic thin.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"replicare/internal/audit"
	"replicare/internal/compliance"
	"replicare/internal/record"
	"replicare/internal/record/metrics"
	pkgerrors "replicare/pkg/errors"
	"replicare/pkg/platform/sentinel"
)

const processedBy = "replicare-core"

// Validator evaluates a record and persists the verdict.
type Validator interface {
	Validate(ctx context.Context, rec record.Record) (compliance.Verdict, error)
}

// Service handles ingestion and the two permitted amendment paths.
type Service struct {
	store         record.Store
	validator     Validator
	trail         *audit.Trail
	logger        *slog.Logger
	metrics       *metrics.Metrics
	defaultOrigin string
	now           func() time.Time
}

// New builds the ingestion service. defaultOrigin is the data-residency
// origin assumed for records that do not declare one.
func New(store record.Store, validator Validator, trail *audit.Trail, logger *slog.Logger, m *metrics.Metrics, defaultOrigin string) *Service {
	return &Service{
		store:         store,
		validator:     validator,
		trail:         trail,
		logger:        logger,
		metrics:       m,
		defaultOrigin: defaultOrigin,
		now:           time.Now,
	}
}

// WithClock overrides the ingestion clock for deterministic tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Ingest validates the incoming record and, when compliant, enriches and
// persists it. A non-compliant record is rejected with every failing
// category listed; its verdict still enters the scoring population so the
// rejection is visible in the next report.
func (s *Service) Ingest(ctx context.Context, rec record.Record) (record.Record, compliance.Verdict, error) {
	if rec.ID == "" {
		return record.Record{}, compliance.Verdict{}, pkgerrors.New(pkgerrors.CodeBadRequest, "record id required")
	}

	now := s.now()
	if rec.Region == "" {
		rec.Region = s.defaultOrigin
	}
	if rec.ResidencyOrigin == "" {
		rec.ResidencyOrigin = s.defaultOrigin
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.LastModified = now

	verdict, err := s.validator.Validate(ctx, rec)
	if err != nil {
		return record.Record{}, compliance.Verdict{}, fmt.Errorf("validate record: %w", err)
	}

	if !verdict.Overall {
		s.metrics.IncProcessed("rejected", rec.Region)
		if err := s.auditIngestion(ctx, rec, audit.OutcomeFailure, verdict); err != nil {
			return record.Record{}, compliance.Verdict{}, err
		}
		detail, _ := json.Marshal(verdict.FailingCategories())
		return record.Record{}, verdict, pkgerrors.New(pkgerrors.CodeValidation,
			"compliance validation failed: "+string(detail))
	}

	rec.Processing = record.ProcessingMetadata{
		ProcessingID: uuid.NewString(),
		ProcessedAt:  now,
		ProcessedBy:  processedBy,
		DataHash:     rec.Hash(),
		BackupStatus: "replicated",
	}

	if err := s.store.Save(ctx, rec); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return record.Record{}, compliance.Verdict{}, pkgerrors.New(pkgerrors.CodeConflict, "record already ingested")
		}
		s.metrics.IncProcessed("error", rec.Region)
		return record.Record{}, compliance.Verdict{}, fmt.Errorf("save record: %w", err)
	}

	s.metrics.IncProcessed("success", rec.Region)
	if err := s.auditIngestion(ctx, rec, audit.OutcomeSuccess, verdict); err != nil {
		return record.Record{}, compliance.Verdict{}, err
	}

	s.logger.InfoContext(ctx, "record ingested",
		"record_id", rec.ID,
		"processing_id", rec.Processing.ProcessingID,
		"region", rec.Region,
	)
	return rec, verdict, nil
}

// AmendConsent applies a consent amendment and re-validates the record. Each
// amendment produces a new audit event and a new verdict; nothing is
// overwritten.
func (s *Service) AmendConsent(ctx context.Context, id string, amendment record.ConsentAmendment) (record.Record, compliance.Verdict, error) {
	now := s.now()
	rec, err := s.store.AmendConsent(ctx, id, amendment, now)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return record.Record{}, compliance.Verdict{}, pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
		}
		return record.Record{}, compliance.Verdict{}, fmt.Errorf("amend consent: %w", err)
	}

	if err := s.trail.Append(ctx, audit.Event{
		Actor:    processedBy,
		Action:   audit.ActionConsentAmended,
		Subject:  rec.ID,
		Outcome:  audit.OutcomeSuccess,
		Severity: audit.SeverityInfo,
		Detail:   fmt.Sprintf("consent_given=%t method=%s", amendment.ConsentGiven, amendment.ConsentMethod),
	}); err != nil {
		return record.Record{}, compliance.Verdict{}, err
	}

	verdict, err := s.validator.Validate(ctx, rec)
	if err != nil {
		return record.Record{}, compliance.Verdict{}, fmt.Errorf("revalidate record: %w", err)
	}
	return rec, verdict, nil
}

// RecordDisposal marks the record disposed and re-validates it.
func (s *Service) RecordDisposal(ctx context.Context, id string) (record.Record, compliance.Verdict, error) {
	now := s.now()
	rec, err := s.store.MarkDisposed(ctx, id, now)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return record.Record{}, compliance.Verdict{}, pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
		}
		return record.Record{}, compliance.Verdict{}, fmt.Errorf("mark disposed: %w", err)
	}

	if err := s.trail.Append(ctx, audit.Event{
		Actor:    processedBy,
		Action:   audit.ActionDisposalRecorded,
		Subject:  rec.ID,
		Outcome:  audit.OutcomeSuccess,
		Severity: audit.SeverityInfo,
	}); err != nil {
		return record.Record{}, compliance.Verdict{}, err
	}

	verdict, err := s.validator.Validate(ctx, rec)
	if err != nil {
		return record.Record{}, compliance.Verdict{}, fmt.Errorf("revalidate record: %w", err)
	}
	return rec, verdict, nil
}

func (s *Service) auditIngestion(ctx context.Context, rec record.Record, outcome audit.Outcome, verdict compliance.Verdict) error {
	severity := audit.SeverityInfo
	if outcome == audit.OutcomeFailure {
		severity = audit.SeverityWarning
	}
	return s.trail.Append(ctx, audit.Event{
		Actor:    processedBy,
		Action:   audit.ActionRecordIngested,
		Subject:  rec.ID,
		Outcome:  outcome,
		Severity: severity,
		Detail:   fmt.Sprintf("region=%s compliant=%t", rec.Region, verdict.Overall),
	})
}
