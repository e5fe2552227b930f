// Package http exposes the core over REST for the ingestion, storage, and
// dashboard collaborators.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"replicare/internal/audit"
	"replicare/internal/compliance"
	"replicare/internal/failover"
	"replicare/internal/platform/token"
	"replicare/internal/record"
	"replicare/internal/replication"
)

//go:generate mockgen -source=router.go -destination=mocks/mocks.go -package=mocks

// RecordService is the ingestion surface the record handlers depend on.
type RecordService interface {
	Ingest(ctx context.Context, rec record.Record) (record.Record, compliance.Verdict, error)
	AmendConsent(ctx context.Context, id string, amendment record.ConsentAmendment) (record.Record, compliance.Verdict, error)
	RecordDisposal(ctx context.Context, id string) (record.Record, compliance.Verdict, error)
}

// FailoverReactor evaluates the failover state machine after each accepted
// replication snapshot.
type FailoverReactor interface {
	React(ctx context.Context, snap replication.Snapshot) (failover.State, error)
}

// Handler owns all route registrations.
type Handler struct {
	records      RecordService
	monitor      *replication.Monitor
	orchestrator *failover.Orchestrator
	reactor      FailoverReactor
	reports      compliance.ReportStore
	reportCache  compliance.ReportCache
	trail        *audit.Trail
	validator    *token.Validator
	logger       *slog.Logger
}

// New creates the handler. reportCache may be nil.
func New(
	records RecordService,
	monitor *replication.Monitor,
	orchestrator *failover.Orchestrator,
	reactor FailoverReactor,
	reports compliance.ReportStore,
	reportCache compliance.ReportCache,
	trail *audit.Trail,
	validator *token.Validator,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		records:      records,
		monitor:      monitor,
		orchestrator: orchestrator,
		reactor:      reactor,
		reports:      reports,
		reportCache:  reportCache,
		trail:        trail,
		validator:    validator,
		logger:       logger,
	}
}

// Router assembles the full route tree.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(Recovery(h.logger))
	r.Use(RequestID)
	r.Use(RequestLogger(h.logger))

	r.Get("/healthz", h.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(h.validator, h.logger))

		r.Post("/records", h.handleIngestRecord)
		r.Post("/records/{id}/consent", h.handleAmendConsent)
		r.Post("/records/{id}/disposal", h.handleRecordDisposal)

		r.Post("/replication/samples", h.handleReplicationSample)
		r.Post("/replication/{pair}/acknowledge", h.handleAcknowledge)
		r.Get("/replication/health", h.handleReplicationHealth)

		r.Get("/failover/state", h.handleFailoverState)
		r.Post("/failover/confirm-promotion", h.handleConfirmPromotion)
		r.Post("/failover/primary-recovered", h.handlePrimaryRecovered)

		r.Get("/compliance/reports/latest", h.handleLatestReport)
		r.Get("/audit/events", h.handleAuditEvents)
	})

	return r
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","time":"` + time.Now().UTC().Format(time.RFC3339) + `"}`))
}
