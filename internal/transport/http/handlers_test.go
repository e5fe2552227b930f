package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"replicare/internal/alerting"
	"replicare/internal/audit"
	"replicare/internal/compliance"
	"replicare/internal/failover"
	"replicare/internal/platform/token"
	"replicare/internal/record"
	"replicare/internal/replication"
	"replicare/internal/transport/http/mocks"
	pkgerrors "replicare/pkg/errors"
	"replicare/pkg/testutil"
)

var handlerTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// =============================================================================
// HTTP Handler Tests
// =============================================================================
// Record endpoints run against a mocked service; the replication and failover
// endpoints run against the real state machines so the suite exercises the
// full sample-to-decision path.

type HandlerSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	records      *mocks.MockRecordService
	monitor      *replication.Monitor
	orchestrator *failover.Orchestrator
	reports      *compliance.InMemoryReportStore
	trail        *audit.Trail
	router       http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.DiscardHandler)
	s.ctrl = gomock.NewController(s.T())
	s.records = mocks.NewMockRecordService(s.ctrl)

	s.trail = audit.NewTrail(audit.NewInMemoryStore(), logger, audit.WithMaxRetries(0))
	worker := audit.NewWorker(s.trail, 64, logger)
	s.monitor = replication.NewMonitor(replication.Thresholds{
		WarningLag:          5 * time.Minute,
		BreachLag:           15 * time.Minute,
		MaxConsecutiveFails: 3,
		RecoveryConfirms:    2,
	}, worker, nil, logger, nil)

	s.reports = compliance.NewInMemoryReportStore()
	s.orchestrator = failover.NewOrchestrator(failover.Config{
		PrimaryRegion:  "ca-central-1",
		TargetRegion:   "ca-west-1",
		WarningLag:     5 * time.Minute,
		StableConfirms: 3,
	}, s.trail, alerting.NewLogNotifier(logger), logger, nil)
	coordinator := failover.NewCoordinator(s.orchestrator, s.reports, nil, "ca-west-1", logger)

	handler := New(s.records, s.monitor, s.orchestrator, coordinator,
		s.reports, nil, s.trail, token.NewValidator(""), logger)
	s.router = handler.Router()
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) saveReport(r compliance.Report) {
	s.Require().NoError(s.reports.Save(context.Background(), r))
}

// ----- records -----

func (s *HandlerSuite) TestIngestRecordCreated() {
	rec := record.Record{ID: "rec-1", Region: "ca-central-1"}
	verdict := compliance.Verdict{RecordID: "rec-1", Overall: true}
	s.records.EXPECT().Ingest(gomock.Any(), gomock.Any()).Return(rec, verdict, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/records", map[string]any{"id": "rec-1"})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	resp := testutil.UnmarshalResponse[recordResponse](s.T(), rr)
	s.Equal("rec-1", resp.Record.ID)
	s.True(resp.Verdict.Overall)
}

func (s *HandlerSuite) TestIngestValidationFailureReturns400() {
	s.records.EXPECT().Ingest(gomock.Any(), gomock.Any()).
		Return(record.Record{}, compliance.Verdict{}, pkgerrors.New(pkgerrors.CodeValidation, `compliance validation failed: ["consent"]`))

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/records", map[string]any{"id": "rec-2"})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(pkgerrors.CodeValidation))
}

func (s *HandlerSuite) TestIngestMalformedBody() {
	req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/records", `{"id":`)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(pkgerrors.CodeBadRequest))
}

func (s *HandlerSuite) TestAmendConsent() {
	s.records.EXPECT().
		AmendConsent(gomock.Any(), "rec-1", record.ConsentAmendment{ConsentGiven: false, ConsentMethod: "withdrawal_form"}).
		Return(record.Record{ID: "rec-1"}, compliance.Verdict{RecordID: "rec-1"}, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/records/rec-1/consent", map[string]any{
		"consent_given":  false,
		"consent_method": "withdrawal_form",
	})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusOK(s.T(), rr)
}

func (s *HandlerSuite) TestRecordDisposalNotFound() {
	s.records.EXPECT().RecordDisposal(gomock.Any(), "missing").
		Return(record.Record{}, compliance.Verdict{}, pkgerrors.New(pkgerrors.CodeNotFound, "record not found"))

	req := testutil.NewRequest(s.T(), http.MethodPost, "/records/missing/disposal")
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(pkgerrors.CodeNotFound))
}

// ----- replication -----

func (s *HandlerSuite) sampleBody(lag time.Duration, at time.Time) map[string]any {
	return map[string]any{
		"source":     "ca-central-1",
		"target":     "ca-west-1",
		"lag_ms":     lag.Milliseconds(),
		"sampled_at": at.Format(time.RFC3339),
	}
}

func (s *HandlerSuite) TestSampleAccepted() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/replication/samples",
		s.sampleBody(2*time.Minute, handlerTime))
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusAccepted)
	resp := testutil.UnmarshalResponse[sampleResponse](s.T(), rr)
	s.Equal(replication.HealthHealthy, resp.Snapshot.State)
	s.Equal(failover.StateStable, resp.FailoverState)
}

func (s *HandlerSuite) TestStaleSampleConflicts() {
	first := testutil.NewJSONRequest(s.T(), http.MethodPost, "/replication/samples",
		s.sampleBody(2*time.Minute, handlerTime))
	testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, first), http.StatusAccepted)

	stale := testutil.NewJSONRequest(s.T(), http.MethodPost, "/replication/samples",
		s.sampleBody(20*time.Minute, handlerTime.Add(-time.Minute)))
	rr := testutil.DoRequest(s.router, stale)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, string(pkgerrors.CodeStaleSample))
}

func (s *HandlerSuite) TestBreachingSampleDrivesFailover() {
	s.saveReport(compliance.Report{Region: "ca-west-1", Score: 100})

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/replication/samples",
		s.sampleBody(16*time.Minute, handlerTime))
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusAccepted)
	resp := testutil.UnmarshalResponse[sampleResponse](s.T(), rr)
	s.Equal(replication.HealthBreached, resp.Snapshot.State)
	s.Equal(failover.StateFailoverInitiated, resp.FailoverState)
}

func (s *HandlerSuite) TestBlockedFailoverStillAcceptsSample() {
	s.saveReport(compliance.Report{Region: "ca-west-1", Score: 60, AlertTriggered: true})

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/replication/samples",
		s.sampleBody(16*time.Minute, handlerTime))
	rr := testutil.DoRequest(s.router, req)

	// A blocked failover precondition must not reject the sample itself.
	testutil.AssertStatus(s.T(), rr, http.StatusAccepted)
	resp := testutil.UnmarshalResponse[sampleResponse](s.T(), rr)
	s.Equal(failover.StateDegraded, resp.FailoverState)
}

func (s *HandlerSuite) TestSampleRejectsMissingFields() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/replication/samples",
		map[string]any{"lag_ms": 1000})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *HandlerSuite) TestAcknowledgeOnlyFromBreach() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/replication/samples",
		s.sampleBody(2*time.Minute, handlerTime))
	testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req), http.StatusAccepted)

	ack := testutil.NewRequest(s.T(), http.MethodPost, "/replication/ca-central-1->ca-west-1/acknowledge")
	rr := testutil.DoRequest(s.router, ack)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, string(pkgerrors.CodeConflict))
}

func (s *HandlerSuite) TestReplicationHealthListsPairs() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/replication/samples",
		s.sampleBody(2*time.Minute, handlerTime))
	testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req), http.StatusAccepted)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/replication/health"))

	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONHasKey(s.T(), rr, "pairs")
}

// ----- failover -----

func (s *HandlerSuite) TestFailoverStateEndpoint() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/failover/state"))

	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "state", string(failover.StateStable))
}

func (s *HandlerSuite) TestConfirmPromotionOutsideInitiatedConflicts() {
	req := testutil.NewRequest(s.T(), http.MethodPost, "/failover/confirm-promotion")
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, string(pkgerrors.CodePreconditionFailed))
}

// ----- compliance & audit reads -----

func (s *HandlerSuite) TestLatestReport() {
	s.saveReport(compliance.Report{Region: "ca-west-1", Score: 98.5})

	rr := testutil.DoRequest(s.router,
		testutil.NewRequest(s.T(), http.MethodGet, "/compliance/reports/latest?region=ca-west-1"))

	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "score", 98.5)
}

func (s *HandlerSuite) TestLatestReportMissingRegion() {
	rr := testutil.DoRequest(s.router,
		testutil.NewRequest(s.T(), http.MethodGet, "/compliance/reports/latest"))

	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *HandlerSuite) TestLatestReportNotFound() {
	rr := testutil.DoRequest(s.router,
		testutil.NewRequest(s.T(), http.MethodGet, "/compliance/reports/latest?region=eu-west-1"))

	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
}

func (s *HandlerSuite) TestAuditEventsQuery() {
	ctx := context.Background()
	s.Require().NoError(s.trail.Append(ctx, audit.Event{
		Actor: "test", Action: audit.ActionRecordIngested, Subject: "rec-1", Outcome: audit.OutcomeSuccess,
	}))
	s.Require().NoError(s.trail.Append(ctx, audit.Event{
		Actor: "test", Action: audit.ActionConsentAmended, Subject: "rec-1", Outcome: audit.OutcomeSuccess,
	}))

	rr := testutil.DoRequest(s.router,
		testutil.NewRequest(s.T(), http.MethodGet, "/audit/events?subject=rec-1&action=consent_amended"))

	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[auditEventsResponse](s.T(), rr)
	s.Require().Len(resp.Events, 1)
	s.Equal(audit.ActionConsentAmended, resp.Events[0].Action)
}

func (s *HandlerSuite) TestAuditEventsBadTimestamp() {
	rr := testutil.DoRequest(s.router,
		testutil.NewRequest(s.T(), http.MethodGet, "/audit/events?from=yesterday"))

	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *HandlerSuite) TestHealthz() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	testutil.AssertStatusOK(s.T(), rr)
}

// =============================================================================
// Auth Middleware Tests
// =============================================================================

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	validator := token.NewValidator("test-signing-key")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	protected := RequireAuth(validator, logger)(next)

	rr := testutil.DoRequest(protected, testutil.NewRequest(t, http.MethodGet, "/failover/state"))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestRequireAuthRejectsGarbageToken(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	validator := token.NewValidator("test-signing-key")

	protected := RequireAuth(validator, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := testutil.NewRequest(t, http.MethodGet, "/failover/state")
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rr := testutil.DoRequest(protected, req)
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestRequireAuthDisabledPassesThrough(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	validator := token.NewValidator("")

	var actor string
	protected := RequireAuth(validator, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = GetActor(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rr := testutil.DoRequest(protected, testutil.NewRequest(t, http.MethodGet, "/failover/state"))
	testutil.AssertStatusOK(t, rr)
	if actor != "anonymous" {
		t.Fatalf("expected anonymous actor, got %q", actor)
	}
}

// Recovery must convert panics into JSON 500s, not crashes.
func TestRecoveryMiddleware(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	panicking := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := testutil.DoRequest(panicking, testutil.NewRequest(t, http.MethodGet, "/records"))
	testutil.AssertStatus(t, rr, http.StatusInternalServerError)
}

// The ingestion error path must never leak internal error strings verbatim
// when the cause is unclassified.
func TestWriteErrorDefaultsToInternal(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	ctrl := gomock.NewController(t)
	records := mocks.NewMockRecordService(ctrl)
	records.EXPECT().RecordDisposal(gomock.Any(), "rec-1").
		Return(record.Record{}, compliance.Verdict{}, errors.New("pq: connection refused"))

	trail := audit.NewTrail(audit.NewInMemoryStore(), logger, audit.WithMaxRetries(0))
	monitor := replication.NewMonitor(replication.Thresholds{}, audit.NewWorker(trail, 1, logger), nil, logger, nil)
	orch := failover.NewOrchestrator(failover.Config{TargetRegion: "ca-west-1"}, trail, alerting.NewLogNotifier(logger), logger, nil)
	coord := failover.NewCoordinator(orch, compliance.NewInMemoryReportStore(), nil, "ca-west-1", logger)
	h := New(records, monitor, orch, coord, compliance.NewInMemoryReportStore(), nil, trail, token.NewValidator(""), logger)

	req := testutil.NewRequest(t, http.MethodPost, "/records/rec-1/disposal")
	rr := testutil.DoRequest(h.Router(), req)
	testutil.AssertStatus(t, rr, http.StatusInternalServerError)
}
