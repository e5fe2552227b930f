package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"replicare/internal/compliance"
	"replicare/internal/record"
	"replicare/pkg/platform/httputil"
)

type recordResponse struct {
	Record  record.Record      `json:"record"`
	Verdict compliance.Verdict `json:"verdict"`
}

type consentAmendmentRequest struct {
	ConsentGiven               bool     `json:"consent_given"`
	ConsentMethod              string   `json:"consent_method"`
	ConsentScope               []string `json:"consent_scope,omitempty"`
	CrossBorderTransferConsent bool     `json:"cross_border_transfer_consent"`
}

func (h *Handler) handleIngestRecord(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[record.Record](w, r, h.logger)
	if !ok {
		return
	}

	rec, verdict, err := h.records.Ingest(r.Context(), req)
	if err != nil {
		h.logger.WarnContext(r.Context(), "ingestion rejected",
			"record_id", req.ID,
			"error", err,
			"request_id", GetRequestID(r.Context()),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, recordResponse{Record: rec, Verdict: verdict})
}

func (h *Handler) handleAmendConsent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, ok := httputil.Decode[consentAmendmentRequest](w, r, h.logger)
	if !ok {
		return
	}

	rec, verdict, err := h.records.AmendConsent(r.Context(), id, record.ConsentAmendment{
		ConsentGiven:               req.ConsentGiven,
		ConsentMethod:              req.ConsentMethod,
		ConsentScope:               req.ConsentScope,
		CrossBorderTransferConsent: req.CrossBorderTransferConsent,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, recordResponse{Record: rec, Verdict: verdict})
}

func (h *Handler) handleRecordDisposal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, verdict, err := h.records.RecordDisposal(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, recordResponse{Record: rec, Verdict: verdict})
}
