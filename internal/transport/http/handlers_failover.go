package http

import (
	"net/http"

	"replicare/internal/failover"
	"replicare/pkg/platform/httputil"
)

type failoverStateResponse struct {
	State failover.State `json:"state"`
}

func (h *Handler) handleFailoverState(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, failoverStateResponse{State: h.orchestrator.State()})
}

func (h *Handler) handleConfirmPromotion(w http.ResponseWriter, r *http.Request) {
	state, err := h.orchestrator.ConfirmPromotion(r.Context(), GetActor(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, failoverStateResponse{State: state})
}

func (h *Handler) handlePrimaryRecovered(w http.ResponseWriter, r *http.Request) {
	state, err := h.orchestrator.SignalPrimaryRecovered(r.Context(), GetActor(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, failoverStateResponse{State: state})
}
