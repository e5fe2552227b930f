package http

import (
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"replicare/internal/failover"
	"replicare/internal/replication"
	pkgerrors "replicare/pkg/errors"
	"replicare/pkg/platform/httputil"
)

type sampleRequest struct {
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	LagMillis int64     `json:"lag_ms"`
	SampledAt time.Time `json:"sampled_at"`
}

type sampleResponse struct {
	Snapshot      replication.Snapshot `json:"snapshot"`
	FailoverState failover.State       `json:"failover_state"`
}

func (h *Handler) handleReplicationSample(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[sampleRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.Source == "" || req.Target == "" {
		httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "source and target regions required"))
		return
	}
	if req.SampledAt.IsZero() {
		httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "sampled_at required"))
		return
	}
	if req.LagMillis < 0 {
		httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "lag_ms must be non-negative"))
		return
	}

	pair := replication.RegionPair{Source: req.Source, Target: req.Target}
	snap, err := h.monitor.Sample(r.Context(), pair, time.Duration(req.LagMillis)*time.Millisecond, req.SampledAt)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// A blocked failover precondition must not fail the sample: the snapshot
	// is already accepted and the block is on the audit trail.
	state, err := h.reactor.React(r.Context(), snap)
	if err != nil && pkgerrors.CodeOf(err) != pkgerrors.CodePreconditionFailed {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, sampleResponse{Snapshot: snap, FailoverState: state})
}

func (h *Handler) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	pair, err := replication.ParsePair(chi.URLParam(r, "pair"))
	if err != nil {
		httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeBadRequest, err.Error()))
		return
	}

	snap, err := h.monitor.Acknowledge(r.Context(), pair, GetActor(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleReplicationHealth(w http.ResponseWriter, r *http.Request) {
	snaps := h.monitor.Snapshots()
	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].Pair.String() < snaps[j].Pair.String()
	})
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"pairs": snaps})
}
