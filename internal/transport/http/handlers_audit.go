package http

import (
	"net/http"
	"strconv"
	"time"

	"replicare/internal/audit"
	pkgerrors "replicare/pkg/errors"
	"replicare/pkg/platform/httputil"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
)

type auditEventsResponse struct {
	Events []audit.Event `json:"events"`
}

func (h *Handler) handleAuditEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.Filter{
		Subject: q.Get("subject"),
		Action:  q.Get("action"),
		Actor:   q.Get("actor"),
	}
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "from must be RFC 3339"))
			return
		}
		filter.From = t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "to must be RFC 3339"))
			return
		}
		filter.To = t
	}

	limit := defaultEventLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = min(n, maxEventLimit)
	}

	cursor := h.trail.Query(r.Context(), filter)
	events := make([]audit.Event, 0, limit)
	for len(events) < limit && cursor.Next(r.Context()) {
		events = append(events, cursor.Event())
	}
	if err := cursor.Err(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, auditEventsResponse{Events: events})
}
