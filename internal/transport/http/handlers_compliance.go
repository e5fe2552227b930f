package http

import (
	"errors"
	"net/http"

	pkgerrors "replicare/pkg/errors"
	"replicare/pkg/platform/httputil"
	"replicare/pkg/platform/sentinel"
)

func (h *Handler) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	if region == "" {
		httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "region query parameter required"))
		return
	}

	if h.reportCache != nil {
		report, err := h.reportCache.GetLatest(r.Context(), region)
		if err == nil {
			httputil.WriteJSON(w, http.StatusOK, report)
			return
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			h.logger.WarnContext(r.Context(), "report cache read failed",
				"region", region,
				"error", err,
			)
		}
	}

	report, err := h.reports.Latest(r.Context(), region)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeNotFound, "no report for region "+region))
			return
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}
