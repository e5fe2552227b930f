// Package httputil centralizes JSON encoding and error translation for the
// HTTP layer so handlers stay thin.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	pkgerrors "replicare/pkg/errors"
)

// ErrorEnvelope is the JSON error body returned by every endpoint.
type ErrorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON encodes v with the given status. Encoding failures are logged by
// net/http; by then the status line is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into a consistent JSON envelope.
func WriteError(w http.ResponseWriter, err error) {
	code := pkgerrors.CodeOf(err)
	msg := err.Error()
	var ce pkgerrors.CoreError
	if errors.As(err, &ce) {
		msg = ce.Message
	}
	WriteJSON(w, pkgerrors.ToHTTPStatus(code), ErrorEnvelope{
		Code:    string(code),
		Message: msg,
	})
}

// Decode parses the request body into T, writing a bad-request envelope and
// returning ok=false when the payload is malformed.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var req T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(r.Context(), "malformed request body",
				"path", r.URL.Path,
				"error", err,
			)
		}
		WriteError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "malformed request body"))
		return req, false
	}
	return req, true
}
