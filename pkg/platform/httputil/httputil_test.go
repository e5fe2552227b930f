package httputil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "replicare/pkg/errors"
)

func TestWriteErrorTranslatesCodes(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", pkgerrors.New(pkgerrors.CodeNotFound, "no such record"), http.StatusNotFound, "not_found"},
		{"conflict", pkgerrors.New(pkgerrors.CodeConflict, "record already exists"), http.StatusConflict, "conflict"},
		{"stale sample", pkgerrors.New(pkgerrors.CodeStaleSample, "sample is not newer"), http.StatusConflict, "stale_sample"},
		{"unavailable", pkgerrors.New(pkgerrors.CodeUnavailable, "audit trail unavailable"), http.StatusServiceUnavailable, "storage_unavailable"},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tc.err)

			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), `"code":"`+tc.code+`"`)
		})
	}
}

func TestWriteErrorUsesCoreMessage(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, pkgerrors.Wrap(pkgerrors.CodeUnavailable, "audit trail unavailable", errors.New("dial tcp: refused")))

	assert.Contains(t, w.Body.String(), "audit trail unavailable")
	assert.NotContains(t, w.Body.String(), "dial tcp", "wrapped causes stay off the wire")
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	type payload struct {
		ID string `json:"id"`
	}

	r := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader(`{"id":"rec-1","bogus":true}`))
	w := httptest.NewRecorder()

	_, ok := Decode[payload](w, r, nil)
	require.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDecodeValidBody(t *testing.T) {
	type payload struct {
		ID string `json:"id"`
	}

	r := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader(`{"id":"rec-1"}`))
	w := httptest.NewRecorder()

	req, ok := Decode[payload](w, r, nil)
	require.True(t, ok)
	assert.Equal(t, "rec-1", req.ID)
}
