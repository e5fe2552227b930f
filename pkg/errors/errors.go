// Package errors defines the coded error taxonomy shared by all core
// components. Services return CoreErrors so transport layers can translate
// them into consistent HTTP envelopes without inspecting error strings.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for callers and for HTTP translation.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeUnauthorized       Code = "unauthorized"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeValidation         Code = "validation_failed"
	CodeStaleSample        Code = "stale_sample"
	CodePreconditionFailed Code = "precondition_failed"
	CodeUnavailable        Code = "storage_unavailable"
	CodeInternal           Code = "internal"
)

// CoreError carries a stable code alongside a human-readable message.
type CoreError struct {
	Code    Code
	Message string
	Err     error
}

func (e CoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e CoreError) Unwrap() error { return e.Err }

// New builds a CoreError with the given code and message.
func New(code Code, message string) CoreError {
	return CoreError{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(code Code, message string, err error) CoreError {
	return CoreError{Code: code, Message: message, Err: err}
}

// CodeOf extracts the Code from err, or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var ce CoreError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps an error code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeStaleSample, CodePreconditionFailed:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
