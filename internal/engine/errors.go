package engine

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a pipeline failure for API clients.
type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeMalformedRange     Code = "MALFORMED_RANGE"
	CodeInsufficientInputs Code = "INSUFFICIENT_INPUTS"
	CodeAllPagesRemoved    Code = "ALL_PAGES_REMOVED"
	CodeEmptySelection     Code = "EMPTY_SELECTION"
	CodeInvalidAngle       Code = "INVALID_ANGLE"
	CodeProcessing         Code = "PROCESSING_ERROR"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// Error pairs a failure code with its underlying cause.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error with the given code and formatted message.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Err: fmt.Errorf(format, args...)}
}

// Validation wraps a parameter failure detected before any document is loaded.
func Validation(format string, args ...any) *Error {
	return NewError(CodeValidation, format, args...)
}

// Processing wraps a document library failure (corrupt input, wrong password).
func Processing(err error) *Error {
	return &Error{Code: CodeProcessing, Err: err}
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Err: err}
}

// CodeOf extracts the failure code from an error chain, defaulting to
// INTERNAL_ERROR for untyped errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// MapHTTPStatus maps pipeline errors to HTTP status codes. Validation-class
// failures map to 400, library processing failures to 422, everything else
// to 500.
func MapHTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeValidation, CodeMalformedRange, CodeInsufficientInputs,
		CodeAllPagesRemoved, CodeEmptySelection, CodeInvalidAngle:
		return http.StatusBadRequest
	case CodeProcessing:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
