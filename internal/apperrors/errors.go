// Package apperrors defines the typed error kinds propagated from the
// repository and agent layers up to request handlers.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is one of the error kinds named in the server's error handling design.
type Kind string

const (
	Unauthenticated    Kind = "UNAUTHENTICATED"
	Forbidden          Kind = "FORBIDDEN"
	NotFound           Kind = "NOT_FOUND"
	Conflict           Kind = "CONFLICT"
	InvalidArgument    Kind = "INVALID_ARGUMENT"
	FailedPrecondition Kind = "FAILED_PRECONDITION"
	Unavailable        Kind = "UNAVAILABLE"
	ResourceExhausted  Kind = "RESOURCE_EXHAUSTED"
	FileSystemBrowse   Kind = "FILE_SYSTEM_BROWSE"
	Cancelled          Kind = "CANCELLED"
	Internal           Kind = "INTERNAL"
)

// httpStatus maps each kind to the HTTP status code request handlers should use.
var httpStatus = map[Kind]int{
	Unauthenticated:    http.StatusUnauthorized,
	Forbidden:          http.StatusForbidden,
	NotFound:           http.StatusNotFound,
	Conflict:           http.StatusConflict,
	InvalidArgument:    http.StatusBadRequest,
	FailedPrecondition: http.StatusPreconditionFailed,
	Unavailable:        http.StatusServiceUnavailable,
	ResourceExhausted:  http.StatusTooManyRequests,
	FileSystemBrowse:   http.StatusForbidden,
	Cancelled:          http.StatusRequestTimeout,
	Internal:           http.StatusInternalServerError,
}

// Error is a typed, optionally field-scoped application error.
type Error struct {
	Kind       Kind
	Message    string
	Field      string // populated for InvalidArgument field-path errors
	Correlation string
	cause      error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// HTTPStatus returns the HTTP status code for this error's kind.
func (e *Error) HTTPStatus() int {
	if code, ok := httpStatus[e.Kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds a formatted Error.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error, preserving it for Unwrap/errors.Is.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// WithField attaches a validation field path, used for InvalidArgument errors.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithCorrelation attaches a correlation id, surfaced on Internal errors instead of details.
func (e *Error) WithCorrelation(id string) *Error {
	e.Correlation = id
	return e
}

// KindOf extracts the Kind of err, defaulting to Internal for untyped errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

// Is reports whether err (or anything it wraps) is an *Error of kind k.
func Is(err error, k Kind) bool {
	return KindOf(err) == k
}
