package services

import (
	"errors"
	"fmt"

	"townreq-be/models"
)

// ErrorKind names an expected, caller-correctable failure condition.
type ErrorKind string

const (
	KindInvalidFilter       ErrorKind = "invalid_filter"
	KindInvalidPagination   ErrorKind = "invalid_pagination"
	KindInvalidArgument     ErrorKind = "invalid_argument"
	KindIllegalTransition   ErrorKind = "illegal_transition"
	KindPrematureAssignment ErrorKind = "premature_assignment"
	KindForbidden           ErrorKind = "forbidden"
	KindEmptyContent        ErrorKind = "empty_content"
	KindContentTooLong      ErrorKind = "content_too_long"
	KindFileTooLarge        ErrorKind = "file_too_large"
	KindNotReady            ErrorKind = "not_ready"
	KindQuarantined         ErrorKind = "quarantined"
	KindNotFound            ErrorKind = "not_found"
	KindUnavailable         ErrorKind = "unavailable"
)

// Error is the structured error every engine operation returns for expected
// conditions. It carries enough detail to render an actionable message
// upstream without the engine knowing about presentation.
type Error struct {
	Kind    ErrorKind
	Message string

	// Field names the offending input field, when one exists.
	Field string

	// Current and Attempted are set for lifecycle contract violations.
	Current   models.RequestStatus
	Attempted models.RequestStatus

	// Limit is set for bound violations (content length, file size).
	Limit int64

	cause error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field %s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}

// KindOf returns the kind of err, or "" for errors the engine did not produce.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

func errNotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func errForbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func errInvalidFilter(field, msg string) *Error {
	return &Error{Kind: KindInvalidFilter, Message: msg, Field: field}
}

func errInvalidPagination(field, msg string) *Error {
	return &Error{Kind: KindInvalidPagination, Message: msg, Field: field}
}

func errInvalidArgument(field, msg string) *Error {
	return &Error{Kind: KindInvalidArgument, Message: msg, Field: field}
}

func errIllegalTransition(current, attempted models.RequestStatus) *Error {
	return &Error{
		Kind:      KindIllegalTransition,
		Message:   fmt.Sprintf("cannot move from %s to %s", current, attempted),
		Current:   current,
		Attempted: attempted,
	}
}

// errUnavailable wraps a storage or object-store fault. Callers should
// retry with backoff.
func errUnavailable(op string, cause error) *Error {
	return &Error{
		Kind:    KindUnavailable,
		Message: op + " temporarily unavailable",
		cause:   cause,
	}
}
