// Package errs provides the unified error type used across the assistant.
//
// Every subsystem (catalog, correction, database, filestore, server, …)
// wraps its native errors into *errs.Error before returning them to callers.
// Callers use the Is* predicates to handle errors without importing
// subsystem-specific packages.
//
// Usage:
//
//	// In the catalog — wrap native errors:
//	return errs.Wrap(errs.ErrKindSchemaLoad, "introspection failed", dbErr)
//
//	// In a handler — check error kind:
//	if errs.IsRetryExhausted(err) {
//	    http.Error(w, "no valid query produced", http.StatusUnprocessableEntity)
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
// Validation findings are not errors in this sense — they are collected in
// validate.Result. ErrKind covers the fatal and terminal outcomes only.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindSchemaLoad               // catalog construction failed or returned zero tables
	ErrKindCancelled                // caller cancellation or request-level deadline
	ErrKindRetryExhausted           // correction budget consumed without a valid query
	ErrKindRegeneration             // regeneration collaborator failed or timed out
	ErrKindNotFound                 // no rows, no object, no bucket
	ErrKindConnectionFailed         // cannot reach a backend
	ErrKindTimeout                  // context deadline on a backend call
	ErrKindQueryFailed              // SQL execution or storage operation error
	ErrKindInvalidInput             // bad arguments from the caller
	ErrKindPermissionDenied         // access denied / auth failure
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindSchemaLoad:
		return "schema_load"
	case ErrKindCancelled:
		return "cancelled"
	case ErrKindRetryExhausted:
		return "retry_exhausted"
	case ErrKindRegeneration:
		return "regeneration"
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindPermissionDenied:
		return "permission_denied"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all assistant subsystems.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original lower-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsSchemaLoad reports whether err represents a failed catalog construction.
func IsSchemaLoad(err error) bool {
	return kindOf(err) == ErrKindSchemaLoad
}

// IsCancelled reports whether err was caused by caller cancellation or a
// request-level deadline observed between correction attempts.
func IsCancelled(err error) bool {
	return kindOf(err) == ErrKindCancelled
}

// IsRetryExhausted reports whether err means the correction budget ran out
// without producing a valid query.
func IsRetryExhausted(err error) bool {
	return kindOf(err) == ErrKindRetryExhausted
}

// IsRegeneration reports whether err came from the regeneration collaborator.
func IsRegeneration(err error) bool {
	return kindOf(err) == ErrKindRegeneration
}

// IsNotFound reports whether err represents a "not found" result
// (no rows, missing object, unknown bucket, …).
func IsNotFound(err error) bool {
	return kindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err was caused by a deadline on a backend call.
func IsTimeout(err error) bool {
	return kindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return kindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is a backend operation failure
// (SQL execution error, storage I/O error, …).
func IsQueryFailed(err error) bool {
	return kindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return kindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return kindOf(err) == ErrKindPermissionDenied
}

// kindOf extracts the ErrKind from any error in the chain.
func kindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
