package database

import (
	"errors"
	"fmt"
)

// DBError is the one error type this layer returns. Drivers translate their
// native failures into it before returning, so callers branch on Kind without
// importing driver packages.
type DBError struct {
	Kind    ErrKind
	Message string
	Cause   error // native driver error, kept for logging
}

// ErrKind classifies a warehouse failure.
type ErrKind int

const (
	ErrKindUnknown ErrKind = iota

	// ErrKindNotFound: no rows matched.
	ErrKindNotFound

	// ErrKindConnectionFailed: could not reach or authenticate.
	ErrKindConnectionFailed

	// ErrKindTimeout: deadline or cancellation hit mid-operation.
	ErrKindTimeout

	// ErrKindQueryFailed: the server rejected or aborted the statement.
	ErrKindQueryFailed

	// ErrKindInvalidInput: the caller passed bad arguments.
	ErrKindInvalidInput
)

func (k ErrKind) String() string {
	switch k {
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
	default:
		return "unknown"
	}
}

func (e *DBError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
}

func (e *DBError) Unwrap() error {
	return e.Cause
}

func errQuery(msg string, cause error) *DBError {
	return &DBError{Kind: ErrKindQueryFailed, Message: msg, Cause: cause}
}

func errInvalidInput(msg string) *DBError {
	return &DBError{Kind: ErrKindInvalidInput, Message: msg}
}

// hasKind walks the chain for a DBError of the given kind.
func hasKind(err error, k ErrKind) bool {
	var dbErr *DBError
	return errors.As(err, &dbErr) && dbErr.Kind == k
}

// IsNotFound reports whether err is a "no rows" result.
func IsNotFound(err error) bool { return hasKind(err, ErrKindNotFound) }

// IsTimeout reports whether err came from a deadline or cancellation.
func IsTimeout(err error) bool { return hasKind(err, ErrKindTimeout) }

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool { return hasKind(err, ErrKindConnectionFailed) }

// IsQueryFailed reports whether err is a server-side statement failure.
func IsQueryFailed(err error) bool { return hasKind(err, ErrKindQueryFailed) }

// IsInvalidInput reports whether err was caused by bad caller arguments.
func IsInvalidInput(err error) bool { return hasKind(err, ErrKindInvalidInput) }
