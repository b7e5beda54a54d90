package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a pipeline failure. Stage code converts every error it
// produces into one of these kinds before returning to the orchestrator.
type Kind string

const (
	KindTransientProvider     Kind = "transient_provider"
	KindPermanentProvider     Kind = "permanent_provider"
	KindInvalidClassification Kind = "invalid_classification"
	KindSchemaViolation       Kind = "schema_violation"
	KindDuplicateRequest      Kind = "duplicate_request"
	KindStoreUnavailable      Kind = "store_unavailable"
	KindInternal              Kind = "internal"
)

// Common errors
var (
	ErrMissingAPIKey       = New(KindInternal, "API key is required")
	ErrEmptyTranscript     = New(KindPermanentProvider, "transcript is empty")
	ErrEmptyResponse       = New(KindTransientProvider, "provider returned an empty response")
	ErrDuplicateRequest    = New(KindDuplicateRequest, "request already processed or in flight")
	ErrRecordNotFound      = New(KindInternal, "record not found")
	ErrInvalidIdentity     = New(KindPermanentProvider, "request identity is invalid")
	ErrUnsupportedCategory = New(KindInternal, "unsupported category")
)

// Error represents a classified error
type Error struct {
	kind    Kind
	message string
	cause   error
}

// New creates a new error of the given kind
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Newf creates a new formatted error
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a kind and additional context
func Wrap(err error, kind Kind, message string) error {
	if err == nil {
		return nil
	}
	return &Error{kind: kind, message: message, cause: err}
}

// Wrapf wraps an error with a kind and formatted context
func Wrapf(err error, kind Kind, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{kind: kind, message: fmt.Sprintf(format, args...), cause: err}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Kind returns the error classification
func (e *Error) Kind() Kind {
	return e.kind
}

// Is matches errors with the same kind and message
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.kind == t.kind && e.message == t.message
}

// Transient wraps err as a retriable provider failure.
func Transient(err error, op string) error {
	return Wrap(err, KindTransientProvider, op)
}

// Permanent wraps err as a non-retriable provider failure.
func Permanent(err error, op string) error {
	return Wrap(err, KindPermanentProvider, op)
}

// StoreUnavailable wraps a result store failure.
func StoreUnavailable(err error, op string) error {
	return Wrap(err, KindStoreUnavailable, op)
}

// SchemaViolation reports the first constraint a structured output broke.
func SchemaViolation(field, reason string) error {
	return Newf(KindSchemaViolation, "%s: %s", field, reason)
}

// KindOf returns the outermost kind found in the chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsRetriable reports whether the retry loop may run the operation again.
func IsRetriable(err error) bool {
	switch KindOf(err) {
	case KindTransientProvider, KindStoreUnavailable:
		return true
	default:
		return false
	}
}

// RequiredField returns an error for missing required fields
func RequiredField(field string) error {
	return SchemaViolation(field, "is required")
}

// InvalidField returns an error for invalid field values
func InvalidField(field string, reason string) error {
	return SchemaViolation(field, "is invalid: "+reason)
}
