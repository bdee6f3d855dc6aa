package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so the service layer can map it to a
// user-facing status without inspecting third-party error types.
type ErrorKind string

const (
	// KindConfiguration indicates missing required input, e.g. no data to
	// bootstrap an index.
	KindConfiguration ErrorKind = "configuration"

	// KindInvalidState indicates an operation invoked out of lifecycle
	// order, e.g. search before load.
	KindInvalidState ErrorKind = "invalid_state"

	// KindNotFound indicates a referenced resource (index directory,
	// session) is absent.
	KindNotFound ErrorKind = "not_found"

	// KindDataIntegrity indicates produced output failed validation.
	KindDataIntegrity ErrorKind = "data_integrity"

	// KindTransient indicates an underlying provider call failed or timed
	// out; callers may retry.
	KindTransient ErrorKind = "transient"

	// KindInternal wraps any other unexpected failure.
	KindInternal ErrorKind = "internal"
)

// Error is the single domain error type crossing core package boundaries.
// Lower-layer failures are wrapped at each public entry point so callers
// never depend on third-party failure types; the root cause is preserved
// for diagnostics via Unwrap.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a domain error of the given kind wrapping an optional cause.
func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// ConfigurationError reports missing required input.
func ConfigurationError(message string, cause error) *Error {
	return NewError(KindConfiguration, message, cause)
}

// InvalidStateError reports an operation invoked out of lifecycle order.
func InvalidStateError(message string) *Error {
	return NewError(KindInvalidState, message, nil)
}

// NotFoundError reports an absent resource.
func NotFoundError(message string, cause error) *Error {
	return NewError(KindNotFound, message, cause)
}

// DataIntegrityError reports output that failed validation.
func DataIntegrityError(message string, cause error) *Error {
	return NewError(KindDataIntegrity, message, cause)
}

// TransientError reports a failed or timed-out provider call.
func TransientError(message string, cause error) *Error {
	return NewError(KindTransient, message, cause)
}

// InternalError wraps an unexpected failure.
func InternalError(message string, cause error) *Error {
	return NewError(KindInternal, message, cause)
}

// KindOf returns the kind carried by err, walking the wrap chain.
// Non-domain errors report KindInternal; a nil error reports "".
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// IsClientError reports whether err should map to a client-facing 4xx
// status: bad input, out-of-order calls, or missing resources.
func IsClientError(err error) bool {
	switch KindOf(err) {
	case KindConfiguration, KindInvalidState, KindNotFound:
		return true
	}
	return false
}
