// Package domainerrors defines the code-based error type every service in
// this module returns. Stores surface sentinel errors (pkg/platform/sentinel)
// for infrastructure facts; services translate those into coded domain errors
// at the boundary so transports can map them onto status codes without
// inspecting wrapped causes.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error. The set mirrors the failure taxonomy of the
// verification engine: validation, uniqueness conflicts, unknown entities,
// missing admin context, dependency failures, and the internal catch-all.
type Code string

const (
	// CodeValidation covers missing or malformed required fields.
	CodeValidation Code = "validation_error"
	// CodeConflict covers unique-constraint violations (duplicate email or
	// national ID).
	CodeConflict Code = "duplicate_key"
	// CodeNotFound covers unknown customers and signatures.
	CodeNotFound Code = "not_found"
	// CodeUnauthorized covers missing or invalid acting-admin context.
	CodeUnauthorized Code = "unauthorized"
	// CodeEmbeddingUnavailable covers embedding provider failures: model not
	// loaded, undecodable image, or the inference service being unreachable.
	CodeEmbeddingUnavailable Code = "embedding_unavailable"
	// CodeArtifactMissing covers a signature row whose stored image artifact
	// cannot be found. This is a corruption fact, not a transient failure.
	CodeArtifactMissing Code = "artifact_missing"
	// CodeNoReferenceSignature covers verification against a customer with
	// zero enrolled signatures.
	CodeNoReferenceSignature Code = "no_reference_signature"
	// CodeInternal is the catch-all for unexpected failures.
	CodeInternal Code = "internal_error"
	// CodeTimeout covers context cancellation and deadline expiry.
	CodeTimeout Code = "timeout"
)

// Error is a domain error with a machine-readable code and a human-readable
// message. It optionally wraps an underlying cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error { return e.cause }

// Is matches two domain errors by code so errors.Is works across instances.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// New constructs a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. The cause remains
// reachable through errors.Is / errors.As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) is a domain error with
// the given code.
func HasCode(err error, code Code) bool {
	var domainErr *Error
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code == code
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// non-domain errors so callers always have something to map.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

// MessageOf extracts the human-readable message from err. Non-domain errors
// yield a generic message so internals never leak to callers.
func MessageOf(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return "internal error"
}
