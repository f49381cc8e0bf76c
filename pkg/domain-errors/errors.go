// Package errors provides coded domain errors. Services wrap causes with a
// stable code; transports map codes to their own status vocabulary without
// inspecting error strings.
package errors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error. Codes are stable API surface; messages are
// not.
type Code string

const (
	// CodeInvalidInput marks input rejected at a parse boundary.
	CodeInvalidInput Code = "invalid_input"
	// CodeValidation marks a request body that parsed but failed validation.
	CodeValidation Code = "validation_failed"
	// CodeBadRequest marks a malformed request.
	CodeBadRequest Code = "bad_request"
	// CodeUnauthorized marks missing or unverifiable credentials.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks an authenticated caller without the needed grant.
	CodeForbidden Code = "forbidden"
	// CodeNotFound marks a missing entity.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a request that lost to concurrent state.
	CodeConflict Code = "conflict"
	// CodeInvariantViolation marks a state transition the domain forbids.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeUnavailable marks a dependency that could not be reached. Callers
	// may retry.
	CodeUnavailable Code = "unavailable"
	// CodeTimeout marks a dependency that did not answer in time.
	CodeTimeout Code = "timeout"
	// CodeInternal marks everything else. Details stay server-side.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error, optionally wrapping a cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// New creates a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to a cause. A nil cause returns nil so
// call sites can wrap unconditionally.
func Wrap(cause error, code Code, message string) error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: cause}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var domainErr *Error
	for errors.As(err, &domainErr) {
		if domainErr.Code == code {
			return true
		}
		err = domainErr.Cause
		domainErr = nil
	}
	return false
}

// Is is an alias of HasCode for call sites that read better with it.
func Is(err error, code Code) bool { return HasCode(err, code) }

// GetCode returns the outermost code in the chain, or CodeInternal when the
// error is not a domain error.
func GetCode(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

// Message returns the outermost domain message, or the plain error text for
// foreign errors.
func Message(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
