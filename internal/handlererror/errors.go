// Package handlererror defines the closed taxonomy of errors a resource
// handler may raise and the mechanical conversion of any error into a
// terminal progress event.
//
// Every member of Code maps 1:1 to a constructor below. An error escaping a
// handler that is not a *Error is wrapped as InternalFailure by the
// invocation pipeline (see internal/pipeline) rather than by this package,
// since only the pipeline knows the original exception's message.
package handlererror

import (
	"errors"
	"fmt"
)

// Code is the closed set of handler error codes from the data model.
type Code string

const (
	NotUpdatable             Code = "NotUpdatable"
	InvalidRequest           Code = "InvalidRequest"
	InvalidTypeConfiguration Code = "InvalidTypeConfiguration"
	AccessDenied             Code = "AccessDenied"
	InvalidCredentials       Code = "InvalidCredentials"
	AlreadyExists            Code = "AlreadyExists"
	NotFound                 Code = "NotFound"
	ResourceConflict         Code = "ResourceConflict"
	Throttling               Code = "Throttling"
	ServiceLimitExceeded     Code = "ServiceLimitExceeded"
	NotStabilized            Code = "NotStabilized"
	GeneralServiceException Code = "GeneralServiceException"
	ServiceInternalError     Code = "ServiceInternalError"
	NetworkFailure           Code = "NetworkFailure"
	InternalFailure          Code = "InternalFailure"
)

// Error is a handler error carrying one of the Code values above. Handlers
// return it (or a sentinel from the constructors below) wherever spec.md's
// error taxonomy says a terminal error applies.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds an *Error with an arbitrary code, for the rare case a caller
// needs one not covered by the named constructors below.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func NewNotUpdatable(format string, args ...any) *Error {
	return New(NotUpdatable, format, args...)
}

func NewInvalidRequest(format string, args ...any) *Error {
	return New(InvalidRequest, format, args...)
}

func NewInvalidTypeConfiguration(format string, args ...any) *Error {
	return New(InvalidTypeConfiguration, format, args...)
}

func NewAccessDenied(format string, args ...any) *Error {
	return New(AccessDenied, format, args...)
}

func NewInvalidCredentials(format string, args ...any) *Error {
	return New(InvalidCredentials, format, args...)
}

func NewAlreadyExists(format string, args ...any) *Error {
	return New(AlreadyExists, format, args...)
}

func NewNotFound(format string, args ...any) *Error {
	return New(NotFound, format, args...)
}

func NewResourceConflict(format string, args ...any) *Error {
	return New(ResourceConflict, format, args...)
}

func NewThrottling(format string, args ...any) *Error {
	return New(Throttling, format, args...)
}

func NewServiceLimitExceeded(format string, args ...any) *Error {
	return New(ServiceLimitExceeded, format, args...)
}

func NewNotStabilized(format string, args ...any) *Error {
	return New(NotStabilized, format, args...)
}

func NewGeneralServiceException(format string, args ...any) *Error {
	return New(GeneralServiceException, format, args...)
}

func NewServiceInternalError(format string, args ...any) *Error {
	return New(ServiceInternalError, format, args...)
}

func NewNetworkFailure(format string, args ...any) *Error {
	return New(NetworkFailure, format, args...)
}

func NewInternalFailure(format string, args ...any) *Error {
	return New(InternalFailure, format, args...)
}

// As extracts a *Error from any error, unwrapping %w chains so a coercion
// failure wrapped with additional context (e.g. "field %q: %w") is still
// recognized as an InvalidRequest by the pipeline's error mapper.
func As(err error) (*Error, bool) {
	var he *Error
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}
