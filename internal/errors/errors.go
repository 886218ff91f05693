// Package errors provides the coded error taxonomy shared by every sortingshop component.
//
// Usage:
//
//	// In the core - return typed errors
//	if len(s.lastToggle) == 0 {
//	    return nil, errors.ErrNoPriorCommand
//	}
//
//	// In presentation adapters - check with errors.Is
//	if errors.Is(err, errors.ErrUnknownCommand) {
//	    console.Warn(err.Error())
//	}
//
//	// Or use the Code directly for switch statements
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeMetadata:
//	        report.Fail(file, domainErr)
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeMetadata           Code = "METADATA"
	CodeConfig             Code = "CONFIG"
	CodeTagsetParse        Code = "TAGSET_PARSE"
	CodeUnknownCommand     Code = "UNKNOWN_COMMAND"
	CodeNoPriorCommand     Code = "NO_PRIOR_COMMAND"
	CodeNotFound           Code = "NOT_FOUND"
	CodeCollisionExhausted Code = "COLLISION_EXHAUSTED"
	CodeValidation         Code = "VALIDATION"
	CodeInternal           Code = "INTERNAL"
)

// HTTPStatus returns the status code the HTTP control surface answers with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnknownCommand, CodeNoPriorCommand, CodeValidation, CodeTagsetParse:
		return http.StatusBadRequest
	case CodeCollisionExhausted:
		return http.StatusConflict
	case CodeMetadata:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrMetadata           = &Error{Code: CodeMetadata, Message: "metadata backend failure"}
	ErrConfig             = &Error{Code: CodeConfig, Message: "invalid configuration"}
	ErrTagsetParse        = &Error{Code: CodeTagsetParse, Message: "malformed tagset line"}
	ErrUnknownCommand     = &Error{Code: CodeUnknownCommand, Message: "unknown command"}
	ErrNoPriorCommand     = &Error{Code: CodeNoPriorCommand, Message: "no tags toggled yet"}
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrCollisionExhausted = &Error{Code: CodeCollisionExhausted, Message: "no free file name left"}
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation error"}
	ErrInternal           = &Error{Code: CodeInternal, Message: "internal error"}
)

// Metadataf creates a metadata backend error with formatted message.
func Metadataf(format string, args ...any) *Error {
	return &Error{Code: CodeMetadata, Message: fmt.Sprintf(format, args...)}
}

// Config creates a configuration error.
func Config(msg string) *Error {
	return &Error{Code: CodeConfig, Message: msg}
}

// Configf creates a configuration error with formatted message.
func Configf(format string, args ...any) *Error {
	return &Error{Code: CodeConfig, Message: fmt.Sprintf(format, args...)}
}

// TagsetParsef creates a tagset parse warning with formatted message.
func TagsetParsef(format string, args ...any) *Error {
	return &Error{Code: CodeTagsetParse, Message: fmt.Sprintf(format, args...)}
}

// UnknownCommandf creates an unknown command error with formatted message.
func UnknownCommandf(format string, args ...any) *Error {
	return &Error{Code: CodeUnknownCommand, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// CollisionExhaustedf creates a collision error with formatted message.
func CollisionExhaustedf(format string, args ...any) *Error {
	return &Error{Code: CodeCollisionExhausted, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}
