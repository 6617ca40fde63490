// Package domainerrors carries coded errors across layers.
//
// Services return *Error values (directly or wrapped) so transports can map a
// stable Code to a status without inspecting messages.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error category.
type Code string

const (
	CodeBadRequest     Code = "bad_request"
	CodeValidation     Code = "validation_error"
	CodeSchema         Code = "schema_error"
	CodeConflict       Code = "conflict"
	CodeNotFound       Code = "not_found"
	CodeTenantNotFound Code = "tenant_not_found"
	CodeStorage        Code = "storage_error"
	CodeTimeout        Code = "timeout"
	CodeInternal       Code = "internal_error"
)

// Error is a coded domain error. Err, when set, is the underlying cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeCarrier is implemented by typed errors outside this package that map
// onto a domain code (validation, conflict, schema errors).
type CodeCarrier interface {
	DomainCode() Code
}

// CodeOf returns the first code found in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		if de, ok := cur.(*Error); ok {
			return de.Code
		}
		if cc, ok := cur.(CodeCarrier); ok {
			return cc.DomainCode()
		}
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		if de, ok := cur.(*Error); ok && de.Code == code {
			return true
		}
		if cc, ok := cur.(CodeCarrier); ok && cc.DomainCode() == code {
			return true
		}
	}
	return false
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}
