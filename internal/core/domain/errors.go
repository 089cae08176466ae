package domain

import (
	"errors"
	"fmt"
)

// Code classifies an Error so callers can decide whether to correct input,
// give up, or retry the whole operation.
type Code string

const (
	// CodeValidation marks input rejected before any write happened.
	CodeValidation Code = "validation"
	// CodeConflict marks an operation incompatible with the current state.
	CodeConflict Code = "conflict"
	// CodeNotFound marks a missing campaign, iteration, batch or rule.
	CodeNotFound Code = "not_found"
	// CodeTransient marks a storage or lock failure. The operation was rolled
	// back and may be retried as a whole.
	CodeTransient Code = "transient"
)

// Error is the coded error returned by the core.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// NewError returns a coded error without a cause.
func NewError(code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// WrapError returns a coded error carrying err as its cause.
func WrapError(code Code, msg string, err error) *Error {
	return &Error{Code: code, Msg: msg, Err: err}
}

func Validationf(format string, args ...any) *Error {
	return NewError(CodeValidation, fmt.Sprintf(format, args...))
}

func Conflictf(format string, args ...any) *Error {
	return NewError(CodeConflict, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) *Error {
	return NewError(CodeNotFound, fmt.Sprintf(format, args...))
}

// CodeOf reports the code of the first *Error in err's chain. Errors that
// carry no code are reported as transient.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeTransient
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == code
}
