// Package apperr classifies failures into the four kinds the HTTP layer
// reports: not found, conflict, validation and internal.
package apperr

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeNotFound   Code = "not_found"
	CodeConflict   Code = "conflict"
	CodeValidation Code = "validation"
	CodeInternal   Code = "internal"
)

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

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error carrying the same code, so sentinel values compare by kind and message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && (t.Message == "" || e.Message == t.Message)
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func NotFound(kind, id string) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", kind, id)}
}

func Conflict(message string) *Error {
	return &Error{Code: CodeConflict, Message: message}
}

func Validation(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func Internal(err error, message string) *Error {
	return Wrap(err, CodeInternal, message)
}

// CodeOf returns the code of the outermost *Error in the chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// MessageOf returns the user-facing message of the outermost *Error in the chain.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

func IsNotFound(err error) bool   { return CodeOf(err) == CodeNotFound }
func IsConflict(err error) bool   { return CodeOf(err) == CodeConflict }
func IsValidation(err error) bool { return CodeOf(err) == CodeValidation }
