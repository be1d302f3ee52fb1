package server

import (
	"errors"
	"fmt"
)

type ErrorCode uint

const (
	ErrUnknown ErrorCode = iota
	ErrInvalidInput
	ErrNoCandidateFound
	ErrNoPathFound
	ErrGraphUnavailable
	ErrExternalServiceFailure
	ErrInternalServerError
)

// String wire code sent to clients as error_code.
func (c ErrorCode) String() string {
	switch c {
	case ErrInvalidInput:
		return "INVALID_INPUT"
	case ErrNoCandidateFound:
		return "NO_CANDIDATE_FOUND"
	case ErrNoPathFound:
		return "NO_PATH_FOUND"
	case ErrGraphUnavailable:
		return "GRAPH_UNAVAILABLE"
	case ErrExternalServiceFailure:
		return "EXTERNAL_SERVICE_FAILURE"
	case ErrInternalServerError:
		return "INTERNAL_ERROR"
	default:
		return "UNKNOWN"
	}
}

type Error struct {
	orig error
	msg  string
	code ErrorCode
}

func (e *Error) Error() string {
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.orig
}

func (e *Error) Code() ErrorCode {
	return e.code
}

// Message user facing message without the wrapped cause.
func (e *Error) Message() string {
	return e.msg
}

func WrapErrorf(orig error, code ErrorCode, format string, a ...interface{}) error {
	return &Error{
		code: code,
		orig: orig,
		msg:  fmt.Sprintf(format, a...),
	}
}

func NewErrorf(code ErrorCode, format string, a ...interface{}) error {
	return WrapErrorf(nil, code, format, a...)
}

// CodeOf ErrUnknown when err carries no *Error.
func CodeOf(err error) ErrorCode {
	var ierr *Error
	if errors.As(err, &ierr) {
		return ierr.Code()
	}
	return ErrUnknown
}

// MessageOf user facing message of err, falling back to err.Error().
func MessageOf(err error) string {
	var ierr *Error
	if errors.As(err, &ierr) {
		return ierr.Message()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
