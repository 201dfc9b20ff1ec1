package aggregates

import (
	"errors"
	"strings"
)

// ErrorCode is the stable, transport-neutral class of an ad pack failure.
type ErrorCode string

const (
	CodeValidation          ErrorCode = "validation"
	CodeNotFound            ErrorCode = "not_found"
	CodeForbidden           ErrorCode = "forbidden"
	CodeConflict            ErrorCode = "conflict"
	CodeInvalidTransition   ErrorCode = "invalid_transition"
	CodeInvariantViolation  ErrorCode = "invariant_violation"
	CodePreconditionFailed  ErrorCode = "precondition_failed"
	CodeCollaboratorFailure ErrorCode = "collaborator_failure"
	CodeRetryable           ErrorCode = "retryable"
	CodeInternal            ErrorCode = "internal"
)

// Error carries a code, the operation that failed and its cause.
// Reason and Missing are set only for CodeInvalidTransition.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Reason  string
	Missing []string
	Cause   error
}

// Error renders "op: message (code)", dropping empty parts.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		if e.Message != "" {
			b.WriteString(": ")
		}
	}
	b.WriteString(e.Message)
	if b.Len() == 0 {
		return string(e.Code)
	}
	b.WriteString(" (" + string(e.Code) + ")")
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{Code: code, Op: strings.TrimSpace(op), Message: strings.TrimSpace(message), Cause: cause}
}

// Wrap classifies err under code, reusing its text as the message.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

// InvalidTransition reports a refused lifecycle move. reason is one of the
// adpack Reason* constants; missing lists absent shot types.
func InvalidTransition(op, reason string, missing []string, cause error) error {
	reason = strings.TrimSpace(reason)
	msg := reason
	if cause != nil {
		msg = cause.Error()
	}
	e := NewError(CodeInvalidTransition, op, msg, cause).(*Error)
	e.Reason = reason
	e.Missing = append([]string(nil), missing...)
	return e
}

func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code && code != ""
}

// CodeOf returns "" when err carries no *Error.
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.Code
	}
	return ""
}
