package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidInput    = errors.New("invalid input")
	ErrCreditExhausted = errors.New("credit exhausted")
	ErrProviderFailure = errors.New("provider failure")
	ErrTimeout         = errors.New("timed out")
	ErrInternal        = errors.New("internal error")
	ErrAlreadyApplied  = errors.New("suggestion already applied")
	ErrNotEligible     = errors.New("product not eligible for auto-approval")
)

// ErrorKind classifies failures surfaced to callers of the engine.
type ErrorKind string

const (
	KindInvalidInput    ErrorKind = "invalid_input"
	KindCreditExhausted ErrorKind = "credit_exhausted"
	KindProviderError   ErrorKind = "provider_error"
	KindTimeout         ErrorKind = "timeout"
	KindInternal        ErrorKind = "internal"
)

// Error is a classified failure. It matches the sentinel for its kind via errors.Is.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target == sentinelFor(e.Kind)
}

// NewError builds a classified error with a message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError classifies err under kind, keeping it in the chain.
func WrapError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// InvalidInput is shorthand for NewError(KindInvalidInput, ...).
func InvalidInput(format string, args ...any) *Error {
	return NewError(KindInvalidInput, format, args...)
}

// KindOf classifies any error. Unknown errors are internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrCreditExhausted):
		return KindCreditExhausted
	case errors.Is(err, ErrProviderFailure):
		return KindProviderError
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}
	return KindInternal
}

// IsRetryable reports whether the caller may retry the same request.
func IsRetryable(err error) bool {
	return KindOf(err) == KindTimeout
}

// FromContext converts a context error into a classified one.
func FromContext(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: "deadline exceeded", Err: err}
	}
	return &Error{Kind: KindInternal, Message: "cancelled", Err: err}
}

func sentinelFor(kind ErrorKind) error {
	switch kind {
	case KindInvalidInput:
		return ErrInvalidInput
	case KindCreditExhausted:
		return ErrCreditExhausted
	case KindProviderError:
		return ErrProviderFailure
	case KindTimeout:
		return ErrTimeout
	default:
		return ErrInternal
	}
}
