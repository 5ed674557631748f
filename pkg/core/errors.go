package core

import (
	"context"
	"errors"
	"fmt"
)

// FailureKind classifies why a step, test, or suite failed.
type FailureKind int

const (
	KindUnknown   FailureKind = iota // Not classified
	KindAssertion                    // Explicit check evaluated false
	KindTimeout                      // Poller or watchdog deadline expired
	KindExecutor                     // Action executor returned an error
	KindHook                         // Lifecycle hook failed
	KindCanceled                     // Run canceled from outside
)

// String returns the string representation of FailureKind
func (k FailureKind) String() string {
	switch k {
	case KindAssertion:
		return "assertion"
	case KindTimeout:
		return "timeout"
	case KindExecutor:
		return "executor"
	case KindHook:
		return "hook"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Failure represents a structured test failure with a kind and message
type Failure struct {
	Kind    FailureKind
	Message string // Human-readable message naming the step and target involved
	Cause   error  // Underlying error
}

// Error implements the error interface
func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Cause)
	}
	return f.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (f *Failure) Unwrap() error {
	return f.Cause
}

// WithCause returns a copy of the failure with the given cause
func (f *Failure) WithCause(cause error) *Failure {
	return &Failure{
		Kind:    f.Kind,
		Message: f.Message,
		Cause:   cause,
	}
}

// NewFailure creates a Failure of the given kind with a formatted message
func NewFailure(kind FailureKind, format string, args ...interface{}) *Failure {
	return &Failure{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// KindOf classifies an arbitrary error. Structured failures report their own
// kind; context errors map to timeout/canceled; anything else is treated as
// an executor breakdown.
func KindOf(err error) FailureKind {
	if err == nil {
		return KindUnknown
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	return KindExecutor
}
