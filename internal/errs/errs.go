// Package errs defines the error kinds surfaced by the hub and its tools.
//
// Every failure that reaches a client carries a Kind so agents can reason
// about it. Kinds are matched with errors.Is against the exported sentinels:
//
//	if errors.Is(err, errs.ErrReferenceConfigMissing) { ... }
package errs

import (
	"errors"
	"fmt"
)

// Kind names a class of failure.
type Kind string

const (
	KindInvalidCatalogName     Kind = "InvalidCatalogName"
	KindInvalidReference       Kind = "InvalidReference"
	KindReferenceConfigInvalid Kind = "ReferenceConfigInvalid"
	KindNoDatabookFound        Kind = "NoDatabookFound"
	KindReferenceConfigMissing Kind = "ReferenceConfigMissing"
	KindModelSourceBuildError  Kind = "ModelSourceBuildError"
	KindToolBindingError       Kind = "ToolBindingError"
	KindToolExecutionError     Kind = "ToolExecutionError"
	KindInvalidArgument        Kind = "InvalidArgument"
)

// Sentinels for errors.Is. They only carry a kind.
var (
	ErrInvalidCatalogName     = &Error{Kind: KindInvalidCatalogName}
	ErrInvalidReference       = &Error{Kind: KindInvalidReference}
	ErrReferenceConfigInvalid = &Error{Kind: KindReferenceConfigInvalid}
	ErrNoDatabookFound        = &Error{Kind: KindNoDatabookFound}
	ErrReferenceConfigMissing = &Error{Kind: KindReferenceConfigMissing}
	ErrModelSourceBuild       = &Error{Kind: KindModelSourceBuildError}
	ErrToolBinding            = &Error{Kind: KindToolBindingError}
	ErrToolExecution          = &Error{Kind: KindToolExecutionError}
	ErrInvalidArgument        = &Error{Kind: KindInvalidArgument}
)

// Error is a kinded error with an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements error.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// New creates a kinded error.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a kinded error around err.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain.
// Errors without a kind are reported as ToolExecutionError.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindToolExecutionError
}

// Message returns the message of the outermost *Error in err's chain, or the
// plain error text.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Message == "" && e.Err != nil {
			return e.Err.Error()
		}
		if e.Err != nil {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// Failure is the payload returned to tool callers when a call fails.
type Failure struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Envelope wraps err as a failure payload.
func Envelope(err error) map[string]Failure {
	return map[string]Failure{
		"error": {Kind: KindOf(err), Message: Message(err)},
	}
}
