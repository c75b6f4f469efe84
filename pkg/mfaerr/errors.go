// Package mfaerr provides the unified error type used across every layer of
// the MFA engine (domain, builder, solver, analysis, infrastructure,
// interfaces), so that failures surface with a stable Code, a human message,
// optional structured detail, and a wrapped cause.
package mfaerr

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// stackDepth is the maximum number of frames captured per error.
const stackDepth = 32

// captureStack returns a formatted call-stack string starting two frames
// above the caller. Every New, Wrap and constructor call captures it; there
// is no build option that turns it off.
func captureStack(skip int) string {
	pcs := make([]uintptr, stackDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		f, more := frames.Next()
		if !strings.Contains(f.File, "runtime/") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", f.File, f.Line, f.Function)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

// Error is the single structured error type used throughout the MFA engine.
// It satisfies the standard error interface and supports Go 1.13+ wrapping so
// errors.Is/errors.As/errors.Unwrap work across layers.
type Error struct {
	Code    Code
	Message string
	Detail  string
	Cause   error
	Stack   string
}

// Error implements the standard error interface.
// Format: "[<code_name>(<code_int>)] <message>: <detail>".
func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s(%d)] %s: %s", e.Code.String(), int(e.Code), e.Message, e.Detail)
	}
	return fmt.Sprintf("[%s(%d)] %s", e.Code.String(), int(e.Code), e.Message)
}

// Unwrap returns the underlying cause, enabling errors.Is/errors.As to
// traverse the chain without additional boilerplate at call sites.
func (e *Error) Unwrap() error { return e.Cause }

// WithDetail returns a shallow copy of e with Detail set. Safe to call on nil.
func (e *Error) WithDetail(detail string) *Error {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithCause returns a shallow copy of e with Cause set to err.
func (e *Error) WithCause(err error) *Error {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Cause = err
	return &clone
}

// New constructs a fresh Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message, Stack: captureStack(1)}
}

// Wrap constructs an Error that wraps an existing error. Returns nil if err
// is nil, so it can be used inline: `return mfaerr.Wrap(err, ..., "...")`.
// When code is CodeUnknown and err is already an *Error, the original code is
// preserved so cross-layer propagation never loses the domain classification.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	if code == CodeUnknown {
		var ae *Error
		if errors.As(err, &ae) {
			code = ae.Code
		}
	}
	return &Error{Code: code, Message: message, Cause: err, Stack: captureStack(1)}
}

// IsCode reports whether any error in err's chain is an *Error with the given code.
func IsCode(err error, code Code) bool {
	var ae *Error
	for err != nil {
		if errors.As(err, &ae) && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsNotFound reports whether err's chain contains any *_NOT_FOUND code.
func IsNotFound(err error) bool {
	var ae *Error
	for err != nil {
		if errors.As(err, &ae) {
			switch ae.Code {
			case CodeNotFound, CodeCompoundNotFound, CodeReactionNotFound,
				CodeGeneNotFound, CodeCompartmentNotFound, CodeConstraintNotFound:
				return true
			}
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode extracts the Code from the first *Error found in err's chain.
func GetCode(err error) Code {
	if err == nil {
		return CodeOK
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// NotFound constructs a CodeNotFound Error.
func NotFound(message string) *Error { return &Error{Code: CodeNotFound, Message: message, Stack: captureStack(1)} }

// InvalidParam constructs a CodeInvalidParam Error.
func InvalidParam(message string) *Error {
	return &Error{Code: CodeInvalidParam, Message: message, Stack: captureStack(1)}
}

// Internal constructs a CodeInternal Error.
func Internal(message string) *Error {
	return &Error{Code: CodeInternal, Message: message, Stack: captureStack(1)}
}

// Conflict constructs a CodeConflict Error.
func Conflict(message string) *Error {
	return &Error{Code: CodeConflict, Message: message, Stack: captureStack(1)}
}

// Timeout constructs a CodeTimeout Error.
func Timeout(message string) *Error {
	return &Error{Code: CodeTimeout, Message: message, Stack: captureStack(1)}
}
