// Package errors defines structured error types with machine-readable
// codes for the reversal application.
//
// Leaf packages such as [github.com/paradoxlab/reversal/pkg/simpson]
// return plain sentinel errors; the pipeline and CLI layers wrap them
// with a [Code] so that callers (and the exit-code mapping in the CLI)
// can react to the category of failure rather than its message.
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error category.
type Code string

const (
	// CodeInvalidColumn marks a column with an out-of-range height or width.
	CodeInvalidColumn Code = "INVALID_COLUMN"
	// CodeInvalidLayer marks a structurally broken layer (group mismatch, empty).
	CodeInvalidLayer Code = "INVALID_LAYER"
	// CodeInvalidDepth marks a tree depth outside the supported range.
	CodeInvalidDepth Code = "INVALID_DEPTH"
	// CodeInvalidConstants marks splitter constants that violate the
	// ordering or range requirements.
	CodeInvalidConstants Code = "INVALID_CONSTANTS"
	// CodeInvalidFormat marks an unknown or unsupported output format.
	CodeInvalidFormat Code = "INVALID_FORMAT"
	// CodeInvalidScenario marks a scenario file that fails validation.
	CodeInvalidScenario Code = "INVALID_SCENARIO"
	// CodePrecisionLoss marks a denormalization that could not represent
	// every proportion exactly under the configured denominator cap.
	CodePrecisionLoss Code = "PRECISION_LOSS"
	// CodeNotFound marks a missing resource (cache entry, layer index).
	CodeNotFound Code = "NOT_FOUND"
	// CodeFileNotFound marks a missing input file.
	CodeFileNotFound Code = "FILE_NOT_FOUND"
	// CodeInternal marks an unexpected internal failure.
	CodeInternal Code = "INTERNAL_ERROR"
	// CodeUnsupported marks a requested operation the build does not support.
	CodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error carrying a [Code], a human-readable
// message, and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.Cause }

// New creates a structured error with the given code and message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message. It returns nil when err
// is nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// Is reports whether err (or anything it wraps) carries the given code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the code from err, returning [CodeInternal] when err
// carries no structured code.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// UserMessage returns the human-readable message without the code
// prefix or cause chain, suitable for terminal output.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
