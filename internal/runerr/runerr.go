// Package runerr defines the engine's error taxonomy. Every failure the
// engine itself can produce carries one of the codes below; backend
// failures are wrapped under CodeAdapterExecutionFailed.
package runerr

import (
	"errors"
	"fmt"
)

// Code categorizes run errors.
type Code string

const (
	// Parse-time codes. Any of these aborts the run before any task executes.
	CodeMalformedScript Code = "MALFORMED_SCRIPT"
	CodeUnknownTask     Code = "UNKNOWN_TASK"
	CodeInvalidOption   Code = "INVALID_OPTION"
	CodeMisplacedInit   Code = "MISPLACED_INIT"

	// Per-task codes. These abort the run at the failing task; the
	// transcript accumulated so far is still compared.
	CodeUnknownFakeID               Code = "UNKNOWN_FAKE_ID"
	CodeForwardReference            Code = "FORWARD_REFERENCE"
	CodeUnresolvedPlaceholder       Code = "UNRESOLVED_PLACEHOLDER"
	CodeUnsupportedOutsideSimulator Code = "UNSUPPORTED_OUTSIDE_SIMULATOR"
	CodeAdapterExecutionFailed      Code = "ADAPTER_EXECUTION_FAILED"

	// Reported only after a full (or aborted) run.
	CodeExpectedOutputMismatch Code = "EXPECTED_OUTPUT_MISMATCH"
)

// RunError is a failure with a taxonomy code and the script position it
// was detected at.
type RunError struct {
	Code    Code
	Message string
	Task    int // task index, -1 when not task-scoped
	Lines   [2]int
	Err     error // wrapped cause, optional
}

func (e *RunError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Task >= 0 {
		return fmt.Sprintf("%s: %s (task %d, lines %d-%d)", e.Code, msg, e.Task, e.Lines[0], e.Lines[1])
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *RunError) Unwrap() error { return e.Err }

// New creates a RunError with no task position.
func New(code Code, format string, args ...any) *RunError {
	return &RunError{Code: code, Message: fmt.Sprintf(format, args...), Task: -1}
}

// Wrap creates a RunError around a cause.
func Wrap(code Code, err error, format string, args ...any) *RunError {
	return &RunError{Code: code, Message: fmt.Sprintf(format, args...), Task: -1, Err: err}
}

// At returns a copy annotated with a task index and line range.
func (e *RunError) At(task, startLine, endLine int) *RunError {
	cp := *e
	cp.Task = task
	cp.Lines = [2]int{startLine, endLine}
	return &cp
}

// CodeOf extracts the taxonomy code from err, or "" when err is not a
// RunError.
func CodeOf(err error) Code {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsParseError reports whether err carries a parse-time code.
func IsParseError(err error) bool {
	switch CodeOf(err) {
	case CodeMalformedScript, CodeUnknownTask, CodeInvalidOption, CodeMisplacedInit:
		return true
	}
	return false
}
