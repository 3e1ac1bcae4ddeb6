package errors

import (
	"errors"
	"fmt"
)

var (
	ErrToolNotFound      = errors.New("tool not found")
	ErrInvalidTarget     = errors.New("invalid target")
	ErrUnsupportedFormat = errors.New("unsupported report format")
	ErrNoToolsRequested  = errors.New("no tools requested")
)

// ValidationError is returned for bad targets or malformed scan requests.
// It is fatal: nothing has been executed when it is raised.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s (%q): %s", e.Field, e.Value, e.Message)
}

func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ToolUnavailableError marks a requested tool whose binary could not be
// found or did not answer a version probe. Non-fatal: the tool is skipped.
type ToolUnavailableError struct {
	ToolName string
	Err      error
}

func (e *ToolUnavailableError) Error() string {
	return fmt.Sprintf("tool %s unavailable: %v", e.ToolName, e.Err)
}

func (e *ToolUnavailableError) Unwrap() error {
	return e.Err
}

func NewToolUnavailableError(toolName string, err error) *ToolUnavailableError {
	return &ToolUnavailableError{ToolName: toolName, Err: err}
}

// ProcessTimeoutError is returned when a subprocess exceeds its deadline and
// has been terminated.
type ProcessTimeoutError struct {
	Command string
	Timeout string
}

func (e *ProcessTimeoutError) Error() string {
	return fmt.Sprintf("process %s timed out after %s", e.Command, e.Timeout)
}

// ProcessCancelledError is returned when a subprocess was terminated by an
// external cancellation signal rather than its own deadline.
type ProcessCancelledError struct {
	Command string
}

func (e *ProcessCancelledError) Error() string {
	return fmt.Sprintf("process %s cancelled", e.Command)
}

// ProcessExecutionError carries the exit code and captured stderr of a
// subprocess that exited nonzero or failed to spawn.
type ProcessExecutionError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessExecutionError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("process %s failed (exit %d): %s", e.Command, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("process %s failed (exit %d): %v", e.Command, e.ExitCode, e.Err)
}

func (e *ProcessExecutionError) Unwrap() error {
	return e.Err
}

// ParseError marks a malformed or missing tool output artifact. Adapters
// downgrade it to an empty result plus a logged warning.
type ParseError struct {
	ToolName string
	Path     string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s output %s: %v", e.ToolName, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func NewParseError(toolName, path string, err error) *ParseError {
	return &ParseError{ToolName: toolName, Path: path, Err: err}
}

// UnsupportedFormatError is returned by the report renderer for unknown
// output formats. Fatal to the render call only.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported report format: %s", e.Format)
}

func (e *UnsupportedFormatError) Unwrap() error {
	return ErrUnsupportedFormat
}

// PersistenceError marks a history or project store write failure. Logged,
// never aborts a scan.
type PersistenceError struct {
	Store string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist to %s store: %v", e.Store, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
