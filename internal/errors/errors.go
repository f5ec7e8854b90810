package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// MalformedOrderSpec indicates a custom order that cannot be used (e.g. two wildcards)
	MalformedOrderSpec ErrorCode = "MALFORMED_ORDER_SPEC"
	// InvalidPath indicates a --path that is a directory or not a Rust source file
	InvalidPath ErrorCode = "INVALID_PATH"
	// ConfigInvalid indicates .sort-derives.toml could not be read or decoded
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// IOFailure indicates a file could not be opened, read or written
	IOFailure ErrorCode = "IO_FAILURE"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditConfig suggests editing the config file
	EditConfig FixActionType = "edit-config"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type" yaml:"type"`
	Command     string        `json:"command,omitempty" yaml:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty" yaml:"safe,omitempty"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
}

// SortError represents a sort-derives error with code, message, and suggestions
type SortError struct {
	Code           ErrorCode   `json:"code" yaml:"code"`
	Message        string      `json:"message" yaml:"message"`
	Details        interface{} `json:"details,omitempty" yaml:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty" yaml:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// NewSortError creates a new SortError
func NewSortError(code ErrorCode, message string, cause error, suggestedFixes []FixAction) *SortError {
	return &SortError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: suggestedFixes,
	}
}

// New creates a SortError carrying the default suggested fixes for its code
func New(code ErrorCode, message string, cause error) *SortError {
	return NewSortError(code, message, cause, GetSuggestedFixes(code))
}

// Error implements the error interface
func (e *SortError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *SortError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *SortError) WithDetails(details interface{}) *SortError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first SortError in err's chain,
// or InternalError when there is none.
func CodeOf(err error) ErrorCode {
	var se *SortError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return InternalError
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	MalformedOrderSpec: {
		{
			Type:        EditConfig,
			Description: "Keep at most one \"...\" wildcard in the custom order",
		},
		{
			Type:        RunCommand,
			Command:     "cargo sort-derives config check",
			Safe:        true,
			Description: "Validate .sort-derives.toml",
		},
	},
	ConfigInvalid: {
		{
			Type:        RunCommand,
			Command:     "cargo sort-derives config check",
			Safe:        true,
			Description: "Report problems in .sort-derives.toml",
		},
	},
	InvalidPath: {
		{
			Type:        RunCommand,
			Command:     "cargo sort-derives",
			Safe:        false,
			Description: "Omit --path to sort every .rs file below the current directory",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
