// Package errors defines the structured error types returned by the cmdhub
// core. Every error carries a type, a stable code, and enough context (name,
// dimension, parameter) for callers to build deterministic user-facing
// messages. The core never logs or swallows its own errors; translation to
// exit codes and display text is the adapter layer's job.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeDuplicate      ErrorType = "duplicate"
	ErrorTypeNotFound       ErrorType = "not-found"
	ErrorTypeInvalidHint    ErrorType = "invalid-hint"
	ErrorTypeInitialization ErrorType = "initialization"
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeRender         ErrorType = "render"
)

// Common error codes.
const (
	ErrCodeDuplicateEntry = "ERR_DUPLICATE_ENTRY"
	ErrCodeNotFound       = "ERR_NOT_FOUND"
	ErrCodeInvalidHint    = "ERR_INVALID_HINT"
	ErrCodeInitFailed     = "ERR_INIT_FAILED"
	ErrCodeInvalidName    = "ERR_INVALID_NAME"
	ErrCodeInvalidTarget  = "ERR_INVALID_TARGET"
	ErrCodeInvalidArg     = "ERR_INVALID_ARGUMENT"
	ErrCodeRenderFailed   = "ERR_RENDER_FAILED"
)

// HubError is a structured error type with registry context.
type HubError struct {
	Type      ErrorType
	Code      string
	Message   string
	Name      string // entry name, when the error concerns a specific entry
	Dimension string // dimension identifier, when applicable
	Param     string // parameter name, for hint errors
	Cause     error
}

// Error implements the error interface.
func (e *HubError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Dimension != "" {
		parts = append(parts, "dimension:"+e.Dimension)
	}

	if e.Name != "" {
		parts = append(parts, "name:"+e.Name)
	}

	if e.Param != "" {
		parts = append(parts, "param:"+e.Param)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *HubError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison by type and code.
func (e *HubError) Is(target error) bool {
	var t *HubError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// Error creation functions

// NewDuplicateEntryError creates the error returned when a registration
// collides with an existing canonical name or alias in the same dimension.
func NewDuplicateEntryError(name, dimension string) *HubError {
	return &HubError{
		Type:      ErrorTypeDuplicate,
		Code:      ErrCodeDuplicateEntry,
		Message:   "entry already registered",
		Name:      name,
		Dimension: dimension,
	}
}

// NewNotFoundError creates the error returned when neither a canonical name
// nor an alias matches a lookup.
func NewNotFoundError(name, dimension string) *HubError {
	return &HubError{
		Type:      ErrorTypeNotFound,
		Code:      ErrCodeNotFound,
		Message:   "no such entry",
		Name:      name,
		Dimension: dimension,
	}
}

// NewInvalidHintError creates the error returned when explicit parameter
// hints conflict. The message describes the conflict.
func NewInvalidHintError(param, message string) *HubError {
	return &HubError{
		Type:    ErrorTypeInvalidHint,
		Code:    ErrCodeInvalidHint,
		Message: message,
		Param:   param,
	}
}

// NewInitializationError wraps an error raised during the hub's one-time
// setup. Initialization is retried on next access, never poisoned.
func NewInitializationError(cause error) *HubError {
	return &HubError{
		Type:    ErrorTypeInitialization,
		Code:    ErrCodeInitFailed,
		Message: "hub initialization failed",
		Cause:   cause,
	}
}

// NewInvalidNameError creates a validation error for a malformed entry name
// (empty, or containing empty dot segments).
func NewInvalidNameError(name, message string) *HubError {
	return &HubError{
		Type:    ErrorTypeValidation,
		Code:    ErrCodeInvalidName,
		Message: message,
		Name:    name,
	}
}

// NewInvalidTargetError creates a validation error for a target kind the
// dimension does not accept.
func NewInvalidTargetError(name, dimension, message string) *HubError {
	return &HubError{
		Type:      ErrorTypeValidation,
		Code:      ErrCodeInvalidTarget,
		Message:   message,
		Name:      name,
		Dimension: dimension,
	}
}

// NewArgumentError creates a validation error for a command-line value that
// cannot be coerced to a parameter's declared type.
func NewArgumentError(param, message string) *HubError {
	return &HubError{
		Type:    ErrorTypeValidation,
		Code:    ErrCodeInvalidArg,
		Message: message,
		Param:   param,
	}
}

// NewRenderError creates the error returned by an adapter when the command
// tree contains a parameter or binding combination it cannot express.
func NewRenderError(name, message string, cause error) *HubError {
	return &HubError{
		Type:    ErrorTypeRender,
		Code:    ErrCodeRenderFailed,
		Message: message,
		Name:    name,
		Cause:   cause,
	}
}

// Error classification helpers

// IsDuplicateEntry checks whether an error is a duplicate-entry error.
func IsDuplicateEntry(err error) bool {
	return hasType(err, ErrorTypeDuplicate)
}

// IsNotFound checks whether an error is a not-found error.
func IsNotFound(err error) bool {
	return hasType(err, ErrorTypeNotFound)
}

// IsInvalidHint checks whether an error is an invalid-hint error.
func IsInvalidHint(err error) bool {
	return hasType(err, ErrorTypeInvalidHint)
}

// IsInitialization checks whether an error wraps a failed hub setup.
func IsInitialization(err error) bool {
	return hasType(err, ErrorTypeInitialization)
}

// IsValidation checks whether an error is a name or target validation error.
func IsValidation(err error) bool {
	return hasType(err, ErrorTypeValidation)
}

// IsRender checks whether an error was raised while rendering the tree.
func IsRender(err error) bool {
	return hasType(err, ErrorTypeRender)
}

func hasType(err error, t ErrorType) bool {
	var he *HubError
	if errors.As(err, &he) {
		return he.Type == t
	}

	return false
}
