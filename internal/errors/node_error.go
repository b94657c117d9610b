// Package errors provides standardized error types for node operations.
// Every error raised by a node carries the phase it belongs to: configuration
// errors are reported before any row is processed, execution errors abort a
// run while data is being transformed.
package errors

import (
	"fmt"
)

// Kind classifies a NodeError by the phase that raised it.
type Kind int

const (
	// KindInternal marks failures that are neither user configuration nor data problems.
	KindInternal Kind = iota
	// KindConfiguration marks errors raised while validating settings against a schema.
	KindConfiguration
	// KindExecution marks errors raised while processing rows.
	KindExecution
)

// String returns the phase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindExecution:
		return "execution"
	case KindInternal:
		return "internal"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// NodeError represents standardized errors across all node operations
type NodeError struct {
	Kind    Kind   // Phase that raised the error
	Op      string // Operation name (e.g., "aggregation_granularity.configure", "cast")
	Column  string // Column name if applicable
	Message string // Human-readable error description
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *NodeError) Error() string {
	msg := fmt.Sprintf("%s operation failed: %s", e.Op, e.Message)
	if e.Column != "" {
		msg = fmt.Sprintf("%s operation failed on column '%s': %s", e.Op, e.Column, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error wrapping support
func (e *NodeError) Unwrap() error {
	return e.Cause
}

// Is implements error equality checking for errors.Is().
// A target with only Kind set (such as ErrConfiguration) matches any error of that kind.
func (e *NodeError) Is(target error) bool {
	t, ok := target.(*NodeError)
	if !ok {
		return false
	}
	if t.Op == "" && t.Column == "" && t.Message == "" {
		return e.Kind == t.Kind
	}
	return e.Kind == t.Kind && e.Op == t.Op && e.Column == t.Column && e.Message == t.Message
}

// Phase sentinels for errors.Is checks.
var (
	// ErrConfiguration matches every configuration-phase error.
	ErrConfiguration = &NodeError{Kind: KindConfiguration}

	// ErrExecution matches every execution-phase error.
	ErrExecution = &NodeError{Kind: KindExecution}

	// ErrMismatchedLength indicates length mismatches in operations
	ErrMismatchedLength = &NodeError{
		Kind:    KindInternal,
		Op:      "validation",
		Message: "arrays must have the same length",
	}

	// ErrInvalidIndex indicates out-of-bounds index access
	ErrInvalidIndex = &NodeError{
		Kind:    KindInternal,
		Op:      "indexing",
		Message: "index out of bounds",
	}
)

// Common error constructors for consistent error creation

// NewColumnNotFoundError creates an error for settings naming a column absent from the input
func NewColumnNotFoundError(op, column string) *NodeError {
	return &NodeError{
		Kind:    KindConfiguration,
		Op:      op,
		Column:  column,
		Message: "column not available in input table",
	}
}

// NewIncompatibleColumnError creates an error for a selected column of the wrong type
func NewIncompatibleColumnError(op, column string) *NodeError {
	return &NodeError{
		Kind:    KindConfiguration,
		Op:      op,
		Column:  column,
		Message: "column has incompatible data type",
	}
}

// NewNoCompatibleColumnError creates an error for a schema without any usable column
func NewNoCompatibleColumnError(op, message string) *NodeError {
	return &NodeError{
		Kind:    KindConfiguration,
		Op:      op,
		Message: message,
	}
}

// NewValidationError creates an error for settings that fail validation
func NewValidationError(op, column, message string) *NodeError {
	return &NodeError{
		Kind:    KindConfiguration,
		Op:      op,
		Column:  column,
		Message: message,
	}
}

// NewExecutionError creates an error for data problems found while processing rows
func NewExecutionError(op, column, message string, cause error) *NodeError {
	return &NodeError{
		Kind:    KindExecution,
		Op:      op,
		Column:  column,
		Message: message,
		Cause:   cause,
	}
}

// NewParseError creates an execution error for a value that does not match its expected format
func NewParseError(op, column string, row int, value string, cause error) *NodeError {
	return &NodeError{
		Kind:    KindExecution,
		Op:      op,
		Column:  column,
		Message: fmt.Sprintf("row %d: cannot parse %q", row, value),
		Cause:   cause,
	}
}

// NewUnsupportedTypeError creates an error for unsupported data types
func NewUnsupportedTypeError(op, typeName string) *NodeError {
	return &NodeError{
		Kind:    KindInternal,
		Op:      op,
		Message: fmt.Sprintf("unsupported type: %s", typeName),
	}
}

// NewInternalError creates an error for internal operation failures
func NewInternalError(op string, cause error) *NodeError {
	return &NodeError{
		Kind:    KindInternal,
		Op:      op,
		Message: "internal error occurred",
		Cause:   cause,
	}
}
