package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur while loading and cooking recipes.
var (
	// ErrNotTopOfHistory indicates an undo of a record that is not the
	// most recent history entry. Undo follows strict stack discipline.
	ErrNotTopOfHistory = errors.New("record is not the top of the history")

	// ErrNotUndoable indicates an undo of a step that recorded no way
	// to invert its effect.
	ErrNotUndoable = errors.New("step is not undoable")

	// ErrEmptyOperationName indicates an operation constructed without a name.
	ErrEmptyOperationName = errors.New("operation name cannot be empty")
)

// RecipeFormatError indicates a recipe document that is unparseable,
// declares an unsupported format, or fails structural validation.
// Format errors are fatal before any task executes.
type RecipeFormatError struct {
	// Format is the declared format type, when one could be read.
	Format string
	// TaskIndex is the zero-based index of the offending task, or -1
	// when the error is not attributable to a single task.
	TaskIndex int
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface for RecipeFormatError.
func (e *RecipeFormatError) Error() string {
	if e.TaskIndex >= 0 {
		return fmt.Sprintf("recipe format error in task %d: %v", e.TaskIndex, e.Err)
	}
	if e.Format != "" {
		return fmt.Sprintf("recipe format error (format %q): %v", e.Format, e.Err)
	}
	return fmt.Sprintf("recipe format error: %v", e.Err)
}

// Unwrap returns the underlying error, supporting errors.Is/As.
func (e *RecipeFormatError) Unwrap() error { return e.Err }

// NewRecipeFormatError creates a RecipeFormatError not attributable to a
// single task.
func NewRecipeFormatError(format string, err error) *RecipeFormatError {
	return &RecipeFormatError{Format: format, TaskIndex: -1, Err: err}
}

// NewTaskFormatError creates a RecipeFormatError pointing at the
// offending task index.
func NewTaskFormatError(index int, err error) *RecipeFormatError {
	return &RecipeFormatError{TaskIndex: index, Err: err}
}

// UndefinedResultError indicates a reference to a label that no dataset
// declaration or prior task has bound.
type UndefinedResultError struct {
	// Label is the unresolved label.
	Label string
}

// Error implements the error interface for UndefinedResultError.
func (e *UndefinedResultError) Error() string {
	return fmt.Sprintf("undefined label %q: no dataset or prior result bound to it", e.Label)
}

// ParameterError indicates missing or invalid operation configuration,
// including result-cardinality mismatches and unknown operation types.
type ParameterError struct {
	// Operation names the operation (or task) the configuration belongs
	// to, when known.
	Operation string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface for ParameterError.
func (e *ParameterError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("parameter error in %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("parameter error: %v", e.Err)
}

// Unwrap returns the underlying error, supporting errors.Is/As.
func (e *ParameterError) Unwrap() error { return e.Err }

// NewParameterError creates a ParameterError for the given operation.
func NewParameterError(operation string, format string, args ...any) *ParameterError {
	return &ParameterError{Operation: operation, Err: fmt.Errorf(format, args...)}
}

// NotApplicableToDatasetError indicates an operation that is structurally
// incompatible with a dataset, typically because of its dimensionality.
type NotApplicableToDatasetError struct {
	// Operation is the operation name.
	Operation string
	// DatasetID identifies the incompatible dataset.
	DatasetID string
	// Reason describes the incompatibility.
	Reason string
}

// Error implements the error interface for NotApplicableToDatasetError.
func (e *NotApplicableToDatasetError) Error() string {
	return fmt.Sprintf("%s is not applicable to dataset %s: %s", e.Operation, e.DatasetID, e.Reason)
}

// ImporterNotFoundError indicates that no importer resolves a dataset
// source.
type ImporterNotFoundError struct {
	// Source is the dataset source string.
	Source string
	// Importer is the explicitly requested importer name, when given.
	Importer string
}

// Error implements the error interface for ImporterNotFoundError.
func (e *ImporterNotFoundError) Error() string {
	if e.Importer != "" {
		return fmt.Sprintf("no importer %q available for source %q", e.Importer, e.Source)
	}
	return fmt.Sprintf("no importer resolves source %q", e.Source)
}
