package model

import "fmt"

// ValidationError reports malformed input. It is fatal and returned before any
// stage runs.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// FreshnessComputationError reports that the freshness stage could not produce
// a score from otherwise-valid input. It aborts the workflow.
type FreshnessComputationError struct {
	Reason string
}

func (e *FreshnessComputationError) Error() string {
	return "freshness computation failed: " + e.Reason
}
