package desk

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSelection is returned by operations that need a displayed order.
	ErrNoSelection = errors.New("no order is selected")

	// ErrNoDraft is returned by Commit when there are no pending edits.
	ErrNoDraft = errors.New("no pending edits to save")
)

// ValidationError rejects an edit before anything is applied.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}
