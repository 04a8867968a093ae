package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError carries field-level validation failures. Controllers render
// the Fields map directly so API consumers can highlight the offending inputs.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msgs := range e.Fields {
		parts = append(parts, field+": "+strings.Join(msgs, "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// NewValidation builds a ValidationError for a single field.
func NewValidation(field, message string) error {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

// NotFoundError is returned when a record is absent or owned by another
// tenant. Both cases look identical to the caller.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

func NewNotFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
