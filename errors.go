package related

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for the error kinds of the store.
var (
	// ErrSchema is returned when model definitions cannot be resolved.
	ErrSchema = errors.New("related: invalid schema")

	// ErrValidation is returned when record values violate the schema.
	ErrValidation = errors.New("related: validation failed")

	// ErrLookup is returned when a read uses an index that was not declared.
	ErrLookup = errors.New("related: lookup failed")

	// ErrConsistency is returned when a relation operation would break
	// relational consistency.
	ErrConsistency = errors.New("related: consistency violated")
)

// SchemaError represents a model definition error detected while
// processing the schema. It is fatal for initialization.
type SchemaError struct {
	Model   string // Model name
	Field   string // Field name (if applicable)
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("related: schema error")
	if e.Model != "" {
		b.WriteString(" on model ")
		b.WriteString(e.Model)
	}
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches ErrSchema.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// NewSchemaError creates a new SchemaError.
func NewSchemaError(model, field, message string) *SchemaError {
	return &SchemaError{Model: model, Field: field, Message: message}
}

// IsSchemaError reports whether the error is a SchemaError.
func IsSchemaError(err error) bool {
	if err == nil {
		return false
	}
	var e *SchemaError
	return errors.As(err, &e) || errors.Is(err, ErrSchema)
}

// ValidationError represents invalid values passed to a create or update.
type ValidationError struct {
	Model   string
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("related: validation failed for %s field %q: %s", e.Model, e.Field, e.Message)
}

// Is reports whether the target matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError returns a new ValidationError for the given field.
func NewValidationError(model, field, message string) *ValidationError {
	return &ValidationError{Model: model, Field: field, Message: message}
}

// NewRequiredError returns the ValidationError reported when a required
// field is missing on create.
func NewRequiredError(model, field string) *ValidationError {
	return NewValidationError(model, field, fmt.Sprintf("field is required when creating %q record", model))
}

// IsValidationError reports whether the error is a ValidationError.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e) || errors.Is(err, ErrValidation)
}

// LookupError represents a read by a key that has no declared index.
type LookupError struct {
	Model string
	Key   string
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	return fmt.Sprintf("related: unable to get record by %q: %s has no index on it", e.Key, e.Model)
}

// Is reports whether the target matches ErrLookup.
func (e *LookupError) Is(target error) bool {
	return target == ErrLookup
}

// NewLookupError returns a new LookupError.
func NewLookupError(model, key string) *LookupError {
	return &LookupError{Model: model, Key: key}
}

// IsLookupError reports whether the error is a LookupError.
func IsLookupError(err error) bool {
	if err == nil {
		return false
	}
	var e *LookupError
	return errors.As(err, &e) || errors.Is(err, ErrLookup)
}

// ConsistencyError represents a relation operation that references a
// missing record, such as disconnecting an undefined target.
type ConsistencyError struct {
	Model   string
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConsistencyError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("related: %s.%s: %s", e.Model, e.Field, e.Message)
	}
	return fmt.Sprintf("related: %s: %s", e.Model, e.Message)
}

// Is reports whether the target matches ErrConsistency.
func (e *ConsistencyError) Is(target error) bool {
	return target == ErrConsistency
}

// NewConsistencyError returns a new ConsistencyError.
func NewConsistencyError(model, field, message string) *ConsistencyError {
	return &ConsistencyError{Model: model, Field: field, Message: message}
}

// IsConsistencyError reports whether the error is a ConsistencyError.
func IsConsistencyError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConsistencyError
	return errors.As(err, &e) || errors.Is(err, ErrConsistency)
}
