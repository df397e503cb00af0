package validation

import (
	"fmt"
	"strings"

	"github.com/kbukum/lazylists/errors"
)

// Validator collects validation errors for checks that struct tags cannot
// express, such as per-operator parameter rules in a definition.
type Validator struct {
	prefix string
	errors *[]FieldError
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new Validator.
func New() *Validator {
	errs := make([]FieldError, 0)
	return &Validator{errors: &errs}
}

// At returns a Validator that prefixes field names with path and shares
// the error list with v.
func (v *Validator) At(path string) *Validator {
	return &Validator{prefix: v.field(path), errors: v.errors}
}

func (v *Validator) field(name string) string {
	switch {
	case v.prefix == "":
		return name
	case name == "":
		return v.prefix
	case strings.HasPrefix(name, "["):
		return v.prefix + name
	default:
		return v.prefix + "." + name
	}
}

// AddError adds a field error.
func (v *Validator) AddError(field, message string) {
	*v.errors = append(*v.errors, FieldError{
		Field:   v.field(field),
		Message: message,
	})
}

// HasErrors returns true if there are validation errors.
func (v *Validator) HasErrors() bool {
	return len(*v.errors) > 0
}

// Errors returns all validation errors.
func (v *Validator) Errors() []FieldError {
	return *v.errors
}

// Validate returns an AppError if there are validation errors, nil otherwise.
func (v *Validator) Validate() *errors.AppError {
	if !v.HasErrors() {
		return nil
	}

	messages := make([]string, len(*v.errors))
	for i, e := range *v.errors {
		messages[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}

	appErr := errors.Validation(strings.Join(messages, "; "))
	appErr.Details = map[string]any{
		"fields": *v.errors,
	}

	return appErr
}

// Err is Validate typed as error, so a clean Validator yields a nil interface.
func (v *Validator) Err() error {
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// Required checks if a string is non-empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// Present checks that a value was supplied.
func (v *Validator) Present(field string, value any) *Validator {
	if value == nil {
		v.AddError(field, "is required")
	}
	return v
}

// Absent checks that a parameter the operator does not accept was left out.
func (v *Validator) Absent(field string, set bool) *Validator {
	if set {
		v.AddError(field, "is not accepted by this operator")
	}
	return v
}

// NotEmpty checks that a list has at least one element.
func (v *Validator) NotEmpty(field string, n int) *Validator {
	if n == 0 {
		v.AddError(field, "must not be empty")
	}
	return v
}

// Range checks if a number is within a range.
func (v *Validator) Range(field string, value, minVal, maxVal int) *Validator {
	if value < minVal || value > maxVal {
		v.AddError(field, fmt.Sprintf("must be between %d and %d", minVal, maxVal))
	}
	return v
}

// Min checks if a number meets minimum value.
func (v *Validator) Min(field string, value, minVal int) *Validator {
	if value < minVal {
		v.AddError(field, fmt.Sprintf("must be at least %d", minVal))
	}
	return v
}

// OneOf checks if a value is one of the allowed values.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" {
		return v
	}
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.AddError(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

// Identifier checks that a non-empty name is a valid definition identifier.
func (v *Validator) Identifier(field, value string) *Validator {
	if value != "" && !identifierPattern.MatchString(value) {
		v.AddError(field, "must be an identifier (letters, digits, '_', '.', '-')")
	}
	return v
}

// Custom applies a custom validation condition.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, message)
	}
	return v
}

// Required validates a single required field and returns an error if empty.
func Required(field, value string) error {
	return New().Required(field, value).Err()
}
