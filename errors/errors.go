package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
)

// AppError is the error type for failures the engine itself originates.
// Failures raised by user callbacks or futures are never wrapped in it.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// --- Constructors ---

// StagePanic creates an AppError from a value recovered in a stage callback.
// The goroutine stack is captured at the call site.
func StagePanic(value any) *AppError {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	e := &AppError{
		Code:    ErrCodeStagePanic,
		Message: fmt.Sprintf("stage panicked: %v", value),
		Details: map[string]any{"value": value, "stack": string(buf[:n])},
	}
	if err, ok := value.(error); ok {
		e.Cause = err
	}
	return e
}

// Cancelled creates an AppError for a run stopped by its context.
func Cancelled(cause error) *AppError {
	return &AppError{
		Code: ErrCodeCancelled, Message: "pipeline run was cancelled",
		Cause: cause,
	}
}

// InvalidDefinition creates an AppError for a malformed pipeline definition.
func InvalidDefinition(name, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidDefinition, Message: fmt.Sprintf("invalid pipeline definition %q: %s", name, reason),
		Details: map[string]any{"definition": name},
	}
}

// UnknownOperator creates an AppError for an unregistered operator name.
func UnknownOperator(op string) *AppError {
	return &AppError{
		Code: ErrCodeUnknownOperator, Message: fmt.Sprintf("operator %q is not registered", op),
		Details: map[string]any{"operator": op},
	}
}

// UnknownFunction creates an AppError for an unregistered function name.
func UnknownFunction(kind, name string) *AppError {
	return &AppError{
		Code: ErrCodeUnknownFunction, Message: fmt.Sprintf("%s function %q is not registered", kind, name),
		Details: map[string]any{"kind": kind, "function": name},
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		Details: map[string]any{"field": field},
	}
}

// Internal creates a new AppError for an unexpected engine failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected engine error occurred",
		Cause: cause,
	}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is, or wraps, an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
