package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Execution errors
const (
	// ErrCodeStagePanic indicates a stage callback panicked.
	ErrCodeStagePanic ErrorCode = "STAGE_PANIC"
	// ErrCodeCancelled indicates the run was cancelled through its context.
	ErrCodeCancelled ErrorCode = "CANCELLED"
	// ErrCodeInternal indicates an unexpected engine failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Definition errors
const (
	// ErrCodeInvalidDefinition indicates a malformed pipeline definition.
	ErrCodeInvalidDefinition ErrorCode = "INVALID_DEFINITION"
	// ErrCodeUnknownOperator indicates a definition names an unregistered operator.
	ErrCodeUnknownOperator ErrorCode = "UNKNOWN_OPERATOR"
	// ErrCodeUnknownFunction indicates a definition names an unregistered function.
	ErrCodeUnknownFunction ErrorCode = "UNKNOWN_FUNCTION"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

var definitionCodes = map[ErrorCode]bool{
	ErrCodeInvalidDefinition: true,
	ErrCodeUnknownOperator:   true,
	ErrCodeUnknownFunction:   true,
	ErrCodeMissingField:      true,
}

// IsDefinitionCode returns true if the code describes a problem with a
// pipeline definition rather than with a run.
func IsDefinitionCode(code ErrorCode) bool {
	return definitionCodes[code]
}
