// Package errors provides the structured error type for failures that the
// pipeline engine originates itself: recovered panics, cancelled runs,
// malformed definitions and failed validation.
//
// Errors returned by user callbacks or by futures pass through the engine
// unmodified; they are never converted to AppError.
package errors
