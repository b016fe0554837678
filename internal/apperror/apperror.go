package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("Validation Error")

	// Token decode failures. MalformedToken covers transport-level damage
	// (bad base64, bad percent-encoding, unparseable JSON); UnexpectedShape
	// covers structurally valid JSON that is not a recognisable token
	// (wrong arity, wrong element types, missing legacy keys).
	ErrMalformedToken  = errors.New("malformed token")
	ErrUnexpectedShape = errors.New("unexpected token shape")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// MalformedToken returns an AppError for a token that failed one of the
// transport decoding stages. The stage name lands in logs, never in
// user-facing output.
func MalformedToken(stage string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %s: %w", ErrMalformedToken, stage, cause),
		Message: fmt.Sprintf("share token could not be decoded (%s)", stage),
		Field:   stage,
	}
}

// UnexpectedShape returns an AppError for a token whose payload parsed as
// JSON but did not match either accepted token shape.
func UnexpectedShape(detail string) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %s", ErrUnexpectedShape, detail),
		Message: fmt.Sprintf("share token has an unexpected shape: %s", detail),
	}
}
