package apperror

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// TABLE-DRIVEN TESTS:
// Go's idiomatic pattern for testing multiple cases — a slice of cases, one
// assertion loop, every case named in the test output.

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("card", "7"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("name", "name is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "MalformedToken wraps ErrMalformedToken",
			err:       MalformedToken("base64", errors.New("illegal byte")),
			target:    ErrMalformedToken,
			wantMatch: true,
		},
		{
			name:      "UnexpectedShape wraps ErrUnexpectedShape",
			err:       UnexpectedShape("wrong array length"),
			target:    ErrUnexpectedShape,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("card", "7"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "MalformedToken does NOT match ErrUnexpectedShape",
			err:       MalformedToken("json", errors.New("bad syntax")),
			target:    ErrUnexpectedShape,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.wantMatch {
				t.Errorf("errors.Is() = %v, want %v", got, tt.wantMatch)
			}
		})
	}
}

func TestErrorsIs_SurvivesWrapping(t *testing.T) {
	// Services wrap with fmt.Errorf("...: %w", err); the sentinel must stay
	// reachable through the chain.
	inner := MalformedToken("percent-encoding", errors.New("invalid escape"))
	wrapped := fmt.Errorf("decoding token: %w", inner)

	if !errors.Is(wrapped, ErrMalformedToken) {
		t.Error("wrapped MalformedToken no longer matches ErrMalformedToken")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("wrapped error no longer extracts as *AppError")
	}
	if appErr.Field != "percent-encoding" {
		t.Errorf("Field = %q, want %q", appErr.Field, "percent-encoding")
	}
}

func TestMalformedToken_CausePreserved(t *testing.T) {
	cause := errors.New("illegal base64 data at input byte 3")
	err := MalformedToken("base64", cause)

	if !errors.Is(err, cause) {
		t.Error("original cause lost from the error chain")
	}
	if !strings.Contains(err.Error(), "base64") {
		t.Errorf("Error() = %q, want the failing stage named", err.Error())
	}
}
