package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without cause",
			err:      NewRateLimitExceeded("quota exhausted"),
			expected: "RATE_LIMIT_EXCEEDED: quota exhausted",
		},
		{
			name:     "with cause",
			err:      NewSchemaViolation("score out of range", fmt.Errorf("overallScore.score=140")),
			expected: "SCHEMA_VIOLATION: score out of range (caused by: overallScore.score=140)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewPersistenceFailure("insert rejected", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorType
	}{
		{"schema violation", NewSchemaViolation("bad", nil), ErrorTypeValidation},
		{"missing credential", NewMissingCredential("no key"), ErrorTypeCredential},
		{"rate limit", NewRateLimitExceeded("slow down"), ErrorTypeRateLimit},
		{"generation", NewGenerationFailure("model error", nil), ErrorTypeAI},
		{"persistence", NewPersistenceFailure("write failed", nil), ErrorTypePersistence},
		{"unauthenticated", NewUnauthenticated("no session"), ErrorTypeAuth},
		{"plain error", fmt.Errorf("boom"), ErrorTypeInternal},
		{"wrapped app error", fmt.Errorf("outer: %w", NewUnauthenticated("no session")), ErrorTypeAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TypeOf(tt.err); got != tt.expected {
				t.Errorf("TypeOf() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewMissingCredential("configure an API key"))

	if !IsCode(err, ErrCodeMissingCredential) {
		t.Error("expected IsCode to match through wrapping")
	}
	if IsCode(err, ErrCodeRateLimitExceeded) {
		t.Error("IsCode matched the wrong code")
	}
	if IsCode(fmt.Errorf("plain"), ErrCodeMissingCredential) {
		t.Error("IsCode matched a non-AppError")
	}
}

func TestWithContext(t *testing.T) {
	err := NewGenerationFailure("model returned garbage", nil).
		WithContext("operation", "score").
		WithContext("model", "gemini-2.0-flash")

	if err.Context["operation"] != "score" {
		t.Errorf("context operation = %v", err.Context["operation"])
	}
	if err.Context["model"] != "gemini-2.0-flash" {
		t.Errorf("context model = %v", err.Context["model"])
	}
}

func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if _, err := New(level); err != nil {
			t.Errorf("New(%q) returned error: %v", level, err)
		}
	}

	if _, err := New("verbose"); err == nil {
		t.Error("expected error for invalid log level")
	}
}
