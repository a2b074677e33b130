package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("underlying error")
	err := New(ParseFailed, "cannot parse Foo.java", cause)

	if err.Code != ParseFailed {
		t.Errorf("Code = %v, want %v", err.Code, ParseFailed)
	}
	if err.Message != "cannot parse Foo.java" {
		t.Errorf("Message = %q, want %q", err.Message, "cannot parse Foo.java")
	}
}

func TestGuessError_Error(t *testing.T) {
	tests := []struct {
		name      string
		code      ErrorCode
		message   string
		cause     error
		wantParts []string
	}{
		{
			name:      "with cause",
			code:      ParseFailed,
			message:   "tree-sitter failed",
			cause:     errors.New("unexpected EOF"),
			wantParts: []string{"PARSE_FAILED", "tree-sitter failed", "unexpected EOF"},
		},
		{
			name:      "without cause",
			code:      ExpressionNotFound,
			message:   "no expression at 3:7",
			cause:     nil,
			wantParts: []string{"EXPRESSION_NOT_FOUND", "no expression at 3:7"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.code, tt.message, tt.cause).Error()

			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, want to contain %q", got, part)
				}
			}
		})
	}
}

func TestGuessError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(InternalError, "something went wrong", cause)

	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}

	errNoCause := Newf(NoScope, "no block for %s", "x")
	if errNoCause.Unwrap() != nil {
		t.Errorf("Unwrap() on error without cause should return nil")
	}
}

func TestGuessError_IsByCode(t *testing.T) {
	sentinel := New(NoScope, "no enclosing block", nil)
	wrapped := fmt.Errorf("query failed: %w", Newf(NoScope, "detached expression"))

	if !errors.Is(wrapped, sentinel) {
		t.Error("errors.Is should match a GuessError by code")
	}
	if errors.Is(wrapped, New(SearchOverflow, "", nil)) {
		t.Error("errors.Is should not match a different code")
	}
	if !HasCode(wrapped, NoScope) {
		t.Error("HasCode should find NO_SCOPE in the chain")
	}
	if got := CodeOf(wrapped); got != NoScope {
		t.Errorf("CodeOf = %v, want %v", got, NoScope)
	}
	if got := CodeOf(errors.New("plain")); got != InternalError {
		t.Errorf("CodeOf(plain) = %v, want %v", got, InternalError)
	}
}

func TestGuessError_WithDetails(t *testing.T) {
	err := New(SearchOverflow, "too many subclasses", nil)
	result := err.WithDetails(map[string]int{"limit": 5})

	if result != err {
		t.Error("WithDetails should return the same error for chaining")
	}
	if err.Details == nil {
		t.Error("Details should be set")
	}
}

func TestErrorCodes(t *testing.T) {
	codes := []ErrorCode{
		NoScope,
		AnalysisIncomplete,
		SearchOverflow,
		IdentityInconsistency,
		Canceled,
		ParseFailed,
		InvalidPattern,
		InvalidConfig,
		ExpressionNotFound,
		InternalError,
	}

	seen := make(map[ErrorCode]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %v", code)
		}
		seen[code] = true

		if string(code) == "" {
			t.Error("Error code should not be empty")
		}
	}
}
