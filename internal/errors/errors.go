package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// NoScope indicates the expression has no analyzable enclosing block
	NoScope ErrorCode = "NO_SCOPE"
	// AnalysisIncomplete indicates the dataflow interpreter hit its own limits
	AnalysisIncomplete ErrorCode = "ANALYSIS_INCOMPLETE"
	// SearchOverflow indicates derived-class search exceeded its budget
	SearchOverflow ErrorCode = "SEARCH_OVERFLOW"
	// IdentityInconsistency indicates equivalent expressions hashed apart
	IdentityInconsistency ErrorCode = "IDENTITY_INCONSISTENCY"
	// Canceled indicates the caller canceled the query
	Canceled ErrorCode = "CANCELED"
	// ParseFailed indicates a source file could not be parsed
	ParseFailed ErrorCode = "PARSE_FAILED"
	// InvalidPattern indicates a malformed or duplicate method pattern
	InvalidPattern ErrorCode = "INVALID_PATTERN"
	// InvalidConfig indicates a configuration value out of range
	InvalidConfig ErrorCode = "INVALID_CONFIG"
	// ExpressionNotFound indicates no expression exists at a requested position
	ExpressionNotFound ErrorCode = "EXPRESSION_NOT_FOUND"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// GuessError represents a type-guessing error with a stable code
type GuessError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// New creates a new GuessError
func New(code ErrorCode, message string, cause error) *GuessError {
	return &GuessError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Newf creates a GuessError with a formatted message and no cause
func Newf(code ErrorCode, format string, args ...interface{}) *GuessError {
	return &GuessError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface
func (e *GuessError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *GuessError) Unwrap() error {
	return e.cause
}

// Is matches another GuessError by code, so sentinel values work with errors.Is
func (e *GuessError) Is(target error) bool {
	var t *GuessError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithDetails adds details to the error
func (e *GuessError) WithDetails(details interface{}) *GuessError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first GuessError in err's chain, or
// InternalError when there is none.
func CodeOf(err error) ErrorCode {
	var ge *GuessError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return InternalError
}

// HasCode reports whether err carries the given code anywhere in its chain
func HasCode(err error, code ErrorCode) bool {
	return errors.Is(err, &GuessError{Code: code})
}
