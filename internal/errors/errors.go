// Package errors defines the structured error type shared across the
// application. Errors carry a category for programmatic handling and
// optional suggestions that the CLI surfaces to the user.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType categorizes an error by the subsystem or failure mode that
// produced it.
type ErrorType string

const (
	// ErrTypeValidation covers rejected user input.
	ErrTypeValidation ErrorType = "validation"

	// ErrTypeParse and ErrTypeUnsupportedMethod cover shell statements
	// that could not be turned into an executable operation.
	ErrTypeParse             ErrorType = "parse"
	ErrTypeUnsupportedMethod ErrorType = "unsupported_method"

	// ErrTypeLLM covers completion API failures.
	ErrTypeLLM ErrorType = "llm"

	// ErrTypeDatabase covers MongoDB connection and query failures;
	// ErrTypeStorage covers the local run-history database.
	ErrTypeDatabase ErrorType = "database"
	ErrTypeStorage  ErrorType = "storage"

	ErrTypeConfig   ErrorType = "config"
	ErrTypeInternal ErrorType = "internal"
)

// Error is a categorized error with an optional cause and resolution
// suggestions.
type Error struct {
	Type        ErrorType
	Message     string
	Cause       error
	Suggestions []string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithSuggestion appends a resolution hint and returns the error for
// chaining.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// New creates a categorized error.
func New(errType ErrorType, message string) *Error {
	return &Error{Type: errType, Message: message}
}

// Newf creates a categorized error with a formatted message.
func Newf(errType ErrorType, format string, args ...any) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a category and message to an underlying error.
func Wrap(err error, errType ErrorType, message string) *Error {
	return &Error{Type: errType, Message: message, Cause: err}
}

// Wrapf attaches a category and formatted message to an underlying
// error.
func Wrapf(err error, errType ErrorType, format string, args ...any) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...), Cause: err}
}

// IsType reports whether any error in the chain carries the given
// category.
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == errType
	}

	return false
}
