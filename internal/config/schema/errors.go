package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by descriptor and registry operations.
var (
	// ErrNoSuchType indicates a qualified name is not registered.
	ErrNoSuchType = errors.New("no such declared type")

	// ErrDuplicateType indicates a qualified name is already registered.
	ErrDuplicateType = errors.New("type already registered")

	// ErrNotMessage indicates a declared type is not a struct or union.
	ErrNotMessage = errors.New("not a message type")

	// ErrNotEnum indicates a declared type is not an enum.
	ErrNotEnum = errors.New("not an enum type")

	// ErrInvalidField indicates a malformed field declaration.
	ErrInvalidField = errors.New("invalid field")

	// ErrNoSuchField indicates a field name is not declared on a message.
	ErrNoSuchField = errors.New("no such field")

	// ErrNotMessageField indicates a path segment names a non-message field.
	ErrNotMessageField = errors.New("not a message field")

	// ErrInvalidTypeExpr indicates an unparseable type expression.
	ErrInvalidTypeExpr = errors.New("invalid type expression")
)

// ValidationError represents a single validation failure of a record.
type ValidationError struct {
	// Path is the dot-separated field path to the invalid value.
	Path string

	// Message describes what's wrong.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

// Error implements the error interface.
func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e.Errors), strings.Join(msgs, "\n  - "))
}

// Add adds a validation error.
func (e *ValidationErrors) Add(path, message string) {
	e.Errors = append(e.Errors, &ValidationError{
		Path:    path,
		Message: message,
	})
}

// Merge adds all errors from another ValidationErrors, prefixing their
// paths with prefix.
func (e *ValidationErrors) Merge(prefix string, other *ValidationErrors) {
	if other == nil {
		return
	}
	for _, err := range other.Errors {
		path := err.Path
		if prefix != "" {
			if path == "" {
				path = prefix
			} else {
				path = prefix + PathSeparator + path
			}
		}
		e.Errors = append(e.Errors, &ValidationError{Path: path, Message: err.Message})
	}
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Len returns the number of errors.
func (e *ValidationErrors) Len() int {
	return len(e.Errors)
}

// AsError returns nil if no errors, otherwise returns self.
func (e *ValidationErrors) AsError() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

// ErrorsUnderPath returns all errors for a path and its children.
func (e *ValidationErrors) ErrorsUnderPath(path string) []*ValidationError {
	var result []*ValidationError
	prefix := path + PathSeparator
	for _, err := range e.Errors {
		if err.Path == path || strings.HasPrefix(err.Path, prefix) {
			result = append(result, err)
		}
	}
	return result
}

// NewRequiredError creates a validation error for a missing required field.
func NewRequiredError(path string) *ValidationError {
	return &ValidationError{
		Path:    path,
		Message: "required field is missing",
	}
}
