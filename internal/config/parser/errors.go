package parser

import "errors"

// Error categories. Parse failures are *lexer.Error values that wrap one of
// these when the category matters to callers.
var (
	// ErrCircularInclude indicates a file includes itself, possibly
	// through other files.
	ErrCircularInclude = errors.New("circular include")

	// ErrIncludeNotFound indicates a missing, unreadable or invalid
	// include path.
	ErrIncludeNotFound = errors.New("include not found")

	// ErrUnknownType indicates a type name that is not registered.
	ErrUnknownType = errors.New("unknown type")

	// ErrUnknownField indicates a field name not declared on the record.
	ErrUnknownField = errors.New("unknown field")

	// ErrReference indicates an undefined, duplicate or cyclic reference.
	ErrReference = errors.New("invalid reference")

	// ErrNoMessage indicates a config file without a message body.
	ErrNoMessage = errors.New("no message in config")
)
