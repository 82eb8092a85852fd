package lexer

import (
	"fmt"
	"strings"
)

// Error is a diagnostic positioned in config text.
type Error struct {
	// File is the base name of the file being read, if known.
	File string
	// Line is the 1-based line number, or 0 when not tied to a position.
	Line int
	// Column is the 1-based column of the offending text.
	Column int
	// Length is the number of bytes to underline.
	Length int
	// LineText is the source line the error refers to.
	LineText string
	// Message describes the problem.
	Message string
	// Err is an optional category or cause.
	Err error
}

// Error implements the error interface. Positioned errors include the
// source line with the offending span marked:
//
//	Error in app.cfg on line 3, pos 9: No such reference 'port'
//	  port = port
//	---------^^^^
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString("Error")
	if e.File != "" {
		sb.WriteString(" in ")
		sb.WriteString(e.File)
	}
	if e.Line > 0 {
		fmt.Fprintf(&sb, " on line %d, pos %d", e.Line, e.Column)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Line > 0 && e.LineText != "" {
		sb.WriteByte('\n')
		sb.WriteString(e.LineText)
		sb.WriteByte('\n')
		if e.Column > 1 {
			sb.WriteString(strings.Repeat("-", e.Column-1))
		}
		sb.WriteString(strings.Repeat("^", max(e.Length, 1)))
	}
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap sets the category or cause and returns the error.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// InFile sets the file name if it has not been set yet.
func (e *Error) InFile(file string) *Error {
	if e.File == "" {
		e.File = file
	}
	return e
}

// Errorf creates an error that is not tied to a source position.
func Errorf(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}
