package schema

import (
	"fmt"
	"strings"
)

// PathSeparator separates field names in a dotted field path.
const PathSeparator = "."

// SplitPath splits a dotted field path into its segments.
func SplitPath(path string) []string {
	return strings.Split(path, PathSeparator)
}

// FieldPath resolves a sequence of field names starting at d. Every segment
// but the last must name a message-typed field. The returned slice has one
// entry per segment.
//
// Failures wrap ErrNoSuchField or ErrNotMessageField so callers can tell a
// missing field from a wrong-typed intermediate.
func (d *MessageDescriptor) FieldPath(segments []string) ([]*Field, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: empty field path", ErrNoSuchField)
	}
	out := make([]*Field, 0, len(segments))
	current := d
	for i, name := range segments {
		f := current.FieldByName(name)
		if f == nil {
			return out, &PathError{Message: current, Name: name, Err: ErrNoSuchField}
		}
		out = append(out, f)
		if i == len(segments)-1 {
			break
		}
		next, ok := f.Type.(*MessageDescriptor)
		if !ok {
			return out, &PathError{Message: current, Name: name, Err: ErrNotMessageField}
		}
		current = next
	}
	return out, nil
}

// PathError reports a field path segment that could not be resolved.
type PathError struct {
	// Message is the descriptor the segment was looked up in.
	Message *MessageDescriptor
	// Name is the offending segment.
	Name string
	// Err is ErrNoSuchField or ErrNotMessageField.
	Err error
}

// Error implements the error interface.
func (e *PathError) Error() string {
	if e.Err == ErrNotMessageField {
		return fmt.Sprintf("Field '%s' is not of message type in %s", e.Name, e.Message.QualifiedName())
	}
	return fmt.Sprintf("Message %s has no field named %s", e.Message.QualifiedName(), e.Name)
}

// Unwrap returns the category sentinel.
func (e *PathError) Unwrap() error {
	return e.Err
}
