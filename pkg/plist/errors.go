package plist

import "fmt"

// ParseError indicates a malformed descriptor file. A failed load leaves
// any previously loaded document untouched.
type ParseError struct {
	Path   string
	Reason string
}

// Error implements error.
func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed plist: %s", e.Reason)
	}
	return fmt.Sprintf("malformed plist %s: %s", e.Path, e.Reason)
}

// CoercionError indicates that a raw edit buffer could not be converted to
// the field's value type. The document is never mutated on coercion failure.
type CoercionError struct {
	Field  Field
	Value  string
	Reason string
}

// Error implements error.
func (e *CoercionError) Error() string {
	return fmt.Sprintf("%s: cannot use %q: %s", e.Field.Name(), e.Value, e.Reason)
}
