package doc

import "fmt"

// SchemaError reports an attempt to construct a node that violates its
// type's content expression, mark constraints, or attribute requirements.
type SchemaError struct {
	Type    string // node or mark type name
	Message string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if e.Type == "" {
		return "schema: " + e.Message
	}
	return fmt.Sprintf("schema: %s: %s", e.Type, e.Message)
}

// RangeError reports a position outside the addressable range of a document
// or fragment.
type RangeError struct {
	Pos     int
	Message string
}

// Error implements the error interface.
func (e *RangeError) Error() string {
	return fmt.Sprintf("range: position %d %s", e.Pos, e.Message)
}

// ReplaceError reports a replacement that cannot produce a valid document,
// such as splicing block content into an inline-only parent or joining
// incompatible node types.
type ReplaceError struct {
	Message string
}

// Error implements the error interface.
func (e *ReplaceError) Error() string {
	return "replace: " + e.Message
}

func rangeErr(pos int, msg string) error {
	return &RangeError{Pos: pos, Message: msg}
}

func replaceErr(format string, args ...any) error {
	return &ReplaceError{Message: fmt.Sprintf(format, args...)}
}
