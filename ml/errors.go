package ml

import (
	"fmt"
	"strings"
)

// ArtifactLoadError reports a model artifact that cannot be served. It is fatal at startup.
type ArtifactLoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ArtifactLoadError) Error() string {
	msg := fmt.Sprintf("load model artifact %q: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ArtifactLoadError) Unwrap() error {
	return e.Err
}

// SchemaMismatchError reports a table or vector whose columns do not line up with the schema.
type SchemaMismatchError struct {
	Reason   string
	Column   string
	Expected int
	Got      int
}

func (e *SchemaMismatchError) Error() string {
	var b strings.Builder
	b.WriteString("schema mismatch: ")
	b.WriteString(e.Reason)
	if e.Column != "" {
		fmt.Fprintf(&b, " (column %q)", e.Column)
	}
	if e.Expected != 0 || e.Got != 0 {
		fmt.Fprintf(&b, " (expected %d, got %d)", e.Expected, e.Got)
	}
	return b.String()
}

// InvalidFieldValueError reports a value outside its field's declared domain.
// Row is 1-based for table input and 0 for a single record.
type InvalidFieldValueError struct {
	Field  string
	Value  string
	Row    int
	Reason string
}

func (e *InvalidFieldValueError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: invalid value %q for %s: %s", e.Row, e.Value, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid value %q for %s: %s", e.Value, e.Field, e.Reason)
}
