package uniquekey

import "fmt"

// ConfigError reports an invalid unique key configuration: malformed
// declaration syntax, an unknown type keyword, a duplicate or unresolved
// column, or an unknown name in a parameter list. Configuration errors
// are fatal; the connector must refuse to start on an inconsistent key
// schema.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return e.msg }

func configErrorf(format string, args ...interface{}) *ConfigError {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

// NullColumnError reports a declared key column that was SQL NULL for a
// row at encode time. A row without a complete primary key cannot be
// identified; the caller should skip or report the row, never encode it.
type NullColumnError struct {
	Column string
}

func (e *NullColumnError) Error() string {
	return fmt.Sprintf("column %q is NULL in a unique key row", e.Column)
}

// MalformedIDError reports a document ID this codec could not have
// produced: wrong number of fields or a dangling escape character.
// Malformed IDs are rejected, never repaired.
type MalformedIDError struct {
	ID     string
	Reason string
}

func (e *MalformedIDError) Error() string {
	return fmt.Sprintf("malformed document ID %q: %s", e.ID, e.Reason)
}

// InvalidURIError reports that, in URL mode, the key column's value is
// not a syntactically valid absolute URI.
type InvalidURIError struct {
	Value string
	Err   error
}

func (e *InvalidURIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("document ID %q is not a valid absolute URI: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("document ID %q is not a valid absolute URI", e.Value)
}

func (e *InvalidURIError) Unwrap() error { return e.Err }

// ValueParseError reports a decoded ID field that cannot be parsed as its
// column's declared type at bind time.
type ValueParseError struct {
	Column string
	Type   ColumnType
	Value  string
	Err    error
}

func (e *ValueParseError) Error() string {
	return fmt.Sprintf("value %q for column %q cannot be parsed as %s: %v",
		e.Value, e.Column, e.Type, e.Err)
}

func (e *ValueParseError) Unwrap() error { return e.Err }
