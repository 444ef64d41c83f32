package uniquekey

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
)

// UniqueKey is a frozen key configuration: it encodes a row's key columns
// into a document ID and decodes a document ID back into SQL parameters.
// It has no mutable state and is safe for concurrent use.
type UniqueKey struct {
	names          []string              // declared order, declared spelling
	types          map[string]ColumnType // lowercased name -> type
	docIDIsURL     bool
	contentColumns []string
	aclColumns     []string
}

// Columns returns the declared key column names in order.
func (uk *UniqueKey) Columns() []string {
	return append([]string(nil), uk.names...)
}

// DocIDIsURL reports whether the document ID is the raw URL column value.
func (uk *UniqueKey) DocIDIsURL() bool { return uk.docIDIsURL }

// MakeUniqueID reads the declared key columns from row and produces the
// document ID. A NULL key column yields a NullColumnError naming the
// column: a row without a complete primary key must be skipped, not
// encoded. In URL mode the single column's value is returned verbatim
// after absolute-URI validation.
func (uk *UniqueKey) MakeUniqueID(row Row) (string, error) {
	if uk.docIDIsURL {
		name := uk.names[0]
		if err := uk.checkNotNull(row, name); err != nil {
			return "", err
		}
		v, err := row.String(name)
		if err != nil {
			return "", err
		}
		u, err := url.Parse(v)
		if err != nil {
			return "", &InvalidURIError{Value: v, Err: err}
		}
		if !u.IsAbs() {
			return "", &InvalidURIError{Value: v}
		}
		return v, nil
	}

	fields := make([]string, len(uk.names))
	for i, name := range uk.names {
		field, err := uk.readField(row, name)
		if err != nil {
			return "", err
		}
		fields[i] = field
	}
	return joinFields(fields), nil
}

// DecodeID splits a document ID back into one canonical string value per
// declared key column. An ID with the wrong field count or a dangling
// escape cannot be one this codec produced and is rejected.
func (uk *UniqueKey) DecodeID(id string) ([]string, error) {
	if uk.docIDIsURL {
		return []string{id}, nil
	}
	fields, err := splitFields(id)
	if err != nil {
		return nil, err
	}
	if len(fields) != len(uk.names) {
		return nil, &MalformedIDError{
			ID: id,
			Reason: fmt.Sprintf("wrong number of values for primary key: got %d, want %d",
				len(fields), len(uk.names)),
		}
	}
	return fields, nil
}

// BindContentSQLValues decodes id and binds the configured content
// parameter columns, in order, into b. It does not execute anything.
func (uk *UniqueKey) BindContentSQLValues(b ParamBinder, id string) error {
	return uk.bindValues(b, id, uk.contentColumns)
}

// BindACLSQLValues decodes id and binds the configured ACL parameter
// columns, in order, into b.
func (uk *UniqueKey) BindACLSQLValues(b ParamBinder, id string) error {
	return uk.bindValues(b, id, uk.aclColumns)
}

func (uk *UniqueKey) bindValues(b ParamBinder, id string, columns []string) error {
	fields, err := uk.DecodeID(id)
	if err != nil {
		return err
	}
	byName := make(map[string]string, len(fields))
	for i, name := range uk.names {
		byName[strings.ToLower(name)] = fields[i]
	}
	for _, name := range columns {
		lower := strings.ToLower(name)
		if err := bindField(b, name, uk.types[lower], byName[lower]); err != nil {
			return err
		}
	}
	return nil
}

func (uk *UniqueKey) checkNotNull(row Row, name string) error {
	isNull, err := row.IsNull(name)
	if err != nil {
		return err
	}
	if isNull {
		return &NullColumnError{Column: name}
	}
	return nil
}

// readField reads one key column and formats it in the type's canonical
// string form.
func (uk *UniqueKey) readField(row Row, name string) (string, error) {
	if err := uk.checkNotNull(row, name); err != nil {
		return "", err
	}
	switch t := uk.types[strings.ToLower(name)]; t {
	case Int:
		v, err := row.Int32(name)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(int64(v), 10), nil
	case Long:
		v, err := row.Int64(name)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(v, 10), nil
	case BigDecimal:
		v, err := row.Decimal(name)
		if err != nil {
			return "", err
		}
		return v.String(), nil
	case String:
		return row.String(name)
	case Date:
		v, err := row.Date(name)
		if err != nil {
			return "", err
		}
		return v.String(), nil
	case Time:
		v, err := row.Time(name)
		if err != nil {
			return "", err
		}
		v.Nanosecond = 0
		return v.String(), nil
	case Timestamp:
		v, err := row.Timestamp(name)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(v.UnixMilli(), 10), nil
	default:
		return "", fmt.Errorf("column %q has unresolved type %v", name, t)
	}
}

// bindField parses one canonical string value and binds it as the next
// positional parameter.
func bindField(b ParamBinder, name string, t ColumnType, value string) error {
	switch t {
	case Int:
		v, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			return &ValueParseError{Column: name, Type: t, Value: value, Err: err}
		}
		b.BindInt(int32(v))
	case Long:
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return &ValueParseError{Column: name, Type: t, Value: value, Err: err}
		}
		b.BindLong(v)
	case BigDecimal:
		v, err := decimal.NewFromString(value)
		if err != nil {
			return &ValueParseError{Column: name, Type: t, Value: value, Err: err}
		}
		b.BindDecimal(v)
	case String:
		b.BindString(value)
	case Date:
		v, err := civil.ParseDate(value)
		if err != nil {
			return &ValueParseError{Column: name, Type: t, Value: value, Err: err}
		}
		b.BindDate(v)
	case Time:
		v, err := civil.ParseTime(value)
		if err != nil {
			return &ValueParseError{Column: name, Type: t, Value: value, Err: err}
		}
		b.BindTime(v)
	case Timestamp:
		millis, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return &ValueParseError{Column: name, Type: t, Value: value, Err: err}
		}
		b.BindTimestamp(time.UnixMilli(millis).UTC())
	default:
		return fmt.Errorf("column %q has unresolved type %v", name, t)
	}
	return nil
}
