// Package dbrow adapts database/sql result sets to the row and parameter
// interfaces consumed by pkg/uniquekey, and smooths over the dynamic
// value types different drivers produce (int64 vs string vs []byte vs
// time.Time for the same logical column).
package dbrow

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
)

// Row is one fully scanned result-set row. Columns are addressed by name,
// case-insensitively. Row implements uniquekey.Row.
type Row struct {
	columns []string
	values  map[string]interface{}
}

// Scan reads the current row of rows into a Row. The caller drives
// rows.Next.
func Scan(rows *sql.Rows) (*Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result set columns: %w", err)
	}
	raw := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}
	return NewRow(columns, raw), nil
}

// NewRow builds a Row from plain column names and values. A nil value is
// SQL NULL. Intended for tests and non-SQL row sources.
func NewRow(columns []string, values []interface{}) *Row {
	byName := make(map[string]interface{}, len(columns))
	for i, name := range columns {
		byName[strings.ToLower(name)] = values[i]
	}
	return &Row{
		columns: append([]string(nil), columns...),
		values:  byName,
	}
}

// Columns returns the column names in result-set order.
func (r *Row) Columns() []string {
	return append([]string(nil), r.columns...)
}

// Value returns the raw driver value for a column and whether the column
// exists.
func (r *Row) Value(column string) (interface{}, bool) {
	v, ok := r.values[strings.ToLower(column)]
	return v, ok
}

func (r *Row) lookup(column string) (interface{}, error) {
	v, ok := r.values[strings.ToLower(column)]
	if !ok {
		return nil, fmt.Errorf("no column %q in result set", column)
	}
	return v, nil
}

// IsNull reports whether the column's value is SQL NULL.
func (r *Row) IsNull(column string) (bool, error) {
	v, err := r.lookup(column)
	if err != nil {
		return false, err
	}
	return v == nil, nil
}

// Int32 returns the column as a 32-bit integer.
func (r *Row) Int32(column string) (int32, error) {
	v, err := r.Int64(column)
	if err != nil {
		return 0, err
	}
	if v < -1<<31 || v > 1<<31-1 {
		return 0, fmt.Errorf("column %q value %d overflows int32", column, v)
	}
	return int32(v), nil
}

// Int64 returns the column as a 64-bit integer.
func (r *Row) Int64(column string) (int64, error) {
	v, err := r.lookup(column)
	if err != nil {
		return 0, err
	}
	switch v := v.(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, conversionError(column, v, "integer")
	}
}

// Decimal returns the column as an arbitrary-precision decimal.
func (r *Row) Decimal(column string) (decimal.Decimal, error) {
	v, err := r.lookup(column)
	if err != nil {
		return decimal.Decimal{}, err
	}
	switch v := v.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		return decimal.NewFromString(v)
	case []byte:
		return decimal.NewFromString(string(v))
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		// Lossy fallback for drivers that surface NUMERIC as float.
		return decimal.NewFromFloat(v), nil
	default:
		return decimal.Decimal{}, conversionError(column, v, "decimal")
	}
}

// String returns the column as text. Non-text values are formatted the
// way the driver would render them.
func (r *Row) String(column string) (string, error) {
	v, err := r.lookup(column)
	if err != nil {
		return "", err
	}
	switch v := v.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	default:
		return "", conversionError(column, v, "string")
	}
}

// Date returns the column as a calendar date.
func (r *Row) Date(column string) (civil.Date, error) {
	v, err := r.lookup(column)
	if err != nil {
		return civil.Date{}, err
	}
	switch v := v.(type) {
	case time.Time:
		return civil.DateOf(v), nil
	case civil.Date:
		return v, nil
	case string:
		return civil.ParseDate(v)
	case []byte:
		return civil.ParseDate(string(v))
	default:
		return civil.Date{}, conversionError(column, v, "date")
	}
}

// Time returns the column as a time of day.
func (r *Row) Time(column string) (civil.Time, error) {
	v, err := r.lookup(column)
	if err != nil {
		return civil.Time{}, err
	}
	switch v := v.(type) {
	case time.Time:
		return civil.TimeOf(v), nil
	case civil.Time:
		return v, nil
	case string:
		return civil.ParseTime(v)
	case []byte:
		return civil.ParseTime(string(v))
	default:
		return civil.Time{}, conversionError(column, v, "time")
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// Timestamp returns the column as an instant.
func (r *Row) Timestamp(column string) (time.Time, error) {
	v, err := r.lookup(column)
	if err != nil {
		return time.Time{}, err
	}
	switch v := v.(type) {
	case time.Time:
		return v, nil
	case string:
		return parseTimestamp(column, v)
	case []byte:
		return parseTimestamp(column, string(v))
	default:
		return time.Time{}, conversionError(column, v, "timestamp")
	}
}

func parseTimestamp(column, s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("column %q value %q is not a recognized timestamp", column, s)
}

func conversionError(column string, v interface{}, want string) error {
	return fmt.Errorf("column %q has driver type %T, not convertible to %s", column, v, want)
}
