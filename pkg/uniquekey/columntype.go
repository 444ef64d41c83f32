package uniquekey

import "strings"

// ColumnType is the closed set of logical types a key column can have.
// Each type has a canonical string form used inside document IDs and a
// native representation used for SQL parameter binding.
type ColumnType int

const (
	// Int is a 32-bit integer, encoded as decimal text.
	Int ColumnType = iota
	// Long is a 64-bit integer, encoded as decimal text.
	Long
	// BigDecimal is an arbitrary-precision decimal, encoded as exact
	// decimal text with its scale preserved.
	BigDecimal
	// String is text, encoded verbatim.
	String
	// Date is a calendar date, encoded as "YYYY-MM-DD".
	Date
	// Time is a time of day, encoded as "HH:MM:SS".
	Time
	// Timestamp is an instant, encoded as milliseconds since the Unix
	// epoch. Epoch millis sidestep the fractional-second and timezone
	// formatting differences between source databases.
	Timestamp
)

var columnTypeNames = map[ColumnType]string{
	Int:        "int",
	Long:       "long",
	BigDecimal: "bigdecimal",
	String:     "string",
	Date:       "date",
	Time:       "time",
	Timestamp:  "timestamp",
}

func (t ColumnType) String() string {
	if name, ok := columnTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// parseColumnType resolves a declaration type keyword, case-insensitively.
func parseColumnType(keyword string) (ColumnType, bool) {
	keyword = strings.ToLower(keyword)
	for t, name := range columnTypeNames {
		if name == keyword {
			return t, true
		}
	}
	return 0, false
}

// TypeCode is a source-database column type code, as reported by the
// driver's ColumnType.DatabaseTypeName. Comparison is case-insensitive.
type TypeCode string

// columnTypeForCode translates a source type code into a ColumnType.
// Binary, BLOB, and structured codes have no canonical text form and are
// a configuration error for a key column.
func columnTypeForCode(column string, code TypeCode) (ColumnType, error) {
	switch strings.ToUpper(string(code)) {
	case "BIT", "BOOL", "BOOLEAN", "TINYINT", "SMALLINT", "INT2",
		"INT", "INTEGER", "INT4", "SERIAL", "MEDIUMINT":
		return Int, nil
	case "BIGINT", "INT8", "BIGSERIAL":
		return Long, nil
	case "DECIMAL", "NUMERIC":
		return BigDecimal, nil
	case "CHAR", "CHARACTER", "BPCHAR", "NCHAR", "VARCHAR", "NVARCHAR",
		"CHARACTER VARYING", "LONGVARCHAR", "LONGNVARCHAR", "TEXT",
		"NTEXT", "CLOB", "NCLOB", "DATALINK":
		return String, nil
	case "DATE":
		return Date, nil
	case "TIME", "TIMETZ":
		return Time, nil
	case "TIMESTAMP", "TIMESTAMPTZ", "DATETIME", "DATETIME2", "SMALLDATETIME":
		return Timestamp, nil
	default:
		return 0, configErrorf(
			"column %q: type %s is not supported for a unique key", column, code)
	}
}
