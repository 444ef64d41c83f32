package uniquekey

import (
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
)

// Row is the codec's view of one result-set row. Columns are addressed by
// name, case-insensitively; every getter reports an error for a column
// the row does not have. IsNull must be checked before a typed getter,
// since the getters' zero values are indistinguishable from real data.
//
// pkg/dbrow implements Row over database/sql.
type Row interface {
	IsNull(column string) (bool, error)
	Int32(column string) (int32, error)
	Int64(column string) (int64, error)
	Decimal(column string) (decimal.Decimal, error)
	String(column string) (string, error)
	Date(column string) (civil.Date, error)
	Time(column string) (civil.Time, error)
	Timestamp(column string) (time.Time, error)
}

// ParamBinder receives decoded key values as positional SQL parameters,
// in call order. Implementations accumulate values for a prepared
// statement; they do not execute anything.
//
// pkg/dbrow provides Params, a ParamBinder producing a database/sql
// argument slice.
type ParamBinder interface {
	BindInt(v int32)
	BindLong(v int64)
	BindDecimal(v decimal.Decimal)
	BindString(v string)
	BindDate(v civil.Date)
	BindTime(v civil.Time)
	BindTimestamp(v time.Time)
}
