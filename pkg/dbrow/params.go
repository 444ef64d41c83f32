package dbrow

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"

	"github.com/hashicorp-forge/dbadapter/pkg/uniquekey"
)

// Params implements uniquekey.ParamBinder by accumulating a positional
// argument slice for database/sql. Values are converted to forms every
// supported driver accepts: dates become time.Time, times of day become
// "HH:MM:SS" text.
type Params struct {
	args []interface{}
}

// BindInt binds a 32-bit integer parameter.
func (p *Params) BindInt(v int32) { p.args = append(p.args, v) }

// BindLong binds a 64-bit integer parameter.
func (p *Params) BindLong(v int64) { p.args = append(p.args, v) }

// BindDecimal binds an arbitrary-precision decimal parameter. The driver
// receives its exact text form via decimal.Decimal's driver.Valuer.
func (p *Params) BindDecimal(v decimal.Decimal) { p.args = append(p.args, v) }

// BindString binds a text parameter.
func (p *Params) BindString(v string) { p.args = append(p.args, v) }

// BindDate binds a calendar date parameter as midnight UTC.
func (p *Params) BindDate(v civil.Date) { p.args = append(p.args, v.In(time.UTC)) }

// BindTime binds a time-of-day parameter as "HH:MM:SS" text.
func (p *Params) BindTime(v civil.Time) { p.args = append(p.args, v.String()) }

// BindTimestamp binds an instant parameter.
func (p *Params) BindTimestamp(v time.Time) { p.args = append(p.args, v) }

// Args returns the accumulated arguments, in bind order, for passing to
// QueryContext or ExecContext.
func (p *Params) Args() []interface{} {
	return append([]interface{}(nil), p.args...)
}

// Len returns the number of bound parameters.
func (p *Params) Len() int { return len(p.args) }

// TypeCodes builds the column name -> source type code table from a
// result set's metadata, for resolving unique key columns declared
// without an explicit type.
func TypeCodes(rows *sql.Rows) (map[string]uniquekey.TypeCode, error) {
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read result set column types: %w", err)
	}
	codes := make(map[string]uniquekey.TypeCode, len(columnTypes))
	for _, ct := range columnTypes {
		codes[ct.Name()] = uniquekey.TypeCode(ct.DatabaseTypeName())
	}
	return codes, nil
}
