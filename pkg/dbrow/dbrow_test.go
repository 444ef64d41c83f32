package dbrow

import (
	"database/sql"
	"testing"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/hashicorp-forge/dbadapter/pkg/uniquekey"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func scanOneRow(t *testing.T, db *sql.DB, query string) *Row {
	t.Helper()
	rows, err := db.Query(query)
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next(), "expected a row")
	row, err := Scan(rows)
	require.NoError(t, err)
	return row
}

func TestScan(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec("create table data(numnum integer, strstr text, note text)")
	require.NoError(t, err)
	_, err = db.Exec("insert into data(numnum, strstr, note) values(345, 'abc', null)")
	require.NoError(t, err)

	row := scanOneRow(t, db, "select * from data")

	t.Run("columns in result-set order", func(t *testing.T) {
		assert.Equal(t, []string{"numnum", "strstr", "note"}, row.Columns())
	})

	t.Run("typed getters", func(t *testing.T) {
		n32, err := row.Int32("numnum")
		require.NoError(t, err)
		assert.Equal(t, int32(345), n32)

		n64, err := row.Int64("numnum")
		require.NoError(t, err)
		assert.Equal(t, int64(345), n64)

		s, err := row.String("strstr")
		require.NoError(t, err)
		assert.Equal(t, "abc", s)
	})

	t.Run("case-insensitive addressing", func(t *testing.T) {
		s, err := row.String("StrStr")
		require.NoError(t, err)
		assert.Equal(t, "abc", s)
	})

	t.Run("NULL observation", func(t *testing.T) {
		isNull, err := row.IsNull("note")
		require.NoError(t, err)
		assert.True(t, isNull)

		isNull, err = row.IsNull("numnum")
		require.NoError(t, err)
		assert.False(t, isNull)
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := row.String("missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"missing"`)

		_, err = row.IsNull("missing")
		require.Error(t, err)
	})
}

func TestRow_conversions(t *testing.T) {
	t.Run("decimal from text and numbers", func(t *testing.T) {
		row := NewRow(
			[]string{"a", "b", "c"},
			[]interface{}{"1234567.89", []byte("0.50"), int64(42)},
		)
		d, err := row.Decimal("a")
		require.NoError(t, err)
		assert.Equal(t, "1234567.89", d.String())

		d, err = row.Decimal("b")
		require.NoError(t, err)
		assert.Equal(t, "0.50", d.String())

		d, err = row.Decimal("c")
		require.NoError(t, err)
		assert.True(t, d.Equal(decimal.NewFromInt(42)))
	})

	t.Run("date and time from text and time.Time", func(t *testing.T) {
		ts := time.Date(2007, 8, 9, 12, 34, 56, 0, time.UTC)
		row := NewRow(
			[]string{"d1", "d2", "t1", "t2"},
			[]interface{}{"2007-08-09", ts, "12:34:56", ts},
		)
		d, err := row.Date("d1")
		require.NoError(t, err)
		assert.Equal(t, civil.Date{Year: 2007, Month: 8, Day: 9}, d)

		d, err = row.Date("d2")
		require.NoError(t, err)
		assert.Equal(t, civil.Date{Year: 2007, Month: 8, Day: 9}, d)

		tt, err := row.Time("t1")
		require.NoError(t, err)
		assert.Equal(t, civil.Time{Hour: 12, Minute: 34, Second: 56}, tt)

		tt, err = row.Time("t2")
		require.NoError(t, err)
		assert.Equal(t, civil.Time{Hour: 12, Minute: 34, Second: 56}, tt)
	})

	t.Run("timestamp layouts", func(t *testing.T) {
		want := time.Date(2014, 1, 2, 3, 4, 5, 0, time.UTC)
		for _, raw := range []interface{}{
			want,
			"2014-01-02T03:04:05Z",
			"2014-01-02 03:04:05+00:00",
			"2014-01-02 03:04:05",
		} {
			row := NewRow([]string{"ts"}, []interface{}{raw})
			got, err := row.Timestamp("ts")
			require.NoError(t, err, "%v", raw)
			assert.True(t, got.Equal(want), "%v -> %v", raw, got)
		}
	})

	t.Run("integer from text", func(t *testing.T) {
		row := NewRow([]string{"n"}, []interface{}{[]byte("123")})
		v, err := row.Int64("n")
		require.NoError(t, err)
		assert.Equal(t, int64(123), v)
	})

	t.Run("int32 overflow", func(t *testing.T) {
		row := NewRow([]string{"n"}, []interface{}{int64(1) << 40})
		_, err := row.Int32("n")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "overflows int32")
	})

	t.Run("string leniency", func(t *testing.T) {
		row := NewRow([]string{"n", "f", "b"}, []interface{}{int64(7), 1.5, true})
		for column, want := range map[string]string{"n": "7", "f": "1.5", "b": "true"} {
			s, err := row.String(column)
			require.NoError(t, err)
			assert.Equal(t, want, s)
		}
	})
}

func TestParams(t *testing.T) {
	p := &Params{}
	p.BindInt(888)
	p.BindString("bluesky")
	p.BindTimestamp(time.UnixMilli(1414701070212).UTC())
	p.BindDate(civil.Date{Year: 2014, Month: 1, Day: 1})
	p.BindTime(civil.Time{Hour: 2, Minute: 3, Second: 4})
	p.BindLong(123)
	p.BindDecimal(decimal.RequireFromString("1234567.89"))

	args := p.Args()
	require.Equal(t, 7, p.Len())
	assert.Equal(t, int32(888), args[0])
	assert.Equal(t, "bluesky", args[1])
	assert.Equal(t, time.UnixMilli(1414701070212).UTC(), args[2])
	assert.Equal(t, time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC), args[3])
	assert.Equal(t, "02:03:04", args[4])
	assert.Equal(t, int64(123), args[5])
	assert.Equal(t, decimal.RequireFromString("1234567.89"), args[6])
}

func TestParams_bindIntoStatement(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec("create table data(a text, b text, c text)")
	require.NoError(t, err)

	// Bind the same decoded key value into repeated positional slots.
	p := &Params{}
	p.BindString("5/5")
	p.BindString("6/6")
	p.BindString("5/5")
	_, err = db.Exec("insert into data(a, b, c) values (?, ?, ?)", p.Args()...)
	require.NoError(t, err)

	row := scanOneRow(t, db, "select * from data")
	for column, want := range map[string]string{"a": "5/5", "b": "6/6", "c": "5/5"} {
		s, err := row.String(column)
		require.NoError(t, err)
		assert.Equal(t, want, s)
	}
}

func TestTypeCodes(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec("create table data(numnum integer, strstr text)")
	require.NoError(t, err)

	rows, err := db.Query("select * from data limit 0")
	require.NoError(t, err)
	defer rows.Close()

	codes, err := TypeCodes(rows)
	require.NoError(t, err)
	assert.Equal(t, map[string]uniquekey.TypeCode{
		"numnum": "INTEGER",
		"strstr": "TEXT",
	}, codes)
}
