package response

import (
	"io"
	"strings"

	"github.com/hashicorp-forge/dbadapter/pkg/dbrow"
)

// rowToCSV renders the whole row as a two-line CSV document: column
// labels, then values. NULL values render as empty fields.
type rowToCSV struct {
	base
}

func (g *rowToCSV) Generate(row *dbrow.Row, w io.Writer) (*Meta, error) {
	meta := &Meta{
		ContentType: "text/plain; charset=utf-8",
		DisplayURL:  g.displayURL(row),
	}

	columns := row.Columns()
	header := make([]string, len(columns))
	values := make([]string, len(columns))
	for i, column := range columns {
		header[i] = csvField(column)
		v, _ := row.Value(column)
		if v == nil {
			values[i] = ""
			continue
		}
		s, err := row.String(column)
		if err != nil {
			// Binary and structured values have no text rendering; skip
			// the value, keep the column.
			g.log.Warn("skipping column in CSV body", "column", column, "error", err)
			s = ""
		}
		values[i] = csvField(s)
	}

	doc := strings.Join(header, ",") + "\n" + strings.Join(values, ",") + "\n"
	if _, err := io.WriteString(w, doc); err != nil {
		return nil, err
	}
	return meta, nil
}

// csvField quotes a field when it contains a comma, newline, or double
// quote; embedded double quotes are doubled.
func csvField(s string) string {
	if !strings.ContainsAny(s, ",\n\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
