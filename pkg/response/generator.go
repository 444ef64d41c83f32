// Package response renders a retrieved database row into a document body
// for serving or indexing. Each mode of operation is a Generator; the
// connector picks one from configuration.
package response

import (
	"fmt"
	"io"
	"net/url"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/dbadapter/pkg/dbrow"
)

// Meta describes the generated body.
type Meta struct {
	ContentType string
	DisplayURL  string // empty when no display URL applies
}

// Generator renders one row into w and reports the body's metadata.
type Generator interface {
	Generate(row *dbrow.Row, w io.Writer) (*Meta, error)
}

// Config selects and parameterizes a Generator.
type Config struct {
	// Mode is one of "rowToCSV", "contentColumn", "filepathColumn".
	Mode string

	// ColumnName is the content column for the single-column modes.
	ColumnName string

	// ContentTypeOverride forces the body's content type.
	// ContentTypeColumn reads it from a row column. At most one may be
	// set.
	ContentTypeOverride string
	ContentTypeColumn   string

	// DisplayURLColumn optionally overrides the display URL from a row
	// column.
	DisplayURLColumn string
}

// New builds the Generator for cfg.Mode. fs backs the filepathColumn
// mode; pass afero.NewOsFs() outside tests.
func New(cfg Config, fs afero.Fs, log hclog.Logger) (Generator, error) {
	if cfg.ContentTypeOverride != "" && cfg.ContentTypeColumn != "" {
		return nil, fmt.Errorf(
			"cannot set both content type override and content type column")
	}
	base := base{cfg: cfg, log: log}
	switch cfg.Mode {
	case "rowToCSV":
		return &rowToCSV{base: base}, nil
	case "contentColumn":
		if cfg.ColumnName == "" {
			return nil, fmt.Errorf("contentColumn mode requires a column name")
		}
		return &contentColumn{base: base}, nil
	case "filepathColumn":
		if cfg.ColumnName == "" {
			return nil, fmt.Errorf("filepathColumn mode requires a column name")
		}
		return &filepathColumn{base: base, fs: fs}, nil
	default:
		return nil, fmt.Errorf("unknown response mode %q", cfg.Mode)
	}
}

type base struct {
	cfg Config
	log hclog.Logger
}

// displayURL resolves the optional display URL column. An invalid URL in
// the column is logged and dropped; it never fails the row.
func (b *base) displayURL(row *dbrow.Row) string {
	if b.cfg.DisplayURLColumn == "" {
		return ""
	}
	isNull, err := row.IsNull(b.cfg.DisplayURLColumn)
	if err != nil || isNull {
		return ""
	}
	raw, err := row.String(b.cfg.DisplayURLColumn)
	if err != nil {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		b.log.Warn("ignoring invalid display URL",
			"column", b.cfg.DisplayURLColumn, "value", raw)
		return ""
	}
	return raw
}

// contentType resolves the body content type, falling back to def.
func (b *base) contentType(row *dbrow.Row, def string) string {
	if b.cfg.ContentTypeOverride != "" {
		return b.cfg.ContentTypeOverride
	}
	if b.cfg.ContentTypeColumn != "" {
		if isNull, err := row.IsNull(b.cfg.ContentTypeColumn); err == nil && !isNull {
			if ct, err := row.String(b.cfg.ContentTypeColumn); err == nil && ct != "" {
				return ct
			}
		}
	}
	return def
}

// contentColumn streams a single column's value as the body.
type contentColumn struct {
	base
}

func (g *contentColumn) Generate(row *dbrow.Row, w io.Writer) (*Meta, error) {
	meta := &Meta{
		ContentType: g.contentType(row, "application/octet-stream"),
		DisplayURL:  g.displayURL(row),
	}
	v, ok := row.Value(g.cfg.ColumnName)
	if !ok {
		return nil, fmt.Errorf("content column %q not in result set", g.cfg.ColumnName)
	}
	switch v := v.(type) {
	case nil:
		// NULL content is an empty body, not an error.
	case []byte:
		if _, err := w.Write(v); err != nil {
			return nil, err
		}
	case string:
		if _, err := io.WriteString(w, v); err != nil {
			return nil, err
		}
	default:
		s, err := row.String(g.cfg.ColumnName)
		if err != nil {
			return nil, fmt.Errorf("content column %q: %w", g.cfg.ColumnName, err)
		}
		if _, err := io.WriteString(w, s); err != nil {
			return nil, err
		}
	}
	return meta, nil
}

// filepathColumn reads the body from a file whose path is held in a
// column.
type filepathColumn struct {
	base
	fs afero.Fs
}

func (g *filepathColumn) Generate(row *dbrow.Row, w io.Writer) (*Meta, error) {
	meta := &Meta{
		ContentType: g.contentType(row, "application/octet-stream"),
		DisplayURL:  g.displayURL(row),
	}
	path, err := row.String(g.cfg.ColumnName)
	if err != nil {
		return nil, fmt.Errorf("filepath column %q: %w", g.cfg.ColumnName, err)
	}
	f, err := g.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open content file %q: %w", path, err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return nil, fmt.Errorf("failed to stream content file %q: %w", path, err)
	}
	return meta, nil
}
