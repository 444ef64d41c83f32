package uniquekey

import "strings"

// Builder accumulates and validates a unique key configuration before
// freezing it into a UniqueKey. A Builder is not safe for concurrent use;
// Build once per connector configuration load.
type Builder struct {
	names          []string            // declared order, declared spelling
	types          map[string]ColumnType // lowercased name -> type
	docIDIsURL     bool
	contentColumns []string
	aclColumns     []string
}

// NewBuilder parses a unique key declaration of comma-separated
// "name" or "name:type" entries. Whitespace around names, colons, and
// type keywords is ignored. Columns declared without a type must be
// resolved via AddColumnTypes before Build.
func NewBuilder(declaration string) (*Builder, error) {
	if strings.TrimSpace(declaration) == "" {
		return nil, configErrorf("unique key declaration cannot be empty")
	}

	b := &Builder{types: make(map[string]ColumnType)}
	for _, entry := range strings.Split(declaration, ",") {
		name, typeKeyword, hasType := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, configErrorf("unique key declaration %q has an empty column name", declaration)
		}
		lower := strings.ToLower(name)
		if _, dup := b.types[lower]; dup {
			return nil, configErrorf("unique key column %q was repeated", name)
		}
		if hasType {
			t, ok := parseColumnType(strings.TrimSpace(typeKeyword))
			if !ok {
				return nil, configErrorf("invalid unique key type %q for %q",
					strings.TrimSpace(typeKeyword), name)
			}
			b.types[lower] = t
		}
		b.names = append(b.names, name)
	}
	return b, nil
}

// AddColumnTypes resolves columns that were declared without an explicit
// type, from a source-column name -> type code table (as produced by
// the database's result set metadata). Codes for explicitly typed columns
// are ignored. A code with no unique key mapping (binary, BLOB,
// structured) is a configuration error.
func (b *Builder) AddColumnTypes(codes map[string]TypeCode) error {
	lowered := make(map[string]TypeCode, len(codes))
	for name, code := range codes {
		lowered[strings.ToLower(name)] = code
	}
	for _, name := range b.names {
		lower := strings.ToLower(name)
		if _, typed := b.types[lower]; typed {
			continue
		}
		code, ok := lowered[lower]
		if !ok {
			continue
		}
		t, err := columnTypeForCode(name, code)
		if err != nil {
			return err
		}
		b.types[lower] = t
	}
	return nil
}

// SetDocIDIsURL marks the key as URL mode: the document ID is the single
// string key column's value, verbatim, validated as an absolute URI.
func (b *Builder) SetDocIDIsURL(isURL bool) *Builder {
	b.docIDIsURL = isURL
	return b
}

// SetContentSQLColumns configures which key columns, in which order, are
// bound into the content retrieval query's positional parameters. Names
// may repeat; each must already be declared.
func (b *Builder) SetContentSQLColumns(declaration string) error {
	columns, err := b.parameterColumns(declaration, "content")
	if err != nil {
		return err
	}
	b.contentColumns = columns
	return nil
}

// SetACLSQLColumns is SetContentSQLColumns for the ACL query.
func (b *Builder) SetACLSQLColumns(declaration string) error {
	columns, err := b.parameterColumns(declaration, "ACL")
	if err != nil {
		return err
	}
	b.aclColumns = columns
	return nil
}

func (b *Builder) parameterColumns(declaration, which string) ([]string, error) {
	if strings.TrimSpace(declaration) == "" {
		return nil, nil
	}
	var columns []string
	for _, entry := range strings.Split(declaration, ",") {
		name := strings.TrimSpace(entry)
		if !b.declared(name) {
			return nil, configErrorf("unknown column %q in %s SQL parameters", name, which)
		}
		columns = append(columns, name)
	}
	return columns, nil
}

func (b *Builder) declared(name string) bool {
	lower := strings.ToLower(name)
	for _, n := range b.names {
		if strings.ToLower(n) == lower {
			return true
		}
	}
	return false
}

// Columns returns the declared key column names in order.
func (b *Builder) Columns() []string {
	return append([]string(nil), b.names...)
}

// ColumnTypes returns the resolved type for each declared column, keyed
// by declared spelling. Unresolved columns are absent.
func (b *Builder) ColumnTypes() map[string]ColumnType {
	out := make(map[string]ColumnType, len(b.names))
	for _, name := range b.names {
		if t, ok := b.types[strings.ToLower(name)]; ok {
			out[name] = t
		}
	}
	return out
}

// ContentSQLColumns returns the configured content parameter columns.
func (b *Builder) ContentSQLColumns() []string {
	return append([]string(nil), b.contentColumns...)
}

// ACLSQLColumns returns the configured ACL parameter columns.
func (b *Builder) ACLSQLColumns() []string {
	return append([]string(nil), b.aclColumns...)
}

// Build validates the accumulated state and freezes it into an immutable
// UniqueKey. The Builder remains usable afterwards; the UniqueKey does
// not observe later mutations.
func (b *Builder) Build() (*UniqueKey, error) {
	var unresolved []string
	for _, name := range b.names {
		if _, ok := b.types[strings.ToLower(name)]; !ok {
			unresolved = append(unresolved, name)
		}
	}
	if len(unresolved) > 0 {
		return nil, configErrorf("unknown column type for columns: %v", unresolved)
	}

	if b.docIDIsURL {
		if len(b.names) != 1 || b.types[strings.ToLower(b.names[0])] != String {
			return nil, configErrorf(
				"the unique key must be a single string column when the document ID is a URL")
		}
	}

	types := make(map[string]ColumnType, len(b.types))
	for name, t := range b.types {
		types[name] = t
	}
	return &UniqueKey{
		names:          append([]string(nil), b.names...),
		types:          types,
		docIDIsURL:     b.docIDIsURL,
		contentColumns: append([]string(nil), b.contentColumns...),
		aclColumns:     append([]string(nil), b.aclColumns...),
	}, nil
}
