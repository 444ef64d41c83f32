package uniquekey

import "strings"

// The document ID is the key column values joined with '/'. To keep the
// join reversible for arbitrary values, each value is escaped first: the
// escape character '_' doubles itself and prefixes any literal '/'. A
// value ending in '/' or '_' additionally gets a sentinel '/' appended
// before escaping, so that no escaped value runs into the field
// separator; decoding strips the sentinel back off. A single
// left-to-right scan decodes; already-substituted output is never
// rescanned.
const (
	escapeChar = '_'
	separator  = '/'
)

// escapeField makes s safe to concatenate with the separator.
func escapeField(s string) string {
	if !strings.ContainsAny(s, "_/") {
		return s
	}
	if last := s[len(s)-1]; last == separator || last == escapeChar {
		s += string(separator)
	}
	var b strings.Builder
	b.Grow(len(s) + 2)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case escapeChar:
			b.WriteByte(escapeChar)
			b.WriteByte(escapeChar)
		case separator:
			b.WriteByte(escapeChar)
			b.WriteByte(separator)
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// joinFields escapes each field and joins them with the separator.
func joinFields(fields []string) string {
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = escapeField(f)
	}
	return strings.Join(escaped, string(separator))
}

// splitFields reverses joinFields. A trailing lone escape character means
// the input is not something joinFields produced; that is reported as an
// error, not recovered from.
func splitFields(id string) ([]string, error) {
	fields := make([]string, 0, 4)
	var b strings.Builder
	closeField := func() {
		// An unescaped field ends in '/' only when escapeField added the
		// sentinel; strip it.
		f := b.String()
		f = strings.TrimSuffix(f, string(separator))
		fields = append(fields, f)
		b.Reset()
	}
	for i := 0; i < len(id); i++ {
		switch id[i] {
		case escapeChar:
			if i+1 >= len(id) {
				return nil, &MalformedIDError{ID: id, Reason: "dangling escape character"}
			}
			switch id[i+1] {
			case escapeChar, separator:
				// "__" -> '_', "_/" -> '/'
				b.WriteByte(id[i+1])
				i++
			default:
				b.WriteByte(escapeChar)
			}
		case separator:
			closeField()
		default:
			b.WriteByte(id[i])
		}
	}
	closeField()
	return fields, nil
}
