// Package uniquekey turns a row's composite, typed primary key into a
// single opaque document ID and back again.
//
// A connector configuration declares the key columns once, as
// "name:type" pairs:
//
//	uk, err := uniquekey.NewBuilder("id:int, name:string")
//	if err != nil { ... }
//	key, err := uk.Build()
//
// The resulting UniqueKey is immutable and safe for concurrent use. It
// offers two directions:
//
//  1. MakeUniqueID reads the declared columns from a row and produces the
//     document ID. The ID is a lossless encoding: any column value,
//     including empty strings and values containing the separator itself,
//     round-trips exactly.
//
//  2. BindContentSQLValues / BindACLSQLValues decode a previously issued
//     ID and bind the typed column values into the positional parameters
//     of a retrieval or ACL query.
//
// Column values are joined with '/' after escaping, with '_' as the
// escape character ('_' -> "__", '/' -> "_/"; a value ending in either
// gets a sentinel '/' before escaping). Decoding rejects IDs with
// the wrong field count or a dangling escape rather than guessing; an ID
// this codec did not produce must never be repaired into one it could
// have.
//
// Columns declared without an explicit type are resolved later from the
// source database's reported column types via Builder.AddColumnTypes.
package uniquekey
