// Package metadata contains facilities for working with mojap table metadata.
// At the moment, it is mostly a 1:1 reflection of the json (or yaml) metadata
// documents described by the mojap metadata schema.
//
// One notable addition is the DataType, which is the parsed form of a column
// type string.  Types may be nested, e.g. "list<struct<id:int64, tags:list<string>>>",
// and converters work from the parsed form rather than the raw string.
//
// Validation is a two step process.  Documents are first checked against the
// metadata json schema, and then checked for internal consistency, such as
// partitions referring to real columns.
package metadata
