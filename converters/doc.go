// Package converters holds what is shared between the individual metadata
// converters found in its subdirectories, chiefly the mapping of column types
// between mojap metadata and some other type system.
//
// Each converter works in one or both directions:
//
//	GenerateFromMeta   mojap metadata -> other representation
//	GenerateToMeta     other representation -> mojap metadata
package converters
