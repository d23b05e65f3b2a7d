// Package fspath maps table names (schema, table) to relative, solidus
// delimited file paths, for laying out generated metadata files.
//
// Every name is escaped, so a path has exactly one segment per name and
// never steps outside the directory it is generated for.
package fspath

import (
	"net/url"
	"strings"
)

// Generator generates a relative, solidus delimited file path
// from the names of an entity, e.g. its schema and table.
type Generator interface {
	Generate(names ...string) string
}

// GeneratorFunc is a function that can be used to satisfy the Generator interface
type GeneratorFunc func(names ...string) string

// Generate a path from the given names
func (g GeneratorFunc) Generate(names ...string) string {
	return g(names...)
}

// Flat joins escaped names with dots, e.g. public, people -> public.people
var Flat Generator = GeneratorFunc(func(names ...string) string {
	return join(names, ".")
})

// SchemaDirs places each table in a directory named after its schema, e.g.
// public, people -> public/people
var SchemaDirs Generator = GeneratorFunc(func(names ...string) string {
	return join(names, "/")
})

// WithExt appends a file extension to generated paths
func WithExt(g Generator, ext string) Generator {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return GeneratorFunc(func(names ...string) string {
		return g.Generate(names...) + ext
	})
}

func join(names []string, sep string) string {
	escaped := make([]string, len(names))
	for i, name := range names {
		escaped[i] = Escape(name)
	}
	return strings.Join(escaped, sep)
}

// Escape makes a name safe to use as a single path segment.  Solidi, dots and
// anything else that is not safe in a path are percent encoded.
func Escape(name string) string {
	return strings.ReplaceAll(url.PathEscape(name), ".", "%2E")
}
