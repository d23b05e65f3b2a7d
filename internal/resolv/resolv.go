// Package resolv turns user supplied references to catalog entities, such as
// public.people or "my.schema".people.id, into coordinates.
package resolv

import (
	"fmt"
	"strings"
)

// Coords locate an entity as [schema [, table [, column]]].  Empty coords
// denote the whole database.
type Coords []string

// Schema named by the coordinates, if any
func (c Coords) Schema() string {
	return c.at(0)
}

// Table named by the coordinates, if any
func (c Coords) Table() string {
	return c.at(1)
}

// Column named by the coordinates, if any
func (c Coords) Column() string {
	return c.at(2)
}

func (c Coords) at(i int) string {
	if i < len(c) {
		return c[i]
	}
	return ""
}

func (c Coords) String() string {
	return strings.Join(c, ".")
}

// Cxt establishes a context for resolving references,
// e.g. a default schema
type Cxt struct {
	schema string
}

// NewCxt establishes a new resolver context.  When a schema is given, references
// are relative to it.
func NewCxt(schema string) Cxt {
	return Cxt{schema: schema}
}

// ParseRef parses and resolves a set of strings into coordinates.  Each string
// may hold one or more dot separated names; names containing dots may be
// double quoted.
func (cxt *Cxt) ParseRef(refs []string) (Coords, error) {
	var coords Coords
	if cxt.schema != "" {
		coords = Coords{cxt.schema}
	}

	for _, ref := range refs {
		names, err := split(ref)
		if err != nil {
			return nil, err
		}
		coords = append(coords, names...)
	}

	if len(coords) > 3 {
		return nil, fmt.Errorf("%s is too deep, expected at most schema.table.column", coords)
	}
	return coords, nil
}

// split separates a reference into names at unquoted dots
func split(ref string) ([]string, error) {
	var names []string
	var name strings.Builder
	quoted, wasQuoted := false, false

	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case c == '"' && quoted && i+1 < len(ref) && ref[i+1] == '"':
			name.WriteByte('"')
			i++
		case c == '"':
			quoted = !quoted
			wasQuoted = true
		case c == '.' && !quoted:
			if name.Len() == 0 && !wasQuoted {
				return nil, fmt.Errorf("empty name in reference %q", ref)
			}
			names = append(names, name.String())
			name.Reset()
			wasQuoted = false
		default:
			name.WriteByte(c)
		}
	}

	if quoted {
		return nil, fmt.Errorf("unterminated quote in reference %q", ref)
	}
	if name.Len() == 0 && !wasQuoted {
		return nil, fmt.Errorf("empty name in reference %q", ref)
	}
	return append(names, name.String()), nil
}
