package mojap

import (
	"context"
	"strings"
)

// Type names a kind of catalog entity
type Type int

// Catalog entity types, ordered by specificity, e.g. Database > Schema
const (
	Any Type = iota
	Column
	Table
	Schema
	Database
)

var typeNames = map[Type]string{
	Any:      "any",
	Column:   "column",
	Table:    "table",
	Schema:   "schema",
	Database: "database",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseType parses a type name (case insensitive).  Unknown names
// yield Any.
func ParseType(name string) Type {
	for t, n := range typeNames {
		if strings.EqualFold(name, n) {
			return t
		}
	}
	return Any
}

// EntityRef represents a single catalog entity.
type EntityRef struct {
	ID     string     // Name of the entity, unique within its parent
	Addr   string     // Physical address of the entity (connection string, qualified name)
	Type   Type       // Entity type
	Parent *EntityRef // Parent entity, nil for the database
}

// Coords returns the names of an entity and its parents, starting below
// the database, e.g. [schema, table, column]
func (e EntityRef) Coords() []string {
	var coords []string
	for ref := &e; ref != nil && ref.Type != Database; ref = ref.Parent {
		coords = append([]string{ref.ID}, coords...)
	}
	return coords
}

// Select establishes the kind of entities desired from a walk.
type Select struct {
	Type Type
}

// Contains determines whether an entity matches the selection.
func (s Select) Contains(e EntityRef) bool {
	return s.Type == Any || s.Type == e.Type
}

// Walker walks the entities of a catalog.
//
// loc identifies where to start the walk, as a list of coordinates,
// e.g. ("public", "users") would walk the users table in the public schema.
// With no loc, the walk starts at the top of the catalog.
type Walker interface {
	Walk(ctx context.Context, desired Select, f func(EntityRef) error, loc ...string) error
}
