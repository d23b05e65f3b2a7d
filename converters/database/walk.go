package database

import (
	"context"
	"strings"

	mojap "github.com/pjxcog/mojap-metadata"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a schema, table or column does not exist
var ErrNotFound = errors.New("not found")

// Catalog presents a database as a tree of entities: database, schema, table, column
type Catalog struct {
	Name      string // Name of the database, used as the ID of the database entity
	converter *Converter
	q         Queryer
}

// Catalog binds the converter to a database, so that it may be walked
func (c *Converter) Catalog(q Queryer, name string) *Catalog {
	return &Catalog{
		Name:      name,
		converter: c,
		q:         q,
	}
}

var _ mojap.Walker = &Catalog{}

// Walk iterates through the desired entities underneath the given location.
// loc is ([schema [,table [,column]]]).  The entity at loc itself is included;
// with no loc, the walk starts from the database.
//
// Children of an entity are listed before f is called on any of them, so f may
// query the database.
func (c *Catalog) Walk(ctx context.Context, desired mojap.Select, f func(mojap.EntityRef) error, loc ...string) error {
	if len(loc) > 3 {
		return errors.Errorf("location %s is too deep, expected at most schema.table.column", strings.Join(loc, "."))
	}

	db := mojap.EntityRef{
		ID:   c.Name,
		Addr: c.Name,
		Type: mojap.Database,
	}

	if len(loc) == 0 {
		if err := visit(desired, db, f); err != nil {
			return err
		}
	}

	if !descend(desired, mojap.Database) {
		return nil
	}

	schemas, err := c.converter.ListSchemas(ctx, c.q)
	if err != nil {
		return err
	}
	if len(loc) > 0 {
		if !contains(schemas, loc[0]) {
			return errors.Wrapf(ErrNotFound, "schema %s", loc[0])
		}
		schemas = []string{loc[0]}
	}

	for _, s := range schemas {
		schema := mojap.EntityRef{
			ID:     s,
			Addr:   s,
			Type:   mojap.Schema,
			Parent: &db,
		}
		if err := c.walkSchema(ctx, desired, &schema, f, loc); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) walkSchema(ctx context.Context, desired mojap.Select, schema *mojap.EntityRef, f func(mojap.EntityRef) error, loc []string) error {
	if len(loc) < 2 {
		if err := visit(desired, *schema, f); err != nil {
			return err
		}
	}

	if !descend(desired, mojap.Schema) {
		return nil
	}

	tables, err := c.converter.ListTables(ctx, c.q, schema.ID)
	if err != nil {
		return err
	}
	if len(loc) > 1 {
		if !contains(tables, loc[1]) {
			return errors.Wrapf(ErrNotFound, "table %s.%s", schema.ID, loc[1])
		}
		tables = []string{loc[1]}
	}

	for _, t := range tables {
		table := mojap.EntityRef{
			ID:     t,
			Addr:   schema.ID + "." + t,
			Type:   mojap.Table,
			Parent: schema,
		}
		if err := c.walkTable(ctx, desired, &table, f, loc); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) walkTable(ctx context.Context, desired mojap.Select, table *mojap.EntityRef, f func(mojap.EntityRef) error, loc []string) error {
	if len(loc) < 3 {
		if err := visit(desired, *table, f); err != nil {
			return err
		}
	}

	if !descend(desired, mojap.Table) {
		return nil
	}

	cols, err := c.converter.ListColumns(ctx, c.q, table.ID, table.Parent.ID)
	if err != nil {
		return err
	}

	found := false
	for _, col := range cols {
		name := strings.ToLower(col.Name)
		if len(loc) > 2 && name != strings.ToLower(loc[2]) {
			continue
		}
		found = true

		err := visit(desired, mojap.EntityRef{
			ID:     name,
			Addr:   table.Addr + "." + name,
			Type:   mojap.Column,
			Parent: table,
		}, f)
		if err != nil {
			return err
		}
	}

	if len(loc) > 2 && !found {
		return errors.Wrapf(ErrNotFound, "column %s.%s", table.Addr, loc[2])
	}
	return nil
}

func visit(desired mojap.Select, ref mojap.EntityRef, f func(mojap.EntityRef) error) error {
	if !desired.Contains(ref) {
		return nil
	}
	return f(ref)
}

// descend determines whether entities below the given type may be desired
func descend(desired mojap.Select, t mojap.Type) bool {
	return desired.Type == mojap.Any || desired.Type < t
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
