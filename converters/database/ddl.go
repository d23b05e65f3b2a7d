package database

import (
	"fmt"
	"strings"

	"github.com/pjxcog/mojap-metadata/converters"
	"github.com/pjxcog/mojap-metadata/metadata"
	"github.com/pkg/errors"
)

// GenerateDDL renders a CREATE TABLE statement for the metadata.  The table is
// qualified by schema unless schema is empty.  Columns that only declare a type
// category are given the category's default type.  For dialects that support them,
// column descriptions become column comments.
func (c *Converter) GenerateDDL(m *metadata.Metadata, schema string) (string, error) {
	if len(m.Columns) == 0 {
		return "", fmt.Errorf("table %s has no columns", m.Name)
	}

	d := c.Dialect
	table := d.quote(m.Name)
	if schema != "" {
		table = d.quote(schema) + "." + table
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", table)

	defs := make([]string, 0, len(m.Columns)+1)
	for _, col := range m.Columns {
		sqlType, err := c.ddlType(col)
		if err != nil {
			return "", errors.Wrapf(err, "column %s of %s", col.Name, m.Name)
		}
		def := "    " + d.quote(col.Name) + " " + sqlType
		if !col.IsNullable() {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}

	if len(m.PrimaryKey) > 0 {
		keys := make([]string, len(m.PrimaryKey))
		for i, k := range m.PrimaryKey {
			keys[i] = d.quote(k)
		}
		defs = append(defs, "    PRIMARY KEY ("+strings.Join(keys, ", ")+")")
	}

	b.WriteString(strings.Join(defs, ",\n"))
	b.WriteString("\n);\n")

	if d.literal != nil {
		for _, col := range m.Columns {
			if col.Description == "" {
				continue
			}
			fmt.Fprintf(&b, "COMMENT ON COLUMN %s.%s IS %s;\n", table, d.quote(col.Name), d.literal(col.Description))
		}
	}

	return b.String(), nil
}

func (c *Converter) ddlType(col metadata.Column) (string, error) {
	typ := col.Type
	if typ == "" {
		var ok bool
		if typ, ok = metadata.DefaultTypes[col.TypeCategory]; !ok {
			return "", errors.Wrapf(converters.ErrUnsupportedType, "type category %q has no default type", col.TypeCategory)
		}
	}

	dt, err := metadata.ParseType(typ)
	if err != nil {
		return "", err
	}
	return c.sqlType(dt)
}

func (c *Converter) sqlType(dt *metadata.DataType) (string, error) {
	d := c.Dialect

	switch dt.Name {
	case "decimal128":
		return fmt.Sprintf("%s(%d,%d)", d.ddlTypes[dt.Name], dt.Precision, dt.Scale), nil
	case "list", "large_list":
		// Postgres arrays; elsewhere lists cannot be represented
		if d != Postgres {
			break
		}
		elem, err := c.sqlType(dt.Elem)
		if err != nil {
			return "", err
		}
		return elem + "[]", nil
	}

	if t, ok := d.ddlTypes[dt.Name]; ok {
		return t, nil
	}
	return "", errors.Wrapf(converters.ErrUnsupportedType, "%s has no %s equivalent", dt, d.Name)
}
