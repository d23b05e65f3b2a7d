// Package parquet generates parquet schemas from mojap metadata.
//
// The schema is rendered in the textual message format, and parsed into a
// schema definition, which validates it.  Columns are required when they are
// not nullable, everything nested within them is optional.
package parquet

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fraugster/parquet-go/parquetschema"
	"github.com/pjxcog/mojap-metadata/converters"
	"github.com/pjxcog/mojap-metadata/metadata"
	"github.com/pkg/errors"
)

// ErrInvalidName is returned for table, column and field names the parquet
// message format cannot express
var ErrInvalidName = errors.New("name cannot be used in a parquet schema")

var validName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkName(name string) error {
	if !validName.MatchString(name) {
		return errors.Wrapf(ErrInvalidName, "%q: names must be letters, digits and underscores, not starting with a digit", name)
	}
	return nil
}

// primitive is a parquet physical type and its logical annotation
type primitive struct {
	physical   string
	annotation string
}

var primitives = map[string]primitive{
	"bool":         {"boolean", ""},
	"int8":         {"int32", "INT(8, true)"},
	"int16":        {"int32", "INT(16, true)"},
	"int32":        {"int32", ""},
	"int64":        {"int64", ""},
	"uint8":        {"int32", "INT(8, false)"},
	"uint16":       {"int32", "INT(16, false)"},
	"uint32":       {"int32", "INT(32, false)"},
	"uint64":       {"int64", "INT(64, false)"},
	"float16":      {"float", ""},
	"float32":      {"float", ""},
	"float64":      {"double", ""},
	"string":       {"binary", "STRING"},
	"large_string": {"binary", "STRING"},
	"utf8":         {"binary", "STRING"},
	"large_utf8":   {"binary", "STRING"},
	"binary":       {"binary", ""},
	"large_binary": {"binary", ""},
	"date32":       {"int32", "DATE"},
	"date64":       {"int32", "DATE"},
}

var timeUnits = map[string]string{
	"s":  "MILLIS",
	"ms": "MILLIS",
	"us": "MICROS",
	"ns": "NANOS",
}

// GenerateFromMeta creates a parquet schema definition from metadata
func GenerateFromMeta(m *metadata.Metadata) (*parquetschema.SchemaDefinition, error) {
	text, err := Message(m)
	if err != nil {
		return nil, err
	}

	sd, err := parquetschema.ParseSchemaDefinition(text)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid parquet schema for %s", m.Name)
	}
	return sd, nil
}

// Message renders the parquet message describing metadata
func Message(m *metadata.Metadata) (string, error) {
	if err := checkName(m.Name); err != nil {
		return "", errors.Wrap(err, "table")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "message %s {\n", m.Name)

	for _, col := range m.Columns {
		typ := col.Type
		if typ == "" {
			var ok bool
			if typ, ok = metadata.DefaultTypes[col.TypeCategory]; !ok {
				return "", errors.Wrapf(converters.ErrUnsupportedType, "column %s: type category %q has no default type", col.Name, col.TypeCategory)
			}
		}

		dt, err := metadata.ParseType(typ)
		if err != nil {
			return "", errors.Wrapf(err, "column %s", col.Name)
		}

		repetition := "optional"
		if !col.IsNullable() {
			repetition = "required"
		}
		if err := writeField(&b, 1, repetition, col.Name, dt); err != nil {
			return "", errors.Wrapf(err, "column %s", col.Name)
		}
	}

	b.WriteString("}\n")
	return b.String(), nil
}

func writeField(b *strings.Builder, depth int, repetition, name string, dt *metadata.DataType) error {
	if err := checkName(name); err != nil {
		return err
	}
	indent := strings.Repeat("  ", depth)

	switch dt.Name {
	case "list", "large_list":
		fmt.Fprintf(b, "%s%s group %s (LIST) {\n", indent, repetition, name)
		fmt.Fprintf(b, "%s  repeated group list {\n", indent)
		if err := writeField(b, depth+2, "optional", "element", dt.Elem); err != nil {
			return err
		}
		fmt.Fprintf(b, "%s  }\n%s}\n", indent, indent)
		return nil
	case "struct":
		fmt.Fprintf(b, "%s%s group %s {\n", indent, repetition, name)
		for _, f := range dt.Fields {
			if err := writeField(b, depth+1, "optional", f.Name, f.Type); err != nil {
				return err
			}
		}
		fmt.Fprintf(b, "%s}\n", indent)
		return nil
	case "map_":
		fmt.Fprintf(b, "%s%s group %s (MAP) {\n", indent, repetition, name)
		fmt.Fprintf(b, "%s  repeated group key_value {\n", indent)
		if err := writeField(b, depth+2, "required", "key", dt.Key); err != nil {
			return err
		}
		if err := writeField(b, depth+2, "optional", "value", dt.Value); err != nil {
			return err
		}
		fmt.Fprintf(b, "%s  }\n%s}\n", indent, indent)
		return nil
	}

	p, err := leaf(dt)
	if err != nil {
		return err
	}
	fmt.Fprintf(b, "%s%s %s %s", indent, repetition, p.physical, name)
	if p.annotation != "" {
		fmt.Fprintf(b, " (%s)", p.annotation)
	}
	b.WriteString(";\n")
	return nil
}

func leaf(dt *metadata.DataType) (primitive, error) {
	switch dt.Name {
	case "binary":
		if dt.Width > 0 {
			return primitive{fmt.Sprintf("fixed_len_byte_array(%d)", dt.Width), ""}, nil
		}
	case "decimal128":
		annotation := fmt.Sprintf("DECIMAL(%d, %d)", dt.Precision, dt.Scale)
		switch {
		case dt.Precision <= 9:
			return primitive{"int32", annotation}, nil
		case dt.Precision <= 18:
			return primitive{"int64", annotation}, nil
		}
		return primitive{"fixed_len_byte_array(16)", annotation}, nil
	case "time32":
		return primitive{"int32", "TIME(MILLIS, false)"}, nil
	case "time64":
		return primitive{"int64", fmt.Sprintf("TIME(%s, false)", timeUnits[dt.Unit])}, nil
	case "timestamp":
		return primitive{"int64", fmt.Sprintf("TIMESTAMP(%s, false)", timeUnits[dt.Unit])}, nil
	}

	if p, ok := primitives[dt.Name]; ok {
		return p, nil
	}
	return primitive{}, errors.Wrapf(converters.ErrUnsupportedType, "%s has no parquet equivalent", dt)
}
