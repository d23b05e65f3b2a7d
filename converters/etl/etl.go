// Package etl converts between mojap metadata and the legacy etl-manager table
// metadata format.
//
// etl-manager tables name their file format data_format, carry a location
// relative to the database, and use their own type names: character, int, long,
// float, double, decimal(p,s), date, datetime, boolean, binary, array<T> and
// struct<name:T,...>.
package etl

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pjxcog/mojap-metadata/converters"
	"github.com/pjxcog/mojap-metadata/metadata"
	"github.com/pkg/errors"
)

// SchemaURL identifies the etl-manager table schema documents are written against
const SchemaURL = "https://moj-analytical-services.github.io/metadata_schema/table/v1.4.0.json"

// Table is an etl-manager table definition
type Table struct {
	Schema      string   `json:"$schema,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	DataFormat  string   `json:"data_format"`
	Location    string   `json:"location"`
	Columns     []Column `json:"columns"`
	Partitions  []string `json:"partitions,omitempty"`
	PrimaryKey  []string `json:"primary_key,omitempty"`
}

// Column is an etl-manager column definition
type Column struct {
	Name        string        `json:"name"`
	Type        string        `json:"type"`
	Description string        `json:"description"`
	Nullable    *bool         `json:"nullable,omitempty"`
	Enum        []interface{} `json:"enum,omitempty"`
	Pattern     string        `json:"pattern,omitempty"`
}

var toETL = map[string]string{
	"bool":         "boolean",
	"int8":         "int",
	"int16":        "int",
	"int32":        "int",
	"uint8":        "int",
	"uint16":       "int",
	"int64":        "long",
	"uint32":       "long",
	"uint64":       "long",
	"float16":      "float",
	"float32":      "float",
	"float64":      "double",
	"string":       "character",
	"large_string": "character",
	"utf8":         "character",
	"large_utf8":   "character",
	"binary":       "binary",
	"large_binary": "binary",
	"date32":       "date",
	"date64":       "date",
	"timestamp":    "datetime",
}

var fromETL = converters.NewTypeMap(map[string]string{
	"character": "string",
	"int":       "int32",
	"long":      "int64",
	"float":     "float32",
	"double":    "float64",
	"date":      "date64",
	"datetime":  "timestamp(s)",
	"boolean":   "bool",
	"binary":    "binary",
})

// Read parses an etl-manager table from json
func Read(r io.Reader) (*Table, error) {
	var t Table
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, errors.Wrap(err, "could not decode etl-manager table")
	}
	return &t, nil
}

// Write serializes the table to json
func (t *Table) Write(w io.Writer) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "    ")
	return errors.Wrap(e.Encode(t), "could not encode etl-manager table")
}

// GenerateFromMeta creates an etl-manager table from metadata.  The location
// defaults to the table name.
func GenerateFromMeta(m *metadata.Metadata) (*Table, error) {
	t := &Table{
		Schema:      SchemaURL,
		Name:        m.Name,
		Description: m.Description,
		DataFormat:  m.FileFormat,
		Location:    m.Name + "/",
		Columns:     make([]Column, 0, len(m.Columns)),
		Partitions:  m.Partitions,
		PrimaryKey:  m.PrimaryKey,
	}

	for _, col := range m.Columns {
		typ := col.Type
		if typ == "" {
			var ok bool
			if typ, ok = metadata.DefaultTypes[col.TypeCategory]; !ok {
				return nil, errors.Errorf("column %s: type category %q has no default type", col.Name, col.TypeCategory)
			}
		}

		et, err := ConvertType(typ)
		if err != nil {
			return nil, errors.Wrapf(err, "column %s", col.Name)
		}

		t.Columns = append(t.Columns, Column{
			Name:        col.Name,
			Type:        et,
			Description: col.Description,
			Nullable:    col.Nullable,
			Enum:        col.Enum,
			Pattern:     col.Pattern,
		})
	}
	return t, nil
}

// GenerateToMeta creates metadata from an etl-manager table
func GenerateToMeta(t *Table) (*metadata.Metadata, error) {
	m := metadata.New(t.Name)
	m.Description = t.Description
	m.FileFormat = t.DataFormat
	if t.Partitions != nil {
		m.Partitions = append([]string{}, t.Partitions...)
	}
	if t.PrimaryKey != nil {
		m.PrimaryKey = append([]string{}, t.PrimaryKey...)
	}

	for _, col := range t.Columns {
		typ, err := ReverseType(col.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "column %s", col.Name)
		}
		m.Columns = append(m.Columns, metadata.Column{
			Name:        col.Name,
			Type:        typ,
			Description: col.Description,
			Nullable:    col.Nullable,
			Enum:        col.Enum,
			Pattern:     col.Pattern,
		})
	}
	return m, nil
}

// ConvertType converts a mojap type to an etl-manager type
func ConvertType(typ string) (string, error) {
	dt, err := metadata.ParseType(typ)
	if err != nil {
		return "", err
	}
	return etlType(dt)
}

func etlType(dt *metadata.DataType) (string, error) {
	switch dt.Name {
	case "decimal128":
		return fmt.Sprintf("decimal(%d,%d)", dt.Precision, dt.Scale), nil
	case "list", "large_list":
		elem, err := etlType(dt.Elem)
		if err != nil {
			return "", err
		}
		return "array<" + elem + ">", nil
	case "struct":
		fields := make([]string, len(dt.Fields))
		for i, f := range dt.Fields {
			ft, err := etlType(f.Type)
			if err != nil {
				return "", err
			}
			fields[i] = f.Name + ":" + ft
		}
		return "struct<" + strings.Join(fields, ",") + ">", nil
	}

	if t, ok := toETL[dt.Name]; ok {
		return t, nil
	}
	return "", errors.Wrapf(converters.ErrUnsupportedType, "%s has no etl-manager equivalent", dt)
}

// ReverseType converts an etl-manager type to a mojap type
func ReverseType(typ string) (string, error) {
	e, err := converters.ParseExpr(typ)
	if err != nil {
		return "", err
	}
	t, err := fromExpr(e)
	return t, errors.Wrapf(err, "etl-manager type %q", typ)
}

func fromExpr(e *converters.Expr) (string, error) {
	switch e.Name {
	case "array":
		if err := e.Check(1, false); err != nil {
			return "", err
		}
		elem, err := fromExpr(e.Params[0].Type)
		if err != nil {
			return "", err
		}
		return "list<" + elem + ">", nil
	case "struct":
		if err := e.Check(-1, true); err != nil {
			return "", err
		}
		fields := make([]string, len(e.Params))
		for i, p := range e.Params {
			ft, err := fromExpr(p.Type)
			if err != nil {
				return "", err
			}
			fields[i] = p.Name + ":" + ft
		}
		return "struct<" + strings.Join(fields, ", ") + ">", nil
	}

	if err := e.Check(0, false); err != nil {
		return "", err
	}
	if e.Name == "decimal" {
		if len(e.Args) != 2 {
			return "", errors.Errorf("decimal needs a precision and scale")
		}
		return fmt.Sprintf("decimal128(%d,%d)", e.Args[0], e.Args[1]), nil
	}
	if len(e.Args) > 0 {
		return "", errors.Errorf("%s takes no arguments", e.Name)
	}
	return fromETL.Convert(e.Name)
}
