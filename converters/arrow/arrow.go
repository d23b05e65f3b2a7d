// Package arrow converts between mojap metadata and Apache Arrow schemas.
//
// Column and table descriptions are carried in the field and schema metadata,
// under the key "description".
package arrow

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/pjxcog/mojap-metadata/converters"
	"github.com/pjxcog/mojap-metadata/metadata"
	"github.com/pkg/errors"
)

// DescriptionKey is the arrow metadata key holding descriptions
const DescriptionKey = "description"

var simpleTypes = map[string]arrow.DataType{
	"null":         arrow.Null,
	"bool":         arrow.FixedWidthTypes.Boolean,
	"int8":         arrow.PrimitiveTypes.Int8,
	"int16":        arrow.PrimitiveTypes.Int16,
	"int32":        arrow.PrimitiveTypes.Int32,
	"int64":        arrow.PrimitiveTypes.Int64,
	"uint8":        arrow.PrimitiveTypes.Uint8,
	"uint16":       arrow.PrimitiveTypes.Uint16,
	"uint32":       arrow.PrimitiveTypes.Uint32,
	"uint64":       arrow.PrimitiveTypes.Uint64,
	"float16":      arrow.FixedWidthTypes.Float16,
	"float32":      arrow.PrimitiveTypes.Float32,
	"float64":      arrow.PrimitiveTypes.Float64,
	"date32":       arrow.FixedWidthTypes.Date32,
	"date64":       arrow.FixedWidthTypes.Date64,
	"string":       arrow.BinaryTypes.String,
	"utf8":         arrow.BinaryTypes.String,
	"large_string": arrow.BinaryTypes.LargeString,
	"large_utf8":   arrow.BinaryTypes.LargeString,
	"binary":       arrow.BinaryTypes.Binary,
	"large_binary": arrow.BinaryTypes.LargeBinary,
}

var timeUnits = map[string]arrow.TimeUnit{
	"s":  arrow.Second,
	"ms": arrow.Millisecond,
	"us": arrow.Microsecond,
	"ns": arrow.Nanosecond,
}

// GenerateFromMeta creates an arrow schema from metadata.  Columns which only
// declare a type category are given the category's default type.
func GenerateFromMeta(m *metadata.Metadata) (*arrow.Schema, error) {
	fields := make([]arrow.Field, 0, len(m.Columns))
	for _, col := range m.Columns {
		typ := col.Type
		if typ == "" {
			var ok bool
			if typ, ok = metadata.DefaultTypes[col.TypeCategory]; !ok {
				return nil, errors.Wrapf(converters.ErrUnsupportedType, "column %s: type category %q has no default type", col.Name, col.TypeCategory)
			}
		}

		at, err := ConvertType(typ)
		if err != nil {
			return nil, errors.Wrapf(err, "column %s", col.Name)
		}

		field := arrow.Field{
			Name:     col.Name,
			Type:     at,
			Nullable: col.IsNullable(),
		}
		if col.Description != "" {
			field.Metadata = arrow.NewMetadata([]string{DescriptionKey}, []string{col.Description})
		}
		fields = append(fields, field)
	}

	var md *arrow.Metadata
	if m.Description != "" {
		v := arrow.NewMetadata([]string{DescriptionKey}, []string{m.Description})
		md = &v
	}
	return arrow.NewSchema(fields, md), nil
}

// ConvertType converts a mojap type string to an arrow type
func ConvertType(typ string) (arrow.DataType, error) {
	dt, err := metadata.ParseType(typ)
	if err != nil {
		return nil, err
	}
	return toArrow(dt)
}

func toArrow(dt *metadata.DataType) (arrow.DataType, error) {
	if t, ok := simpleTypes[dt.Name]; ok && dt.Width == 0 {
		return t, nil
	}

	switch dt.Name {
	case "binary":
		return &arrow.FixedSizeBinaryType{ByteWidth: dt.Width}, nil
	case "decimal128":
		return &arrow.Decimal128Type{Precision: int32(dt.Precision), Scale: int32(dt.Scale)}, nil
	case "time32":
		return &arrow.Time32Type{Unit: timeUnits[dt.Unit]}, nil
	case "time64":
		return &arrow.Time64Type{Unit: timeUnits[dt.Unit]}, nil
	case "timestamp":
		return &arrow.TimestampType{Unit: timeUnits[dt.Unit]}, nil
	case "list", "large_list":
		elem, err := toArrow(dt.Elem)
		if err != nil {
			return nil, err
		}
		if dt.Name == "large_list" {
			return arrow.LargeListOf(elem), nil
		}
		return arrow.ListOf(elem), nil
	case "struct":
		fields := make([]arrow.Field, len(dt.Fields))
		for i, f := range dt.Fields {
			ft, err := toArrow(f.Type)
			if err != nil {
				return nil, err
			}
			fields[i] = arrow.Field{Name: f.Name, Type: ft, Nullable: true}
		}
		return arrow.StructOf(fields...), nil
	case "map_":
		key, err := toArrow(dt.Key)
		if err != nil {
			return nil, err
		}
		value, err := toArrow(dt.Value)
		if err != nil {
			return nil, err
		}
		return arrow.MapOf(key, value), nil
	}

	return nil, errors.Wrapf(converters.ErrUnsupportedType, "%s has no arrow equivalent", dt)
}

// GenerateToMeta creates metadata for a table with the given arrow schema
func GenerateToMeta(schema *arrow.Schema, name string) (*metadata.Metadata, error) {
	m := metadata.New(name)
	if md := schema.Metadata(); md.Len() > 0 {
		if i := md.FindKey(DescriptionKey); i >= 0 {
			m.Description = md.Values()[i]
		}
	}

	for _, f := range schema.Fields() {
		typ, err := ReverseType(f.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", f.Name)
		}

		col := metadata.Column{
			Name: f.Name,
			Type: typ,
		}
		if !f.Nullable {
			col.Nullable = metadata.Bool(false)
		}
		if i := f.Metadata.FindKey(DescriptionKey); i >= 0 {
			col.Description = f.Metadata.Values()[i]
		}
		m.Columns = append(m.Columns, col)
	}
	return m, nil
}

// ReverseType converts an arrow type to a mojap type string
func ReverseType(t arrow.DataType) (string, error) {
	switch t := t.(type) {
	case *arrow.FixedSizeBinaryType:
		return fmt.Sprintf("binary(%d)", t.ByteWidth), nil
	case *arrow.Decimal128Type:
		return fmt.Sprintf("decimal128(%d,%d)", t.Precision, t.Scale), nil
	case *arrow.Time32Type:
		return fmt.Sprintf("time32(%s)", t.Unit), nil
	case *arrow.Time64Type:
		return fmt.Sprintf("time64(%s)", t.Unit), nil
	case *arrow.TimestampType:
		return fmt.Sprintf("timestamp(%s)", t.Unit), nil
	case *arrow.MapType:
		key, err := ReverseType(t.KeyType())
		if err != nil {
			return "", err
		}
		value, err := ReverseType(t.ItemType())
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("map_<%s, %s>", key, value), nil
	case *arrow.ListType:
		elem, err := ReverseType(t.Elem())
		if err != nil {
			return "", err
		}
		return "list<" + elem + ">", nil
	case *arrow.LargeListType:
		elem, err := ReverseType(t.Elem())
		if err != nil {
			return "", err
		}
		return "large_list<" + elem + ">", nil
	case *arrow.StructType:
		dt := &metadata.DataType{Name: "struct"}
		for _, f := range t.Fields() {
			ft, err := ReverseType(f.Type)
			if err != nil {
				return "", err
			}
			parsed, err := metadata.ParseType(ft)
			if err != nil {
				return "", err
			}
			dt.Fields = append(dt.Fields, metadata.Field{Name: f.Name, Type: parsed})
		}
		return dt.String(), nil
	}

	switch t.ID() {
	case arrow.NULL:
		return "null", nil
	case arrow.BOOL:
		return "bool", nil
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64,
		arrow.DATE32, arrow.DATE64:
		// Arrow names these exactly as mojap does
		return t.Name(), nil
	case arrow.STRING:
		return "string", nil
	case arrow.LARGE_STRING:
		return "large_string", nil
	case arrow.BINARY:
		return "binary", nil
	case arrow.LARGE_BINARY:
		return "large_binary", nil
	}

	return "", errors.Wrapf(converters.ErrUnsupportedType, "arrow type %s has no mojap equivalent", t)
}
