package glue

import (
	"fmt"
	"strings"

	"github.com/pjxcog/mojap-metadata/converters"
	"github.com/pjxcog/mojap-metadata/metadata"
	"github.com/pkg/errors"
)

var toHive = map[string]string{
	"bool":         "boolean",
	"int8":         "tinyint",
	"int16":        "smallint",
	"int32":        "int",
	"int64":        "bigint",
	"uint8":        "smallint",
	"uint16":       "int",
	"uint32":       "bigint",
	"uint64":       "decimal(20,0)",
	"float16":      "float",
	"float32":      "float",
	"float64":      "double",
	"string":       "string",
	"large_string": "string",
	"utf8":         "string",
	"large_utf8":   "string",
	"binary":       "binary",
	"large_binary": "binary",
	"date32":       "date",
	"date64":       "date",
	"timestamp":    "timestamp",
}

var fromHive = converters.NewTypeMap(map[string]string{
	"boolean":   "bool",
	"tinyint":   "int8",
	"smallint":  "int16",
	"int":       "int32",
	"integer":   "int32",
	"bigint":    "int64",
	"float":     "float32",
	"double":    "float64",
	"string":    "string",
	"varchar":   "string",
	"char":      "string",
	"binary":    "binary",
	"date":      "date64",
	"timestamp": "timestamp(ms)",
})

// ConvertType converts a mojap type to a hive type, as used by the glue catalog
func ConvertType(typ string) (string, error) {
	dt, err := metadata.ParseType(typ)
	if err != nil {
		return "", err
	}
	return hiveType(dt)
}

func hiveType(dt *metadata.DataType) (string, error) {
	switch dt.Name {
	case "decimal128":
		return fmt.Sprintf("decimal(%d,%d)", dt.Precision, dt.Scale), nil
	case "list", "large_list":
		elem, err := hiveType(dt.Elem)
		if err != nil {
			return "", err
		}
		return "array<" + elem + ">", nil
	case "struct":
		fields := make([]string, len(dt.Fields))
		for i, f := range dt.Fields {
			ft, err := hiveType(f.Type)
			if err != nil {
				return "", err
			}
			fields[i] = f.Name + ":" + ft
		}
		return "struct<" + strings.Join(fields, ",") + ">", nil
	case "map_":
		key, err := hiveType(dt.Key)
		if err != nil {
			return "", err
		}
		value, err := hiveType(dt.Value)
		if err != nil {
			return "", err
		}
		return "map<" + key + "," + value + ">", nil
	}

	if t, ok := toHive[dt.Name]; ok {
		return t, nil
	}
	return "", errors.Wrapf(converters.ErrUnsupportedType, "%s has no glue equivalent", dt)
}

// ReverseType converts a hive type to a mojap type
func ReverseType(typ string) (string, error) {
	e, err := converters.ParseExpr(typ)
	if err != nil {
		return "", err
	}
	t, err := fromExpr(e)
	return t, errors.Wrapf(err, "glue type %q", typ)
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
	case "map":
		if err := e.Check(2, false); err != nil {
			return "", err
		}
		key, err := fromExpr(e.Params[0].Type)
		if err != nil {
			return "", err
		}
		value, err := fromExpr(e.Params[1].Type)
		if err != nil {
			return "", err
		}
		return "map_<" + key + ", " + value + ">", nil
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

	if e.Name == "decimal" || e.Name == "numeric" {
		precision, scale := 10, 0
		if len(e.Args) > 0 {
			precision = e.Args[0]
		}
		if len(e.Args) > 1 {
			scale = e.Args[1]
		}
		return fmt.Sprintf("decimal128(%d,%d)", precision, scale), nil
	}

	return fromHive.Convert(e.Name)
}
